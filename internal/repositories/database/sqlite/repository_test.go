package sqlite_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories/database/sqlite"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type RepositoryTestSuite struct {
	suite.Suite
	ctx  context.Context
	repo *sqlite.Repository
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := database.OpenMemory(logger)
	s.Require().NoError(err)
	s.repo = sqlite.New(store, logger)
	s.Require().NoError(s.repo.EnsureTables(s.ctx))
	s.Require().NoError(s.repo.Seed(s.ctx))

	// Fixture ids match the ones business users quote: client 10, operator 20, equipment 30.
	for _, stmt := range []string{
		"INSERT INTO entities (id, project_id, kind, name) VALUES (10, 1, 'Client', 'Constructora Norte')",
		"INSERT INTO entities (id, project_id, kind, name) VALUES (20, 1, 'Operator', 'Juan Pérez')",
		"INSERT INTO equipment (id, project_id, name, maintenance_trigger_kind, maintenance_trigger_value) VALUES (30, 1, 'Retro CAT 420', 'HOURS', 250)",
	} {
		_, err := store.Execute(s.ctx, stmt)
		s.Require().NoError(err)
	}
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.NoError(s.repo.Close())
}

func (s *RepositoryTestSuite) rental(date, hours, price string) domain.RentalInput {
	return domain.RentalInput{
		ProjectID: 1, AccountID: 1, CategoryID: 1,
		EquipmentID: 30, ClientID: 10, OperatorID: 20,
		Date: date, Hours: dec(hours), PricePerHour: dec(price),
		DeliveryNote: "C-001", Location: "Santiago",
	}
}

func (s *RepositoryTestSuite) assertPaidInvariant(transactionID string) {
	detail, err := s.repo.FindRentalDetail(s.ctx, transactionID)
	s.Require().NoError(err)
	s.Require().NotNil(detail)
	payments, err := s.repo.ListPaymentsByTransaction(s.ctx, transactionID)
	s.Require().NoError(err)
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	s.Equal(sum.GreaterThanOrEqual(detail.Transaction.Amount), detail.Transaction.Paid,
		"paid flag of %s disagrees with payments %s of %s", transactionID, sum, detail.Transaction.Amount)
}

func (s *RepositoryTestSuite) TestSeed_IsIdempotent() {
	s.Require().NoError(s.repo.Seed(s.ctx))
	projects, err := s.repo.ListProjects(s.ctx)
	s.Require().NoError(err)
	s.Len(projects, 1)
	s.Equal(domain.DefaultCurrency, projects[0].Currency)

	accounts, err := s.repo.ListAccounts(s.ctx)
	s.Require().NoError(err)
	s.Len(accounts, 2)
}

func (s *RepositoryTestSuite) TestRentalDualWrite() {
	created, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-15", "8.0", "1250.00"))
	s.Require().NoError(err)
	s.Require().NotNil(created.Meta)
	s.Len(created.Transaction.ID, 32)
	s.True(dec("10000").Equal(created.Transaction.Amount))
	s.False(created.Transaction.Paid)
	s.True(created.Transaction.Hours.Decimal.Equal(created.Meta.Hours))
	s.True(created.Transaction.PricePerHour.Decimal.Equal(created.Meta.PricePerHour))
	s.Equal(int64(10), created.Meta.ClientID)
	s.Equal(int64(20), created.Meta.OperatorID)
	s.Equal(int64(30), created.Meta.EquipmentID)

	updated, err := s.repo.UpdateRental(s.ctx, created.Transaction.ID, s.rental("2025-01-15", "12.0", "1300.00"))
	s.Require().NoError(err)
	s.True(dec("15600").Equal(updated.Transaction.Amount))
	s.True(dec("15600").Equal(updated.Meta.Amount))
	s.True(dec("12").Equal(updated.Meta.Hours))

	found, err := s.repo.FindRentalDetail(s.ctx, created.Transaction.ID)
	s.Require().NoError(err)
	s.Equal(updated, found)
}

func (s *RepositoryTestSuite) TestUpdateRental_Missing() {
	_, err := s.repo.UpdateRental(s.ctx, "00000000000000000000000000000000", s.rental("2025-01-15", "1", "1"))
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *RepositoryTestSuite) TestCreateRental_RejectsBadInput() {
	in := s.rental("15/01/2025", "8", "100")
	_, err := s.repo.CreateRental(s.ctx, in)
	s.ErrorIs(err, apperrors.ErrValidation)

	in = s.rental("2025-01-15", "0", "100")
	_, err = s.repo.CreateRental(s.ctx, in)
	s.ErrorIs(err, apperrors.ErrValidation)

	txs, err := s.repo.ListTransactions(s.ctx, 1, domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Empty(txs)
}

func (s *RepositoryTestSuite) TestAllocateAcrossThreeInvoices() {
	a, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-01", "1", "1000"))
	s.Require().NoError(err)
	b, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-05", "1", "2000"))
	s.Require().NoError(err)
	c, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-10", "1", "500"))
	s.Require().NoError(err)

	result, err := s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("2500"),
	})
	s.Require().NoError(err)
	s.Require().Len(result.Payments, 2)
	s.Equal(a.Transaction.ID, result.Payments[0].TransactionID)
	s.True(dec("1000").Equal(result.Payments[0].Amount))
	s.Equal(b.Transaction.ID, result.Payments[1].TransactionID)
	s.True(dec("1500").Equal(result.Payments[1].Amount))
	s.True(result.Unapplied.IsZero())

	for _, id := range []string{a.Transaction.ID, b.Transaction.ID, c.Transaction.ID} {
		s.assertPaidInvariant(id)
	}
	got, _ := s.repo.FindRentalDetail(s.ctx, a.Transaction.ID)
	s.True(got.Transaction.Paid)
	got, _ = s.repo.FindRentalDetail(s.ctx, b.Transaction.ID)
	s.False(got.Transaction.Paid)
	cPayments, _ := s.repo.ListPaymentsByTransaction(s.ctx, c.Transaction.ID)
	s.Empty(cPayments)

	outstanding, err := s.repo.ClientOutstanding(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.True(dec("1000").Equal(outstanding), "outstanding %s", outstanding)
}

func (s *RepositoryTestSuite) TestAllocate_NoOutstanding() {
	_, err := s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("100"),
	})
	s.ErrorIs(err, apperrors.ErrNoOutstanding)

	payments, err := s.repo.ListPayments(s.ctx, 1, domain.PaymentFilter{})
	s.Require().NoError(err)
	s.Empty(payments)
}

func (s *RepositoryTestSuite) TestAllocate_RemainderIsDiscarded() {
	r, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-01", "1", "1000"))
	s.Require().NoError(err)

	result, err := s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("1500"),
	})
	s.Require().NoError(err)
	s.True(dec("1000").Equal(result.Applied))
	s.True(dec("500").Equal(result.Unapplied))
	s.assertPaidInvariant(r.Transaction.ID)

	outstanding, err := s.repo.ClientOutstanding(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.True(outstanding.IsZero())
}

func (s *RepositoryTestSuite) TestPaidFlagFollowsPaymentEdits() {
	r, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-01", "2", "500"))
	s.Require().NoError(err)
	result, err := s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("1000"),
	})
	s.Require().NoError(err)
	s.assertPaidInvariant(r.Transaction.ID)

	payment := result.Payments[0]
	_, err = s.repo.UpdatePayment(s.ctx, payment.ID, domain.PaymentUpdate{AccountID: 1, Date: "2025-02-02", Amount: dec("400")})
	s.Require().NoError(err)
	s.assertPaidInvariant(r.Transaction.ID)

	_, err = s.repo.UpdatePayment(s.ctx, payment.ID, domain.PaymentUpdate{AccountID: 1, Date: "2025-02-02", Amount: dec("1000.01")})
	s.ErrorIs(err, apperrors.ErrValidation)

	s.Require().NoError(s.repo.DeletePayments(s.ctx, []int64{payment.ID, 9999}))
	s.assertPaidInvariant(r.Transaction.ID)

	// Raising the rental amount after full payment must clear the flag.
	_, err = s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-03", Amount: dec("1000"),
	})
	s.Require().NoError(err)
	s.assertPaidInvariant(r.Transaction.ID)
	_, err = s.repo.UpdateRental(s.ctx, r.Transaction.ID, s.rental("2025-01-01", "3", "500"))
	s.Require().NoError(err)
	s.assertPaidInvariant(r.Transaction.ID)
}

func (s *RepositoryTestSuite) TestDeleteRental_RemovesMetaAndPayments() {
	r, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-01", "1", "100"))
	s.Require().NoError(err)
	_, err = s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("50"),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.DeleteRental(s.ctx, r.Transaction.ID))
	detail, err := s.repo.FindRentalDetail(s.ctx, r.Transaction.ID)
	s.Require().NoError(err)
	s.Nil(detail)
	payments, err := s.repo.ListPayments(s.ctx, 1, domain.PaymentFilter{})
	s.Require().NoError(err)
	s.Empty(payments)

	s.ErrorIs(s.repo.DeleteRental(s.ctx, r.Transaction.ID), apperrors.ErrNotFound)
}

func (s *RepositoryTestSuite) TestListRentals_Filters() {
	_, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-01", "1", "100"))
	s.Require().NoError(err)
	other := s.rental("2025-02-10", "1", "100")
	other.Location = "Puerto Plata"
	_, err = s.repo.CreateRental(s.ctx, other)
	s.Require().NoError(err)
	_, err = s.repo.CreateTransaction(s.ctx, domain.TransactionInput{
		ProjectID: 1, AccountID: 1, CategoryID: 2, Kind: domain.Expense, Amount: dec("75"), Date: "2025-01-03",
	})
	s.Require().NoError(err)

	all, err := s.repo.ListRentals(s.ctx, 1, domain.RentalFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	feb, err := s.repo.ListRentals(s.ctx, 1, domain.RentalFilter{DateRange: domain.DateRange{From: "2025-02-01"}})
	s.Require().NoError(err)
	s.Len(feb, 1)

	text, err := s.repo.ListRentals(s.ctx, 1, domain.RentalFilter{Text: "plata"})
	s.Require().NoError(err)
	s.Require().Len(text, 1)
	s.Equal("Puerto Plata", text[0].Location)

	expenses, err := s.repo.ListTransactions(s.ctx, 1, domain.TransactionFilter{Kind: domain.Expense})
	s.Require().NoError(err)
	s.Len(expenses, 1)

	bounds, err := s.repo.DateBounds(s.ctx)
	s.Require().NoError(err)
	s.Equal(domain.DateBounds{MinDate: "2025-01-01", MaxDate: "2025-02-10"}, bounds)
}

func (s *RepositoryTestSuite) TestEntitySoftDelete() {
	created, err := s.repo.CreateEntity(s.ctx, domain.EntityInput{
		ProjectID: 1, Kind: domain.EntityClient, Name: "Agregados del Cibao", Phone: "809-555-0101", NationalID: "001-0000000-1",
	})
	s.Require().NoError(err)
	s.True(created.Active)
	s.Equal("809-555-0101", created.Phone)

	_, err = s.repo.CreateEntity(s.ctx, domain.EntityInput{ProjectID: 1, Kind: domain.EntityClient, Name: "Agregados del Cibao"})
	s.ErrorIs(err, apperrors.ErrDuplicate)

	s.Require().NoError(s.repo.DeactivateEntity(s.ctx, created.ID))
	active, err := s.repo.ListEntities(s.ctx, 1, domain.EntityClient, false)
	s.Require().NoError(err)
	s.Len(active, 1) // only the fixture client
	all, err := s.repo.ListEntities(s.ctx, 1, domain.EntityClient, true)
	s.Require().NoError(err)
	s.Len(all, 2)

	found, err := s.repo.FindEntityByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(found.Active)

	s.ErrorIs(s.repo.DeactivateEntity(s.ctx, 4242), apperrors.ErrNotFound)
	missing, err := s.repo.FindEntityByID(s.ctx, 4242)
	s.NoError(err)
	s.Nil(missing)
}

func (s *RepositoryTestSuite) TestEquipmentAndFleetStatus() {
	_, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-10", "200", "10"))
	s.Require().NoError(err)
	_, err = s.repo.CreateMaintenance(s.ctx, domain.MaintenanceInput{EquipmentID: 30, Date: "2025-01-05", Kind: "Preventivo"})
	s.Require().NoError(err)
	_, err = s.repo.CreateRental(s.ctx, s.rental("2025-01-20", "60", "10"))
	s.Require().NoError(err)

	status, err := s.repo.FleetStatus(s.ctx, 1, "2025-02-01")
	s.Require().NoError(err)
	s.Require().Len(status, 1)
	s.True(dec("260").Equal(status[0].UsageSinceLast), "usage %s", status[0].UsageSinceLast)
	s.True(status[0].Due)

	s.Require().NoError(s.repo.DeactivateEquipment(s.ctx, 30))
	status, err = s.repo.FleetStatus(s.ctx, 1, "2025-02-01")
	s.Require().NoError(err)
	s.Empty(status)
}

func (s *RepositoryTestSuite) TestMonthlyKPIs() {
	_, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-10", "8", "1250"))
	s.Require().NoError(err)
	_, err = s.repo.CreateTransaction(s.ctx, domain.TransactionInput{
		ProjectID: 1, AccountID: 1, CategoryID: 2, Kind: domain.Expense, Amount: dec("3000"), Date: "2025-01-12",
	})
	s.Require().NoError(err)
	_, err = s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-01-31", Amount: dec("4000"),
	})
	s.Require().NoError(err)

	kpis, err := s.repo.MonthlyKPIs(s.ctx, 1, 2025, time.January)
	s.Require().NoError(err)
	s.True(dec("10000").Equal(kpis.Income))
	s.True(dec("3000").Equal(kpis.Expense))
	s.True(dec("7000").Equal(kpis.Balance))
	s.True(dec("6000").Equal(kpis.Outstanding))
	s.Require().NotNil(kpis.TopEquipment)
	s.Equal("Retro CAT 420", kpis.TopEquipment.Name)
	s.Require().NotNil(kpis.TopOperator)
	s.Equal(int64(20), kpis.TopOperator.ID)
}

func (s *RepositoryTestSuite) TestVerifyConnection() {
	s.True(s.repo.VerifyConnection(s.ctx))
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
