package remote_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	client "github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories/remote"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeDocs keeps collections in memory and behaves like the decoded side of the client.
type fakeDocs struct {
	mu      sync.Mutex
	cols    map[string]map[string]map[string]any
	commits int
	listErr error
	alive   bool
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{cols: make(map[string]map[string]map[string]any), alive: true}
}

func (f *fakeDocs) put(collection, id string, fields map[string]any) {
	if f.cols[collection] == nil {
		f.cols[collection] = make(map[string]map[string]any)
	}
	doc := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != client.RemoteIDKey {
			doc[k] = v
		}
	}
	f.cols[collection][id] = doc
}

func (f *fakeDocs) read(collection, id string) map[string]any {
	doc, ok := f.cols[collection][id]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[client.RemoteIDKey] = id
	return out
}

func (f *fakeDocs) all(collection string) []map[string]any {
	ids := make([]string, 0, len(f.cols[collection]))
	for id := range f.cols[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.read(collection, id))
	}
	return out
}

func (f *fakeDocs) ProjectID() string { return "demo" }

func (f *fakeDocs) GetDocument(_ context.Context, collection, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(collection, id), nil
}

func (f *fakeDocs) ListDocuments(_ context.Context, collection string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.all(collection), nil
}

func (f *fakeDocs) SetDocument(_ context.Context, collection, id string, record map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(collection, id, record)
	return f.read(collection, id), nil
}

func (f *fakeDocs) DeleteDocument(_ context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cols[collection], id)
	return nil
}

func (f *fakeDocs) Commit(_ context.Context, writes ...client.Write) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	for _, w := range writes {
		if w.Delete {
			delete(f.cols[w.Collection], w.ID)
			continue
		}
		f.put(w.Collection, w.ID, w.Fields)
	}
	return nil
}

func (f *fakeDocs) RunQuery(_ context.Context, q client.Query) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, doc := range f.all(q.Collection) {
		match := true
		for field, want := range q.Equal {
			if fmt.Sprint(doc[field]) != fmt.Sprint(want) {
				match = false
			}
		}
		if match {
			out = append(out, doc)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := fmt.Sprintf("%020v", out[i][q.OrderBy]), fmt.Sprintf("%020v", out[j][q.OrderBy])
			if q.Descending {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeDocs) QueryEqual(ctx context.Context, collection, field string, value any) ([]map[string]any, error) {
	return f.RunQuery(ctx, client.Query{Collection: collection, Equal: map[string]any{field: value}})
}

func (f *fakeDocs) Probe(context.Context) bool { return f.alive }

type RepositoryTestSuite struct {
	suite.Suite
	ctx  context.Context
	docs *fakeDocs
	repo *remote.Repository
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.docs = newFakeDocs()
	s.repo = remote.New(s.docs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(s.repo.EnsureTables(s.ctx))
	s.Require().NoError(s.repo.Seed(s.ctx))

	s.docs.put(database.TableEntities, "10", map[string]any{"id": int64(10), "project_id": int64(1), "kind": "Client", "name": "Constructora Norte", "active": true})
	s.docs.put(database.TableEntities, "20", map[string]any{"id": int64(20), "project_id": int64(1), "kind": "Operator", "name": "Juan Pérez", "active": true})
	s.docs.put(database.TableEquipment, "30", map[string]any{
		"id": int64(30), "project_id": int64(1), "name": "Retro CAT 420", "active": true,
		"maintenance_trigger_kind": "HOURS", "maintenance_trigger_value": float64(250),
	})
}

func (s *RepositoryTestSuite) rental(date, hours, price string) domain.RentalInput {
	return domain.RentalInput{
		ProjectID: 1, AccountID: 1, CategoryID: 1,
		EquipmentID: 30, ClientID: 10, OperatorID: 20,
		Date: date, Hours: dec(hours), PricePerHour: dec(price),
		DeliveryNote: "C-001", Location: "Santiago",
	}
}

func (s *RepositoryTestSuite) paid(transactionID string) bool {
	detail, err := s.repo.FindRentalDetail(s.ctx, transactionID)
	s.Require().NoError(err)
	s.Require().NotNil(detail)
	return detail.Transaction.Paid
}

func (s *RepositoryTestSuite) TestSeed_IsIdempotent() {
	s.Require().NoError(s.repo.Seed(s.ctx))

	projects, err := s.repo.ListProjects(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(projects, 1)
	s.Equal(int64(1), projects[0].ID)
	s.Equal(domain.DefaultCurrency, projects[0].Currency)

	accounts, err := s.repo.ListAccounts(s.ctx)
	s.Require().NoError(err)
	s.Len(accounts, 2)

	categories, err := s.repo.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Len(categories, len(domain.DefaultSeed().Categories))
}

func (s *RepositoryTestSuite) TestRentalDualWrite_OneCommitEach() {
	before := s.docs.commits
	created, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-15", "8.0", "1250.00"))
	s.Require().NoError(err)
	s.Equal(before+1, s.docs.commits)
	s.Len(created.Transaction.ID, 32)
	s.True(dec("10000").Equal(created.Transaction.Amount))

	updated, err := s.repo.UpdateRental(s.ctx, created.Transaction.ID, s.rental("2025-01-15", "12.0", "1300.00"))
	s.Require().NoError(err)
	s.Equal(before+2, s.docs.commits)
	s.True(dec("15600").Equal(updated.Transaction.Amount))

	found, err := s.repo.FindRentalDetail(s.ctx, created.Transaction.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.Meta)
	s.True(dec("15600").Equal(found.Transaction.Amount))
	s.True(dec("15600").Equal(found.Meta.Amount))
	s.True(dec("12").Equal(found.Meta.Hours))
	s.True(dec("1300").Equal(found.Transaction.PricePerHour.Decimal))
	s.Equal(int64(20), found.Meta.OperatorID)
}

func (s *RepositoryTestSuite) TestUpdateRental_Missing() {
	_, err := s.repo.UpdateRental(s.ctx, "00000000000000000000000000000000", s.rental("2025-01-15", "1", "1"))
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *RepositoryTestSuite) TestAllocateAcrossThreeInvoices() {
	a, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-01", "1", "1000"))
	s.Require().NoError(err)
	b, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-05", "1", "2000"))
	s.Require().NoError(err)
	c, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-10", "1", "500"))
	s.Require().NoError(err)

	before := s.docs.commits
	result, err := s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("2500"),
	})
	s.Require().NoError(err)
	s.Equal(before+1, s.docs.commits)
	s.Require().Len(result.Payments, 2)
	s.Equal(a.Transaction.ID, result.Payments[0].TransactionID)
	s.True(dec("1000").Equal(result.Payments[0].Amount))
	s.Equal(b.Transaction.ID, result.Payments[1].TransactionID)
	s.True(dec("1500").Equal(result.Payments[1].Amount))
	s.NotEqual(result.Payments[0].ID, result.Payments[1].ID)

	s.True(s.paid(a.Transaction.ID))
	s.False(s.paid(b.Transaction.ID))
	s.False(s.paid(c.Transaction.ID))

	outstanding, err := s.repo.ClientOutstanding(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.True(dec("1000").Equal(outstanding), "got %s", outstanding)
}

func (s *RepositoryTestSuite) TestAllocate_NoOutstanding() {
	_, err := s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("100"),
	})
	s.ErrorIs(err, apperrors.ErrNoOutstanding)
}

func (s *RepositoryTestSuite) TestPaymentEditsKeepPaidFlag() {
	r, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-01", "1", "1000"))
	s.Require().NoError(err)
	result, err := s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("1000"),
	})
	s.Require().NoError(err)
	s.True(s.paid(r.Transaction.ID))
	pid := result.Payments[0].ID

	_, err = s.repo.UpdatePayment(s.ctx, pid, domain.PaymentUpdate{AccountID: 1, Date: "2025-02-01", Amount: dec("1000.01")})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.repo.UpdatePayment(s.ctx, pid, domain.PaymentUpdate{AccountID: 2, Date: "2025-02-02", Amount: dec("400")})
	s.Require().NoError(err)
	s.False(s.paid(r.Transaction.ID))

	s.Require().NoError(s.repo.DeletePayments(s.ctx, []int64{pid, 9999}))
	payments, err := s.repo.ListPaymentsByTransaction(s.ctx, r.Transaction.ID)
	s.Require().NoError(err)
	s.Empty(payments)
	s.False(s.paid(r.Transaction.ID))
}

func (s *RepositoryTestSuite) TestDeleteRental_RemovesPayments() {
	r, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-01", "1", "1000"))
	s.Require().NoError(err)
	_, err = s.repo.AllocateGeneralPayment(s.ctx, domain.GeneralPaymentInput{
		ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-02-01", Amount: dec("300"),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.DeleteRental(s.ctx, r.Transaction.ID))
	s.Empty(s.docs.cols[database.TablePayments])
	s.Empty(s.docs.cols[database.TableRentalMeta])

	s.ErrorIs(s.repo.DeleteRental(s.ctx, r.Transaction.ID), apperrors.ErrNotFound)
}

func (s *RepositoryTestSuite) TestListRentals_FiltersOnClient() {
	_, err := s.repo.CreateRental(s.ctx, s.rental("2025-01-20", "2", "100"))
	s.Require().NoError(err)
	_, err = s.repo.CreateRental(s.ctx, s.rental("2025-01-10", "1", "100"))
	s.Require().NoError(err)
	_, err = s.repo.CreateTransaction(s.ctx, domain.TransactionInput{
		ProjectID: 1, AccountID: 1, CategoryID: 2, Kind: domain.Expense, Amount: dec("50"), Date: "2025-01-12",
	})
	s.Require().NoError(err)

	rentals, err := s.repo.ListRentals(s.ctx, 1, domain.RentalFilter{})
	s.Require().NoError(err)
	s.Require().Len(rentals, 2)
	s.Equal("2025-01-10", rentals[0].Date)

	rentals, err = s.repo.ListRentals(s.ctx, 1, domain.RentalFilter{DateRange: domain.DateRange{From: "2025-01-15"}, Text: "santiago"})
	s.Require().NoError(err)
	s.Len(rentals, 1)

	bounds, err := s.repo.DateBounds(s.ctx)
	s.Require().NoError(err)
	s.Equal(domain.DateBounds{MinDate: "2025-01-10", MaxDate: "2025-01-20"}, bounds)
}

func (s *RepositoryTestSuite) TestListing_TransientFailureIsEmpty() {
	s.docs.listErr = fmt.Errorf("list: %w", apperrors.ErrRateLimited)
	entities, err := s.repo.ListEntities(s.ctx, 1, domain.EntityClient, false)
	s.NoError(err)
	s.Empty(entities)

	s.docs.listErr = fmt.Errorf("list: %w", apperrors.ErrAuthFailed)
	_, err = s.repo.ListEntities(s.ctx, 1, domain.EntityClient, false)
	s.ErrorIs(err, apperrors.ErrAuthFailed)
}

func (s *RepositoryTestSuite) TestEntities_DuplicateAndDeactivate() {
	_, err := s.repo.CreateEntity(s.ctx, domain.EntityInput{ProjectID: 1, Kind: domain.EntityClient, Name: "Constructora Norte"})
	s.ErrorIs(err, apperrors.ErrDuplicate)

	// Same name with another kind is a different entity.
	op, err := s.repo.CreateEntity(s.ctx, domain.EntityInput{ProjectID: 1, Kind: domain.EntityOperator, Name: "Constructora Norte"})
	s.Require().NoError(err)
	s.Equal(int64(21), op.ID)

	s.Require().NoError(s.repo.DeactivateEntity(s.ctx, 10))
	clients, err := s.repo.ListEntities(s.ctx, 1, domain.EntityClient, false)
	s.Require().NoError(err)
	s.Empty(clients)
	clients, err = s.repo.ListEntities(s.ctx, 1, domain.EntityClient, true)
	s.Require().NoError(err)
	s.Len(clients, 1)

	s.ErrorIs(s.repo.DeactivateEntity(s.ctx, 404), apperrors.ErrNotFound)
}

func (s *RepositoryTestSuite) TestReadsCamelCaseDocuments() {
	s.docs.put(database.TableEquipment, "31", map[string]any{
		"projectId": int64(1), "name": "Pala Volvo", "maintenanceTriggerKind": "DAYS", "maintenanceTriggerValue": int64(90),
	})
	eq, err := s.repo.FindEquipmentByID(s.ctx, 31)
	s.Require().NoError(err)
	s.Require().NotNil(eq)
	s.Equal(int64(31), eq.ID)
	s.Equal(int64(1), eq.ProjectID)
	s.True(eq.Active)
	s.Equal(domain.TriggerDays, eq.MaintenanceTriggerKind)
	s.True(dec("90").Equal(eq.MaintenanceTriggerValue))

	updated, err := s.repo.UpdateEquipment(s.ctx, 31, domain.EquipmentInput{ProjectID: 1, Name: "Pala Volvo L90"})
	s.Require().NoError(err)
	s.Equal("Pala Volvo L90", updated.Name)
	s.NotContains(s.docs.cols[database.TableEquipment]["31"], "projectId")
}

func (s *RepositoryTestSuite) TestFleetStatusAndKPIs() {
	_, err := s.repo.CreateMaintenance(s.ctx, domain.MaintenanceInput{EquipmentID: 30, Date: "2025-01-01", Kind: "Preventivo"})
	s.Require().NoError(err)
	_, err = s.repo.CreateRental(s.ctx, s.rental("2025-01-10", "260", "10"))
	s.Require().NoError(err)

	status, err := s.repo.FleetStatus(s.ctx, 1, "2025-01-31")
	s.Require().NoError(err)
	s.Require().Len(status, 1)
	s.True(dec("260").Equal(status[0].UsageSinceLast))
	s.True(status[0].Due)

	kpis, err := s.repo.MonthlyKPIs(s.ctx, 1, 2025, 1)
	s.Require().NoError(err)
	s.Require().NotNil(kpis.TopEquipment)
	s.Equal(int64(30), kpis.TopEquipment.ID)
}

func (s *RepositoryTestSuite) TestVerifyConnection() {
	s.True(s.repo.VerifyConnection(s.ctx))
	s.docs.alive = false
	s.False(s.repo.VerifyConnection(s.ctx))
}

func TestRemoteRepository(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
