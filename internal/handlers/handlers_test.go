package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/dto"
	"github.com/SscSPs/rental_backoffice_app/internal/handlers"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/SscSPs/rental_backoffice_app/internal/platform/config"
	"github.com/SscSPs/rental_backoffice_app/internal/worker"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock Repository ---
// Only the methods the tests reach are implemented; anything else panics through the nil embedded interface.
type MockRepository struct {
	mock.Mock
	portsrepo.Repository
}

func (m *MockRepository) Backend() portsrepo.Backend { return portsrepo.BackendLocal }

func (m *MockRepository) VerifyConnection(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockRepository) CreateProject(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockRepository) FindProjectByID(ctx context.Context, projectID int64) (*domain.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockRepository) ListRentals(ctx context.Context, projectID int64, filter domain.RentalFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockRepository) FindRentalDetail(ctx context.Context, transactionID string) (*domain.RentalDetail, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalDetail), args.Error(1)
}

func (m *MockRepository) AllocateGeneralPayment(ctx context.Context, in domain.GeneralPaymentInput) (*domain.AllocationResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationResult), args.Error(1)
}

func (m *MockRepository) ClientOutstanding(ctx context.Context, projectID, clientID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, projectID, clientID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) DeletePayments(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockRepository) MonthlyKPIs(ctx context.Context, projectID int64, year int, month time.Month) (*domain.DashboardKPIs, error) {
	args := m.Called(ctx, projectID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardKPIs), args.Error(1)
}

// --- Mock RepositorySvc ---
type MockRepositorySvc struct {
	mock.Mock
	repo *MockRepository
}

func (m *MockRepositorySvc) Current() portsrepo.Repository { return m.repo }

func (m *MockRepositorySvc) Cached(ctx context.Context, collection string) ([]map[string]any, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]any), args.Error(1)
}

func (m *MockRepositorySvc) DateBounds(ctx context.Context) (domain.DateBounds, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.DateBounds), args.Error(1)
}

var _ portssvc.RepositorySvc = (*MockRepositorySvc)(nil)

// --- Mock JobSvc ---
type MockJobService struct {
	mock.Mock
	worker *worker.Worker
}

func (m *MockJobService) StartMigration(req domain.MigrationRequest) error {
	return m.Called(req).Error(0)
}
func (m *MockJobService) StartSync() error { return m.Called().Error(0) }
func (m *MockJobService) StartBackup(folder string) error { return m.Called(folder).Error(0) }
func (m *MockJobService) Stop() bool { return m.Called().Bool(0) }
func (m *MockJobService) Status() worker.Status { return m.Called().Get(0).(worker.Status) }
func (m *MockJobService) Worker() *worker.Worker { return m.worker }

var _ portssvc.JobSvcFacade = (*MockJobService)(nil)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
	repo   *MockRepository
	repos  *MockRepositorySvc
	jobs   *MockJobService
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	suite.repo = new(MockRepository)
	suite.repos = &MockRepositorySvc{repo: suite.repo}
	suite.jobs = &MockJobService{worker: worker.New(logger)}

	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(logger))
	handlers.RegisterRoutes(suite.router, &config.Config{IsProduction: true}, &portssvc.ServiceContainer{
		Repos: suite.repos,
		Jobs:  suite.jobs,
	})
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.repo.AssertExpectations(suite.T())
	suite.repos.AssertExpectations(suite.T())
	suite.jobs.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v))
}

// --- Test Cases ---

func (suite *HandlerTestSuite) TestHealth() {
	suite.repo.On("VerifyConnection", mock.Anything).Return(true).Once()
	w := suite.do(http.MethodGet, "/health", nil)
	suite.Equal(http.StatusOK, w.Code)
	var resp dto.HealthResponse
	suite.decode(w, &resp)
	suite.Equal("local", resp.Backend)
	suite.True(resp.Healthy)

	suite.repo.On("VerifyConnection", mock.Anything).Return(false).Once()
	w = suite.do(http.MethodGet, "/health", nil)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *HandlerTestSuite) TestCreateProject() {
	suite.repo.On("CreateProject", mock.Anything, mock.MatchedBy(func(in domain.ProjectInput) bool {
		return in.Name == "Obra Norte"
	})).Return(&domain.Project{ID: 2, Name: "Obra Norte", Currency: domain.DefaultCurrency}, nil)

	w := suite.do(http.MethodPost, "/api/v1/projects", map[string]any{"name": "Obra Norte"})
	suite.Equal(http.StatusCreated, w.Code)
	var p domain.Project
	suite.decode(w, &p)
	suite.Equal(int64(2), p.ID)
}

func (suite *HandlerTestSuite) TestCreateProject_BadRequest() {
	w := suite.do(http.MethodPost, "/api/v1/projects", "{not json")
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/projects", map[string]any{"description": "no name"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCreateProject_Duplicate() {
	suite.repo.On("CreateProject", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrDuplicate)
	w := suite.do(http.MethodPost, "/api/v1/projects", map[string]any{"name": "Obra Norte"})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestGetProject() {
	suite.repo.On("FindProjectByID", mock.Anything, int64(9)).Return(nil, nil)
	w := suite.do(http.MethodGet, "/api/v1/projects/9", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/projects/abc", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListEntities_RejectsUnknownKind() {
	w := suite.do(http.MethodGet, "/api/v1/projects/1/entities?kind=Vendor", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListRentals_Pages() {
	rentals := []domain.Transaction{
		{ID: strings.Repeat("a", 32), Date: "2025-01-01", Kind: domain.Income},
		{ID: strings.Repeat("b", 32), Date: "2025-01-02", Kind: domain.Income},
		{ID: strings.Repeat("c", 32), Date: "2025-01-03", Kind: domain.Income},
	}
	suite.repo.On("ListRentals", mock.Anything, int64(1), mock.MatchedBy(func(f domain.RentalFilter) bool {
		return f.ClientID == 5 && f.From == "2025-01-01" && f.Text == "norte"
	})).Return(rentals, nil).Twice()

	w := suite.do(http.MethodGet, "/api/v1/projects/1/rentals?client_id=5&from=2025-01-01&q=norte&limit=2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page dto.ListResponse[domain.Transaction]
	suite.decode(w, &page)
	suite.Len(page.Items, 2)
	suite.Require().NotEmpty(page.NextToken)

	w = suite.do(http.MethodGet, "/api/v1/projects/1/rentals?client_id=5&from=2025-01-01&q=norte&limit=2&nextToken="+page.NextToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var last dto.ListResponse[domain.Transaction]
	suite.decode(w, &last)
	suite.Require().Len(last.Items, 1)
	suite.Equal(rentals[2].ID, last.Items[0].ID)
	suite.Empty(last.NextToken)
}

func (suite *HandlerTestSuite) TestListRentals_InvalidDate() {
	w := suite.do(http.MethodGet, "/api/v1/projects/1/rentals?from=15/01/2025", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetRental() {
	w := suite.do(http.MethodGet, "/api/v1/rentals/not-an-id", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	id := strings.Repeat("f", 32)
	suite.repo.On("FindRentalDetail", mock.Anything, id).Return(nil, nil)
	w = suite.do(http.MethodGet, "/api/v1/rentals/"+id, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestAllocateGeneralPayment() {
	suite.repo.On("AllocateGeneralPayment", mock.Anything, mock.MatchedBy(func(in domain.GeneralPaymentInput) bool {
		return in.ProjectID == 1 && in.ClientID == 5 && in.Amount.Equal(decimal.NewFromInt(1500))
	})).Return(&domain.AllocationResult{
		Payments:  []domain.Payment{{ID: 1, Amount: decimal.NewFromInt(1000)}, {ID: 2, Amount: decimal.NewFromInt(500)}},
		Applied:   decimal.NewFromInt(1500),
		Unapplied: decimal.Zero,
	}, nil)

	w := suite.do(http.MethodPost, "/api/v1/projects/1/payments", map[string]any{
		"clientId": 5, "accountId": 1, "date": "2025-02-01", "amount": "1500",
	})
	suite.Equal(http.StatusCreated, w.Code)
	var res domain.AllocationResult
	suite.decode(w, &res)
	suite.Len(res.Payments, 2)
}

func (suite *HandlerTestSuite) TestAllocateGeneralPayment_NothingOwed() {
	suite.repo.On("AllocateGeneralPayment", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNoOutstanding)
	w := suite.do(http.MethodPost, "/api/v1/projects/1/payments", map[string]any{
		"clientId": 5, "accountId": 1, "date": "2025-02-01", "amount": "100",
	})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlerTestSuite) TestClientOutstanding() {
	suite.repo.On("ClientOutstanding", mock.Anything, int64(1), int64(5)).Return(decimal.RequireFromString("15600"), nil)
	suite.repo.On("FindProjectByID", mock.Anything, int64(1)).Return(&domain.Project{ID: 1, Currency: "US$"}, nil)

	w := suite.do(http.MethodGet, "/api/v1/projects/1/clients/5/outstanding", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp dto.OutstandingResponse
	suite.decode(w, &resp)
	suite.Equal("US$ 15,600.00", resp.Display)
	suite.True(decimal.NewFromInt(15600).Equal(resp.Outstanding))
}

func (suite *HandlerTestSuite) TestDeletePayments() {
	suite.repo.On("DeletePayments", mock.Anything, []int64{3, 4}).Return(nil)
	w := suite.do(http.MethodDelete, "/api/v1/payments", dto.DeletePaymentsRequest{IDs: []int64{3, 4}})
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodDelete, "/api/v1/payments", map[string]any{"ids": []int64{}})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestMonthlyKPIs() {
	suite.repo.On("MonthlyKPIs", mock.Anything, int64(1), 2025, time.January).
		Return(&domain.DashboardKPIs{Year: 2025, Month: 1, Income: decimal.NewFromInt(4000)}, nil)
	w := suite.do(http.MethodGet, "/api/v1/projects/1/kpis?year=2025&month=1", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/projects/1/kpis?year=2025&month=13", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestDateBoundsAndCache() {
	suite.repos.On("DateBounds", mock.Anything).Return(domain.DateBounds{MinDate: "2024-03-01", MaxDate: "2025-02-03"}, nil)
	w := suite.do(http.MethodGet, "/api/v1/transactions/bounds", nil)
	suite.Equal(http.StatusOK, w.Code)
	var bounds domain.DateBounds
	suite.decode(w, &bounds)
	suite.Equal("2024-03-01", bounds.MinDate)

	suite.repos.On("Cached", mock.Anything, "equipment").Return([]map[string]any{{"id": 1, "name": "Retro"}}, nil)
	w = suite.do(http.MethodGet, "/api/v1/cache/equipment", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Retro")

	suite.repos.On("Cached", mock.Anything, "sqlite_master").Return(nil, apperrors.NewNotFoundError("collection sqlite_master"))
	w = suite.do(http.MethodGet, "/api/v1/cache/sqlite_master", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestJobs() {
	suite.jobs.On("StartMigration", mock.MatchedBy(func(req domain.MigrationRequest) bool {
		return req.DryRun && len(req.Tables) == 1 && req.Tables[0] == "equipos"
	})).Return(nil)
	w := suite.do(http.MethodPost, "/api/v1/jobs/migrate", dto.MigrateJobRequest{DryRun: true, Tables: []string{" equipos ", ""}})
	suite.Equal(http.StatusAccepted, w.Code)

	suite.jobs.On("StartSync").Return(worker.ErrBusy)
	w = suite.do(http.MethodPost, "/api/v1/jobs/sync", nil)
	suite.Equal(http.StatusConflict, w.Code)

	suite.jobs.On("StartBackup", "").Return(nil)
	w = suite.do(http.MethodPost, "/api/v1/jobs/backup", nil)
	suite.Equal(http.StatusAccepted, w.Code)

	suite.jobs.On("Stop").Return(false)
	w = suite.do(http.MethodPost, "/api/v1/jobs/stop", nil)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestProgressStream() {
	suite.jobs.On("Status").Return(worker.Status{Job: "sync", Message: "idle"})
	srv := httptest.NewServer(suite.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/progress", nil)
	suite.Require().NoError(err)
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	suite.Require().NoError(err)
	var status worker.Status
	suite.Require().NoError(json.Unmarshal(data, &status))
	suite.Equal("idle", status.Message)

	err = suite.jobs.worker.Start("backup", func(ctx context.Context, progress worker.ProgressFunc, shouldStop func() bool) (string, error) {
		progress(50, "halfway")
		return "done", nil
	}, nil, nil)
	suite.Require().NoError(err)

	for {
		_, data, err := conn.Read(ctx)
		suite.Require().NoError(err)
		var ev worker.Event
		suite.Require().NoError(json.Unmarshal(data, &ev))
		if ev.Kind == worker.EventDone {
			suite.True(ev.Success)
			suite.Equal("backup", ev.Job)
			break
		}
	}
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
