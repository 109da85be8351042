package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/repository/memory"
	"github.com/segyhp/loan-tracker/internal/repository/mocks"
	"github.com/segyhp/loan-tracker/internal/service"
	customError "github.com/segyhp/loan-tracker/pkg/errors"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

var settings = domain.Settings{
	DefaultInterestRate:     decimal.NewFromInt(5),
	DefaultPaymentFrequency: domain.FrequencyMonthly,
	DefaultInstallments:     12,
	Currency:                "BRL",
}

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	router *mux.Router
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore()
	svc := service.NewLoanService(store, settings,
		service.WithClock(func() time.Time { return testNow }),
		service.WithLogger(discardLogger()),
	)
	return &api{
		router: NewRouter(NewLoanHandler(svc, discardLogger()), NewHealthHandler(store, nil, time.Second), discardLogger()),
	}
}

func (a *api) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func (a *api) createBorrower(t *testing.T, name string) domain.Borrower {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/v1/borrowers", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var b domain.Borrower
	decodeData(t, env, &b)
	return b
}

func (a *api) createLoan(t *testing.T, borrowerID, issueDate string) domain.Loan {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/v1/loans", map[string]interface{}{
		"borrower_id": borrowerID,
		"principal":   "5000",
		"issue_date":  issueDate,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var loan domain.Loan
	decodeData(t, env, &loan)
	return loan
}

func TestLoanAPI_PaymentFlow(t *testing.T) {
	a := newAPI(t)
	b := a.createBorrower(t, "Ana")
	loan := a.createLoan(t, b.ID, "2024-05-01")

	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	require.NotNil(t, loan.PaymentSchedule)
	assert.Equal(t, "2024-06-01", loan.PaymentSchedule.NextPaymentDate)
	assert.Equal(t, "666.67", loan.PaymentSchedule.InstallmentAmount.StringFixed(2))

	status, env := a.do(t, http.MethodPost, "/api/v1/loans/"+loan.ID+"/refresh", nil)
	require.Equal(t, http.StatusOK, status)
	var refreshed domain.Loan
	decodeData(t, env, &refreshed)
	assert.Equal(t, domain.LoanStatusOverdue, refreshed.Status)

	status, env = a.do(t, http.MethodPost, "/api/v1/loans/"+loan.ID+"/payments", map[string]interface{}{
		"amount":           "666.67",
		"date":             "2024-06-10",
		"installment_paid": true,
		"advance_schedule": true,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var recorded domain.RecordPaymentResponse
	decodeData(t, env, &recorded)
	assert.Equal(t, "416.67", recorded.Payment.Principal.StringFixed(2))
	assert.Equal(t, "250.00", recorded.Payment.Interest.StringFixed(2))
	assert.Equal(t, domain.LoanStatusPaid, recorded.Loan.Status)
	assert.Equal(t, "2024-07-01", recorded.Loan.PaymentSchedule.NextPaymentDate)

	status, env = a.do(t, http.MethodGet, "/api/v1/loans/"+loan.ID+"/outstanding", nil)
	require.Equal(t, http.StatusOK, status)
	var outstanding domain.OutstandingResponse
	decodeData(t, env, &outstanding)
	assert.Equal(t, "7333.33", outstanding.Outstanding.StringFixed(2))

	status, env = a.do(t, http.MethodGet, "/api/v1/loans/"+loan.ID+"/payments", nil)
	require.Equal(t, http.StatusOK, status)
	var payments []domain.Payment
	decodeData(t, env, &payments)
	require.Len(t, payments, 1)
	assert.Contains(t, payments[0].Notes, domain.InstallmentPaidMarker)

	status, env = a.do(t, http.MethodGet, "/api/v1/loans/"+loan.ID+"/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	var m domain.LoanMetrics
	decodeData(t, env, &m)
	assert.Equal(t, "250.00", m.TotalInterest.StringFixed(2))

	status, _ = a.do(t, http.MethodDelete, "/api/v1/payments/"+payments[0].ID, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestLoanAPI_Errors(t *testing.T) {
	a := newAPI(t)
	b := a.createBorrower(t, "Ana")
	loan := a.createLoan(t, b.ID, "2024-06-01")

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "missing principal",
			method:     http.MethodPost,
			path:       "/api/v1/loans",
			body:       map[string]string{"borrower_id": b.ID},
			wantStatus: http.StatusBadRequest,
			wantCode:   customError.ErrCodeInvalidRequest,
			wantMsg:    "principal is required",
		},
		{
			name:       "malformed issue date",
			method:     http.MethodPost,
			path:       "/api/v1/loans",
			body:       map[string]string{"borrower_id": b.ID, "principal": "100", "issue_date": "10/06/2024"},
			wantStatus: http.StatusBadRequest,
			wantCode:   customError.ErrCodeInvalidRequest,
			wantMsg:    "issue_date must be a YYYY-MM-DD date",
		},
		{
			name:       "unknown borrower",
			method:     http.MethodPost,
			path:       "/api/v1/loans",
			body:       map[string]string{"borrower_id": "ghost", "principal": "100"},
			wantStatus: http.StatusNotFound,
			wantCode:   customError.ErrCodeBorrowerNotFound,
		},
		{
			name:       "unknown loan",
			method:     http.MethodGet,
			path:       "/api/v1/loans/ghost",
			wantStatus: http.StatusNotFound,
			wantCode:   customError.ErrCodeLoanNotFound,
		},
		{
			name:       "archive unpaid loan",
			method:     http.MethodPost,
			path:       "/api/v1/loans/" + loan.ID + "/archive",
			wantStatus: http.StatusConflict,
			wantCode:   customError.ErrCodeLoanNotPaid,
		},
		{
			name:       "delete borrower with loans",
			method:     http.MethodDelete,
			path:       "/api/v1/borrowers/" + b.ID,
			wantStatus: http.StatusConflict,
			wantCode:   customError.ErrCodeBorrowerHasLoans,
		},
		{
			name:       "split does not add up",
			method:     http.MethodPost,
			path:       "/api/v1/loans/" + loan.ID + "/payments",
			body:       map[string]string{"amount": "100", "principal": "70", "interest": "20"},
			wantStatus: http.StatusBadRequest,
			wantCode:   customError.ErrCodeInvalidAllocation,
		},
		{
			name:       "non-numeric allocation amount",
			method:     http.MethodGet,
			path:       "/api/v1/loans/" + loan.ID + "/allocation?amount=abc",
			wantStatus: http.StatusBadRequest,
			wantCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name:       "negative look-ahead",
			method:     http.MethodGet,
			path:       "/api/v1/metrics/upcoming?days=-1",
			wantStatus: http.StatusBadRequest,
			wantCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name:       "unknown status filter",
			method:     http.MethodGet,
			path:       "/api/v1/loans?status=lost",
			wantStatus: http.StatusBadRequest,
			wantCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name:       "archived status is rejected on update",
			method:     http.MethodPut,
			path:       "/api/v1/loans/" + loan.ID,
			body:       map[string]string{"status": "archived"},
			wantStatus: http.StatusBadRequest,
			wantCode:   customError.ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := a.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, env.Message)
			}
		})
	}
}

func TestLoanAPI_InvalidJSON(t *testing.T) {
	a := newAPI(t)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/borrowers", bytes.NewBufferString("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBorrowerAPI(t *testing.T) {
	a := newAPI(t)
	b := a.createBorrower(t, "Ana")

	status, env := a.do(t, http.MethodPatch, "/api/v1/borrowers/"+b.ID, map[string]string{"phone": "+55 11 99999-0000"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var updated domain.Borrower
	decodeData(t, env, &updated)
	assert.Equal(t, "+55 11 99999-0000", updated.Phone)

	status, env = a.do(t, http.MethodGet, "/api/v1/borrowers", nil)
	require.Equal(t, http.StatusOK, status)
	var list []domain.Borrower
	decodeData(t, env, &list)
	assert.Len(t, list, 1)

	status, _ = a.do(t, http.MethodDelete, "/api/v1/borrowers/"+b.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = a.do(t, http.MethodGet, "/api/v1/borrowers/"+b.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, customError.ErrCodeBorrowerNotFound, env.Code)
}

func TestMetricsAPI(t *testing.T) {
	a := newAPI(t)
	b := a.createBorrower(t, "Ana")
	a.createLoan(t, b.ID, "2024-06-01")
	soon := a.createLoan(t, b.ID, "2024-05-15")

	status, env := a.do(t, http.MethodPost, "/api/v1/statuses/refresh", nil)
	require.Equal(t, http.StatusOK, status)
	var sweep map[string]int
	decodeData(t, env, &sweep)
	assert.Equal(t, 1, sweep["updated"])

	status, env = a.do(t, http.MethodGet, "/api/v1/metrics/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	var dash domain.DashboardMetrics
	decodeData(t, env, &dash)
	assert.Equal(t, "10000", dash.TotalLoaned.String())
	assert.Equal(t, 1, dash.PendingLoanCount)
	assert.Equal(t, 1, dash.TotalBorrowers)

	status, env = a.do(t, http.MethodGet, "/api/v1/metrics/upcoming", nil)
	require.Equal(t, http.StatusOK, status)
	var upcoming []domain.Loan
	decodeData(t, env, &upcoming)
	require.Len(t, upcoming, 1)
	assert.Equal(t, soon.ID, upcoming[0].ID)

	status, env = a.do(t, http.MethodGet, "/api/v1/loans/"+soon.ID+"/allocation?amount=800", nil)
	require.Equal(t, http.StatusOK, status)
	var preview domain.AllocationResponse
	decodeData(t, env, &preview)
	assert.Equal(t, "500.00", preview.Allocation.Principal.StringFixed(2))

	status, env = a.do(t, http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, status)
	var got domain.Settings
	decodeData(t, env, &got)
	assert.Equal(t, "BRL", got.Currency)
	assert.Equal(t, 12, got.DefaultInstallments)
}

func TestLoanAPI_DatabaseFailureIsHidden(t *testing.T) {
	store := mocks.NewMockStore()
	store.LoanRepo.On("GetByID", mock.Anything, "loan-1").Return(nil, errors.New("connection refused"))

	svc := service.NewLoanService(store, settings, service.WithLogger(discardLogger()))
	router := NewRouter(NewLoanHandler(svc, discardLogger()), NewHealthHandler(store, nil, time.Second), discardLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/loans/loan-1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, customError.ErrCodeDatabaseError, decodeCode(t, rec))
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Code
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	tests := []struct {
		name       string
		store      Pinger
		cache      Pinger
		wantStatus int
		wantChecks map[string]string
	}{
		{name: "database only", store: ok, wantStatus: http.StatusOK, wantChecks: map[string]string{"database": "ok"}},
		{name: "with cache", store: ok, cache: ok, wantStatus: http.StatusOK, wantChecks: map[string]string{"database": "ok", "redis": "ok"}},
		{
			name:       "cache down",
			store:      ok,
			cache:      down,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "ok", "redis": "failed: dial tcp: refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.store, tt.cache, time.Second)
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var env envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			var status HealthStatus
			decodeData(t, env, &status)
			assert.Equal(t, tt.wantChecks, status.Checks)
		})
	}

	rec := httptest.NewRecorder()
	NewHealthHandler(ok, nil, 0).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
