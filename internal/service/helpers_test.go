package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/repository"
	"github.com/segyhp/loan-tracker/internal/repository/memory"
	customError "github.com/segyhp/loan-tracker/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

var testSettings = domain.Settings{
	DefaultInterestRate:     decimal.NewFromInt(5),
	DefaultPaymentFrequency: domain.FrequencyMonthly,
	DefaultInstallments:     12,
	Currency:                "BRL",
}

type fixture struct {
	svc   *LoanService
	store *memory.Store
	clock *fakeClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &fakeClock{now: testNow}

	opts = append([]Option{
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	return &fixture{
		svc:   NewLoanService(store, testSettings, opts...),
		store: store,
		clock: clock,
	}
}

func (f *fixture) borrower(t *testing.T, name string) *domain.Borrower {
	t.Helper()
	b, err := f.svc.CreateBorrower(context.Background(), &domain.CreateBorrowerRequest{Name: name})
	require.NoError(t, err)
	return b
}

// loan creates a 5000 at 5% monthly over 12 installments loan issued on issueDate.
func (f *fixture) loan(t *testing.T, borrowerID, issueDate string) *domain.Loan {
	t.Helper()
	loan, err := f.svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		BorrowerID: borrowerID,
		Principal:  decimal.NewFromInt(5000),
		IssueDate:  issueDate,
	})
	require.NoError(t, err)
	return loan
}

func (f *fixture) storedLoan(t *testing.T, id string) *domain.Loan {
	t.Helper()
	loan, err := f.store.Loans().GetByID(context.Background(), id)
	require.NoError(t, err)
	return loan
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, customError.Code(err), "error: %v", err)
}

type fakeCache struct {
	cached        *domain.DashboardMetrics
	stores        int
	invalidations int
}

func (c *fakeCache) Dashboard(context.Context) (*domain.DashboardMetrics, bool, error) {
	if c.cached == nil {
		return nil, false, nil
	}
	return c.cached, true, nil
}

func (c *fakeCache) StoreDashboard(_ context.Context, m *domain.DashboardMetrics) error {
	c.stores++
	c.cached = m
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidations++
	c.cached = nil
	return nil
}

var _ repository.Store = (*memory.Store)(nil)
