package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/engine"
	"github.com/segyhp/loan-tracker/internal/repository"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/utils"

	"github.com/google/uuid"
)

// MetricsCache caches the dashboard aggregate. A nil cache disables caching.
type MetricsCache interface {
	Dashboard(ctx context.Context) (*domain.DashboardMetrics, bool, error)
	StoreDashboard(ctx context.Context, metrics *domain.DashboardMetrics) error
	Invalidate(ctx context.Context) error
}

// LoanService owns the repositories and re-runs the lifecycle engine after every
// mutation. Writes are serialized; reads go straight to the store.
type LoanService struct {
	store    repository.Store
	cache    MetricsCache
	settings domain.Settings
	logger   *slog.Logger
	now      func() time.Time
	loc      *time.Location

	mu sync.Mutex
}

type Option func(*LoanService)

// WithCache enables the dashboard metrics cache.
func WithCache(c MetricsCache) Option {
	return func(s *LoanService) { s.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *LoanService) { s.logger = l }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *LoanService) { s.now = now }
}

// WithLocation sets the zone calendar dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *LoanService) { s.loc = loc }
}

func NewLoanService(store repository.Store, settings domain.Settings, opts ...Option) *LoanService {
	s := &LoanService{
		store:    store,
		settings: settings,
		logger:   slog.Default(),
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LoanService) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *LoanService) today() string {
	return utils.FormatDate(s.clock())
}

func (s *LoanService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidating metrics cache", "error", customError.WrapCacheError(err))
	}
}

// deriveStatus re-runs the status engine on loan. Archived loans are never touched.
func (s *LoanService) deriveStatus(loan *domain.Loan, payments []*domain.Payment, now time.Time) engine.Assessment {
	if loan.Status == domain.LoanStatusArchived {
		return engine.Assessment{Status: loan.Status}
	}

	a := engine.Assess(loan, payments, now)
	if a.DateErr != nil {
		s.logger.Warn("loan has no usable reference date", "loan_id", loan.ID, "date", a.ReferenceDate, "error", a.DateErr)
	}
	loan.Status = a.Status
	return a
}

func loanError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return customError.WrapLoanNotFound(id)
	}
	return customError.WrapDatabaseError(err)
}

func (s *LoanService) getLoan(ctx context.Context, id string) (*domain.Loan, error) {
	loan, err := s.store.Loans().GetByID(ctx, id)
	if err != nil {
		return nil, loanError(err, id)
	}
	return loan, nil
}

func (s *LoanService) loanPayments(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	payments, err := s.store.Payments().GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// CreateLoan creates a new active loan, filling unset terms from the settings.
func (s *LoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	borrower, err := s.store.Borrowers().GetByID(ctx, request.BorrowerID)
	if err != nil {
		return nil, borrowerError(err, request.BorrowerID)
	}

	rate := s.settings.DefaultInterestRate
	if request.InterestRate != nil {
		rate = *request.InterestRate
	}
	frequency := s.settings.DefaultPaymentFrequency
	if request.Frequency != "" {
		frequency = request.Frequency
	}
	installments := s.settings.DefaultInstallments
	if request.Installments > 0 {
		installments = request.Installments
	}

	issueDate := request.IssueDate
	if issueDate == "" {
		issueDate = s.today()
	}
	issue, err := utils.ParseDate(issueDate, s.loc)
	if err != nil {
		return nil, customError.WrapInvalidRequest("issue_date is not a valid date", err)
	}

	dueDate := request.DueDate
	if dueDate == "" {
		dueDate = utils.FormatDate(engine.TermEndDate(issue, frequency, installments))
	}
	if err := checkTerm(issueDate, dueDate, s.loc); err != nil {
		return nil, err
	}

	now := s.clock()
	loan := &domain.Loan{
		ID:           uuid.NewString(),
		BorrowerID:   borrower.ID,
		BorrowerName: borrower.Name,
		Principal:    request.Principal,
		InterestRate: rate,
		IssueDate:    issueDate,
		DueDate:      dueDate,
		Status:       domain.LoanStatusActive,
		Notes:        request.Notes,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}

	if !request.WithoutSchedule {
		first := engine.FirstPaymentDate(issue)
		if request.NextPaymentDate != "" {
			if first, err = utils.ParseDate(request.NextPaymentDate, s.loc); err != nil {
				return nil, customError.WrapInvalidRequest("next_payment_date is not a valid date", err)
			}
		}
		loan.PaymentSchedule = &domain.PaymentSchedule{
			Frequency:       frequency,
			NextPaymentDate: utils.FormatDate(first),
			Installments:    installments,
			AnchorDay:       first.Day(),
		}
		loan.PaymentSchedule.InstallmentAmount = engine.InstallmentAmount(loan)
	}

	if err := s.store.Loans().Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	s.invalidate(ctx)

	s.logger.Info("loan created", "loan_id", loan.ID, "borrower_id", loan.BorrowerID, "principal", loan.Principal.String())
	return loan, nil
}

func checkTerm(issueDate, dueDate string, loc *time.Location) error {
	issue, err := utils.ParseDate(issueDate, loc)
	if err != nil {
		return customError.WrapInvalidRequest("issue_date is not a valid date", err)
	}
	due, err := utils.ParseDate(dueDate, loc)
	if err != nil {
		return customError.WrapInvalidRequest("due_date is not a valid date", err)
	}
	if due.Before(issue) {
		return customError.WrapInvalidRequest("due_date must not be before issue_date", nil)
	}
	return nil
}

// GetLoan returns a single loan
func (s *LoanService) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	return s.getLoan(ctx, id)
}

// ListLoans returns loans matching filter
func (s *LoanService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, customError.WrapInvalidRequest("unknown status "+string(filter.Status), customError.ErrInvalidStatusValue)
	}
	loans, err := s.store.Loans().List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// UpdateLoan applies a partial update and re-derives the status. A requested "paid" is
// dropped unless RecomputeStatus is set; "archived" is refused. Any other explicit
// status is kept as a manual override.
func (s *LoanService) UpdateLoan(ctx context.Context, id string, request *domain.UpdateLoanRequest) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.getLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanStatusArchived {
		return nil, customError.WrapLoanArchived(id)
	}

	if request.BorrowerID != nil && *request.BorrowerID != loan.BorrowerID {
		borrower, err := s.store.Borrowers().GetByID(ctx, *request.BorrowerID)
		if err != nil {
			return nil, borrowerError(err, *request.BorrowerID)
		}
		loan.BorrowerID = borrower.ID
		loan.BorrowerName = borrower.Name
	}

	termsChanged := false
	if request.Principal != nil {
		loan.Principal = *request.Principal
		termsChanged = true
	}
	if request.InterestRate != nil {
		loan.InterestRate = *request.InterestRate
		termsChanged = true
	}
	if request.IssueDate != nil {
		loan.IssueDate = *request.IssueDate
	}
	if request.DueDate != nil {
		loan.DueDate = *request.DueDate
	}
	if request.Notes != nil {
		loan.Notes = *request.Notes
	}
	if err := checkTerm(loan.IssueDate, loan.DueDate, s.loc); err != nil {
		return nil, err
	}

	if sched := request.PaymentSchedule; sched != nil {
		if !sched.Frequency.Valid() {
			return nil, customError.WrapInvalidRequest("unknown payment frequency "+string(sched.Frequency), nil)
		}
		if sched.Installments < 0 {
			return nil, customError.WrapInvalidRequest("installments must not be negative", nil)
		}
		if sched.AnchorDay < 0 || sched.AnchorDay > 31 {
			return nil, customError.WrapInvalidRequest("anchor_day must be between 1 and 31", nil)
		}
		next := *sched
		if next.PaidInstallments == nil && loan.PaymentSchedule != nil {
			next.PaidInstallments = loan.PaymentSchedule.PaidInstallments
		}
		if next.AnchorDay == 0 {
			if prev := loan.PaymentSchedule; prev != nil && prev.NextPaymentDate == next.NextPaymentDate {
				next.AnchorDay = prev.AnchorDay
			} else if d, err := utils.ParseDate(next.NextPaymentDate, s.loc); err == nil {
				next.AnchorDay = d.Day()
			}
		}
		loan.PaymentSchedule = &next
		if !next.InstallmentAmount.IsPositive() {
			termsChanged = true
		}
	}
	if termsChanged && loan.PaymentSchedule != nil {
		loan.PaymentSchedule.InstallmentAmount = engine.InstallmentAmount(loan)
	}

	manual := request.Status != nil && !request.RecomputeStatus
	if request.Status != nil {
		switch status := *request.Status; {
		case !status.Valid():
			return nil, customError.WrapInvalidRequest("unknown status "+string(status), customError.ErrInvalidStatusValue)
		case status == domain.LoanStatusArchived:
			return nil, customError.WrapInvalidRequest("loans are archived through the archive operation", nil)
		case status == domain.LoanStatusPaid && !request.RecomputeStatus:
			s.logger.Debug("ignoring manual paid status", "loan_id", id)
			manual = false
		}
	}

	if manual {
		loan.Status = *request.Status
	} else {
		payments, err := s.loanPayments(ctx, id)
		if err != nil {
			return nil, err
		}
		s.deriveStatus(loan, payments, s.clock())
	}

	loan.UpdatedAt = s.clock().UTC()
	if err := s.store.Loans().Update(ctx, loan); err != nil {
		return nil, loanError(err, id)
	}
	s.invalidate(ctx)

	return loan, nil
}

// DeleteLoan removes a loan and all of its payments
func (s *LoanService) DeleteLoan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Loans().Delete(ctx, id); err != nil {
		return loanError(err, id)
	}
	s.invalidate(ctx)

	s.logger.Info("loan deleted", "loan_id", id)
	return nil
}

// ArchiveLoan moves a paid loan into the terminal archived state
func (s *LoanService) ArchiveLoan(ctx context.Context, id string) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.getLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanStatusArchived {
		return loan, nil
	}
	if !engine.CanArchive(loan) {
		return nil, customError.WrapLoanNotPaid(id, string(loan.Status))
	}

	loan.Status = domain.LoanStatusArchived
	loan.UpdatedAt = s.clock().UTC()
	if err := s.store.Loans().Update(ctx, loan); err != nil {
		return nil, loanError(err, id)
	}
	s.invalidate(ctx)

	s.logger.Info("loan archived", "loan_id", id)
	return loan, nil
}

// GetOutstanding returns what is still owed on a loan
func (s *LoanService) GetOutstanding(ctx context.Context, id string) (*domain.OutstandingResponse, error) {
	loan, err := s.getLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.loanPayments(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.OutstandingResponse{
		LoanID:      id,
		Outstanding: engine.RemainingBalance(loan, payments),
	}, nil
}

// GetSchedule returns the payment schedule for a loan
func (s *LoanService) GetSchedule(ctx context.Context, id string) (*domain.ScheduleResponse, error) {
	loan, err := s.getLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ScheduleResponse{LoanID: id, Schedule: loan.PaymentSchedule}, nil
}

// RefreshStatus re-derives one loan's status as of now and persists it when it changed.
func (s *LoanService) RefreshStatus(ctx context.Context, id string) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.getLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.loanPayments(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := s.refresh(ctx, loan, payments, s.clock())
	if err != nil {
		return nil, err
	}
	if changed {
		s.invalidate(ctx)
	}
	return loan, nil
}

// RefreshAllStatuses recomputes every non-archived loan as time passes and returns how
// many changed.
func (s *LoanService) RefreshAllStatuses(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loans, err := s.store.Loans().List(ctx, domain.LoanFilter{})
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	payments, err := s.store.Payments().List(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	byLoan := make(map[string][]*domain.Payment)
	for _, p := range payments {
		byLoan[p.LoanID] = append(byLoan[p.LoanID], p)
	}

	now := s.clock()
	updated := 0
	for _, loan := range loans {
		changed, err := s.refresh(ctx, loan, byLoan[loan.ID], now)
		if err != nil {
			return updated, err
		}
		if changed {
			updated++
		}
	}

	if updated > 0 {
		s.invalidate(ctx)
	}
	s.logger.Info("status sweep finished", "loans", len(loans), "updated", updated)
	return updated, nil
}

func (s *LoanService) refresh(ctx context.Context, loan *domain.Loan, payments []*domain.Payment, now time.Time) (bool, error) {
	if loan.Status == domain.LoanStatusArchived {
		return false, nil
	}

	before := loan.Status
	s.deriveStatus(loan, payments, now)
	if loan.Status == before {
		return false, nil
	}

	loan.UpdatedAt = now.UTC()
	if err := s.store.Loans().Update(ctx, loan); err != nil {
		return false, loanError(err, loan.ID)
	}
	s.logger.Info("loan status changed", "loan_id", loan.ID, "from", before, "to", loan.Status)
	return true, nil
}
