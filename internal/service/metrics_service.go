package service

import (
	"context"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/engine"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
)

// DefaultUpcomingDays is the look-ahead used when a caller does not pick one.
const DefaultUpcomingDays = 7

// DashboardMetrics returns the portfolio totals, served from the cache when possible.
func (s *LoanService) DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Dashboard(ctx)
		if err != nil {
			s.logger.Warn("reading metrics cache", "error", customError.WrapCacheError(err))
		}
		if ok {
			return cached, nil
		}
	}

	loans, err := s.store.Loans().List(ctx, domain.LoanFilter{})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	payments, err := s.store.Payments().List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	metrics := engine.AggregateMetrics(loans, payments, s.clock())

	// Borrowers without loans still count.
	borrowers, err := s.store.Borrowers().Count(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	metrics.TotalBorrowers = borrowers

	if s.cache != nil {
		if err := s.cache.StoreDashboard(ctx, &metrics); err != nil {
			s.logger.Warn("writing metrics cache", "error", customError.WrapCacheError(err))
		}
	}

	return &metrics, nil
}

// LoanMetrics summarises one loan's balance and next payment.
func (s *LoanService) LoanMetrics(ctx context.Context, loanID string) (*domain.LoanMetrics, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	payments, err := s.loanPayments(ctx, loanID)
	if err != nil {
		return nil, err
	}

	m := engine.SummarizeLoan(loan, payments)
	return &m, nil
}

// UpcomingDue lists loans with a scheduled payment in the next days days.
func (s *LoanService) UpcomingDue(ctx context.Context, days int) ([]*domain.Loan, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	loans, err := s.store.Loans().List(ctx, domain.LoanFilter{})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return engine.UpcomingDue(loans, s.clock(), days), nil
}

// OverdueLoans lists loans that are overdue or defaulted.
func (s *LoanService) OverdueLoans(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.store.Loans().List(ctx, domain.LoanFilter{})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return engine.OverdueLoans(loans), nil
}

func (s *LoanService) Settings() domain.Settings {
	return s.settings
}
