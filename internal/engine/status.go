package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	// PendingWindowDays is how close the next due date must be for a loan to be pending.
	PendingWindowDays = 15
	// DefaultAfterDays is how long a loan may stay overdue before it is defaulted.
	DefaultAfterDays = 90
)

// Rule names the status rule that decided an assessment.
type Rule string

const (
	RuleSettled         Rule = "settled"
	RuleInstallmentPaid Rule = "installment_paid"
	RuleDefaulted       Rule = "defaulted"
	RuleOverdue         Rule = "overdue"
	RuleDueSoon         Rule = "due_soon"
	RuleDueThisMonth    Rule = "due_this_month"
	RuleCurrent         Rule = "current"
	RuleNoDate          Rule = "no_actionable_date"
)

// Assessment explains a derived status.
type Assessment struct {
	Status        domain.LoanStatus
	Rule          Rule
	Remaining     decimal.Decimal
	ReferenceDate string // schedule next payment date or loan due date
	FromSchedule  bool
	DaysOverdue   int
	DaysUntilDue  int
	DateErr       error // set when the reference date could not be parsed
}

// DeriveStatus computes a loan's status from its balance, payments and dates as of now.
// It never returns archived; callers must not recompute archived loans.
func DeriveStatus(loan *domain.Loan, payments []*domain.Payment, now time.Time) domain.LoanStatus {
	return Assess(loan, payments, now).Status
}

// Assess applies the status rules in priority order:
//
//  1. nothing left to pay: paid
//  2. an installment-paid payment dated this calendar month: paid (transient)
//  3. the schedule's next payment date, or the due date without a schedule:
//     more than DefaultAfterDays late is defaulted, any lateness is overdue,
//     within PendingWindowDays (or, without a schedule, this month) is pending,
//     anything else is active.
//
// Dates are compared by calendar day in now's location, so a date of today is not late.
func Assess(loan *domain.Loan, payments []*domain.Payment, now time.Time) Assessment {
	remaining := RemainingBalance(loan, payments)
	a := Assessment{Remaining: remaining}

	if !remaining.IsPositive() {
		a.Status, a.Rule = domain.LoanStatusPaid, RuleSettled
		return a
	}

	if InstallmentPaidInMonth(payments, now) {
		a.Status, a.Rule = domain.LoanStatusPaid, RuleInstallmentPaid
		return a
	}

	a.ReferenceDate, a.FromSchedule = referenceDate(loan)
	ref, err := utils.ParseDate(a.ReferenceDate, now.Location())
	if err != nil {
		a.Status, a.Rule = domain.LoanStatusActive, RuleNoDate
		a.DateErr = fmt.Errorf("loan %s: %w", loan.ID, err)
		return a
	}

	days := utils.DaysBetween(now, ref)
	switch {
	case utils.IsDateOverdue(ref, now):
		a.DaysOverdue = -days
		if a.DaysOverdue > DefaultAfterDays {
			a.Status, a.Rule = domain.LoanStatusDefaulted, RuleDefaulted
		} else {
			a.Status, a.Rule = domain.LoanStatusOverdue, RuleOverdue
		}
	case days <= PendingWindowDays:
		a.DaysUntilDue = days
		a.Status, a.Rule = domain.LoanStatusPending, RuleDueSoon
	case !a.FromSchedule && utils.SameMonth(ref, now):
		a.DaysUntilDue = days
		a.Status, a.Rule = domain.LoanStatusPending, RuleDueThisMonth
	default:
		a.DaysUntilDue = days
		a.Status, a.Rule = domain.LoanStatusActive, RuleCurrent
	}

	return a
}

// referenceDate picks the schedule's next payment date, falling back to the due date
// when there is no schedule or it carries no date.
func referenceDate(loan *domain.Loan) (string, bool) {
	if loan.PaymentSchedule != nil && strings.TrimSpace(loan.PaymentSchedule.NextPaymentDate) != "" {
		return loan.PaymentSchedule.NextPaymentDate, true
	}
	return loan.DueDate, false
}

// IsInstallmentPaid reports whether a payment carries the installment-paid marker.
func IsInstallmentPaid(p *domain.Payment) bool {
	return p != nil && strings.Contains(p.Notes, domain.InstallmentPaidMarker)
}

// InstallmentPaidInMonth reports whether any marked payment is dated in now's month.
// Payments with malformed dates are ignored.
func InstallmentPaidInMonth(payments []*domain.Payment, now time.Time) bool {
	for _, p := range payments {
		if !IsInstallmentPaid(p) {
			continue
		}
		date, err := utils.ParseDate(p.Date, now.Location())
		if err != nil {
			continue
		}
		if utils.SameMonth(date, now) {
			return true
		}
	}
	return false
}

// CanArchive reports whether a loan may be archived; only paid loans can.
func CanArchive(loan *domain.Loan) bool {
	return loan != nil && loan.Status == domain.LoanStatusPaid
}
