package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/pkg/utils"

	"github.com/shopspring/decimal"
)

// fallbackInstallments is assumed when estimating a payment for a loan without a schedule.
const fallbackInstallments = 12

// AggregateMetrics folds every loan and payment into dashboard totals as of now.
// TotalBorrowers counts distinct borrowers referenced by loans. The dashboard replaces
// it with the borrower table count, which includes borrowers without loans; callers
// that only have loans get this lower bound.
func AggregateMetrics(loans []*domain.Loan, payments []*domain.Payment, now time.Time) domain.DashboardMetrics {
	m := domain.DashboardMetrics{
		TotalLoaned:            decimal.Zero,
		TotalInterestAccrued:   decimal.Zero,
		TotalOverdue:           decimal.Zero,
		TotalReceivedThisMonth: decimal.Zero,
		StatusCounts:           make(map[domain.LoanStatus]int, len(domain.LoanStatuses)),
	}
	for _, s := range domain.LoanStatuses {
		m.StatusCounts[s] = 0
	}

	borrowers := make(map[string]struct{})
	for _, loan := range loans {
		if loan == nil {
			continue
		}
		if loan.Principal.IsPositive() {
			m.TotalLoaned = m.TotalLoaned.Add(loan.Principal)
		}
		if loan.BorrowerID != "" {
			borrowers[loan.BorrowerID] = struct{}{}
		}
		if loan.Status.IsLate() {
			m.TotalOverdue = m.TotalOverdue.Add(OverdueInstallment(loan))
		}
		m.StatusCounts[loan.Status]++
	}
	m.TotalBorrowers = len(borrowers)

	for _, p := range payments {
		if p == nil {
			continue
		}
		m.TotalInterestAccrued = m.TotalInterestAccrued.Add(p.Interest)

		date, err := utils.ParseDate(p.Date, now.Location())
		if err != nil {
			continue
		}
		if utils.SameMonth(date, now) {
			m.TotalReceivedThisMonth = m.TotalReceivedThisMonth.Add(p.Amount)
		}
	}

	m.ActiveLoanCount = m.StatusCounts[domain.LoanStatusActive]
	m.PendingLoanCount = m.StatusCounts[domain.LoanStatusPending]
	m.PaidLoanCount = m.StatusCounts[domain.LoanStatusPaid]
	m.OverdueLoanCount = m.StatusCounts[domain.LoanStatusOverdue]
	m.DefaultedLoanCount = m.StatusCounts[domain.LoanStatusDefaulted]
	m.ArchivedLoanCount = m.StatusCounts[domain.LoanStatusArchived]

	m.EstimatedDueThisMonth = EstimateDueThisMonth(loans, now)

	return m
}

// OverdueInstallment is the amount a late loan is behind by: its scheduled installment,
// or principal/installments × (1 + rate/100) when no installment amount is scheduled.
func OverdueInstallment(loan *domain.Loan) decimal.Decimal {
	if loan == nil || !loan.Principal.IsPositive() {
		return decimal.Zero
	}

	if s := loan.PaymentSchedule; s != nil && s.InstallmentAmount.IsPositive() {
		return s.InstallmentAmount
	}

	installments := fallbackInstallments
	if s := loan.PaymentSchedule; s != nil && s.Installments > 0 {
		installments = s.Installments
	}

	rate := loan.InterestRate
	if rate.IsNegative() {
		rate = decimal.Zero
	}

	return loan.Principal.
		Div(decimal.NewFromInt(int64(installments))).
		Mul(decimal.NewFromInt(1).Add(rate.Div(hundred)))
}

func hasUsableSchedule(loan *domain.Loan) bool {
	s := loan.PaymentSchedule
	return s != nil && strings.TrimSpace(s.NextPaymentDate) != "" && s.InstallmentAmount.IsPositive()
}

// EstimateDueThisMonth sums the installments of non-archived loans whose next payment
// date falls in now's month. When no loan has a usable schedule it falls back to
// principal/12 per non-archived loan.
func EstimateDueThisMonth(loans []*domain.Loan, now time.Time) decimal.Decimal {
	var valid []*domain.Loan
	scheduled := 0
	for _, loan := range loans {
		if loan == nil || loan.Status == domain.LoanStatusArchived {
			continue
		}
		valid = append(valid, loan)
		if hasUsableSchedule(loan) {
			scheduled++
		}
	}

	total := decimal.Zero
	if scheduled == 0 {
		twelve := decimal.NewFromInt(fallbackInstallments)
		for _, loan := range valid {
			if s := loan.PaymentSchedule; s != nil && s.InstallmentAmount.IsPositive() {
				total = total.Add(s.InstallmentAmount)
				continue
			}
			if loan.Principal.IsPositive() {
				total = total.Add(loan.Principal.Div(twelve))
			}
		}
		return total
	}

	for _, loan := range valid {
		if !hasUsableSchedule(loan) {
			continue
		}
		next, err := utils.ParseDate(loan.PaymentSchedule.NextPaymentDate, now.Location())
		if err != nil {
			continue
		}
		if utils.SameMonth(next, now) {
			total = total.Add(loan.PaymentSchedule.InstallmentAmount)
		}
	}
	return total
}

// SummarizeLoan computes the per-loan figures shown next to a loan.
func SummarizeLoan(loan *domain.Loan, payments []*domain.Payment) domain.LoanMetrics {
	m := domain.LoanMetrics{
		TotalPrincipal:    decimal.Zero,
		TotalInterest:     decimal.Zero,
		TotalPaid:         decimal.Zero,
		TotalDue:          decimal.Zero,
		RemainingBalance:  decimal.Zero,
		NextPaymentAmount: decimal.Zero,
	}
	if loan == nil {
		return m
	}

	m.LoanID = loan.ID
	m.TotalPrincipal = loan.Principal
	m.TotalPaid = TotalPaid(payments)
	for _, p := range payments {
		if p != nil {
			m.TotalInterest = m.TotalInterest.Add(p.Interest)
		}
	}
	m.TotalDue = TotalDue(loan)
	m.RemainingBalance = RemainingBalance(loan, payments)

	if s := loan.PaymentSchedule; s != nil {
		m.NextPaymentDate = s.NextPaymentDate
		m.NextPaymentAmount = decimal.Min(s.InstallmentAmount, m.RemainingBalance)
	}

	return m
}

// UpcomingDue returns non-archived loans whose next payment date falls between today and
// today+days inclusive, earliest first.
func UpcomingDue(loans []*domain.Loan, now time.Time, days int) []*domain.Loan {
	type dated struct {
		loan *domain.Loan
		date time.Time
	}

	var found []dated
	for _, loan := range loans {
		if loan == nil || loan.Status == domain.LoanStatusArchived || loan.PaymentSchedule == nil {
			continue
		}
		next, err := utils.ParseDate(loan.PaymentSchedule.NextPaymentDate, now.Location())
		if err != nil {
			continue
		}
		if d := utils.DaysBetween(now, next); d >= 0 && d <= days {
			found = append(found, dated{loan: loan, date: next})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].date.Before(found[j].date) })

	out := make([]*domain.Loan, 0, len(found))
	for _, f := range found {
		out = append(out, f.loan)
	}
	return out
}

// OverdueLoans returns the loans currently overdue or defaulted.
func OverdueLoans(loans []*domain.Loan) []*domain.Loan {
	var out []*domain.Loan
	for _, loan := range loans {
		if loan != nil && loan.Status.IsLate() {
			out = append(out, loan)
		}
	}
	return out
}
