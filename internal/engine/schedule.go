package engine

import (
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/pkg/utils"

	"github.com/shopspring/decimal"
)

// monthsPerPeriod returns the month step of month-based frequencies, 0 for day-based.
func monthsPerPeriod(f domain.Frequency) int {
	switch f {
	case domain.FrequencyWeekly, domain.FrequencyBiweekly:
		return 0
	case domain.FrequencyQuarterly:
		return 3
	case domain.FrequencyYearly:
		return 12
	default:
		// monthly and custom
		return 1
	}
}

func daysPerPeriod(f domain.Frequency) int {
	if f == domain.FrequencyBiweekly {
		return 14
	}
	return 7
}

// NextScheduleDate returns the installment date following a payment made on
// paymentDate. Month-based frequencies keep the day-of-month of the schedule's current
// next payment date, clamped to the length of the target month; when that date is
// missing or malformed the payment date's own day is used.
func NextScheduleDate(schedule *domain.PaymentSchedule, paymentDate time.Time, frequency domain.Frequency) time.Time {
	months := monthsPerPeriod(frequency)
	if months == 0 {
		return paymentDate.AddDate(0, 0, daysPerPeriod(frequency))
	}

	return utils.AddMonthsClamped(paymentDate, months, ScheduleAnchorDay(schedule, paymentDate))
}

// ScheduleAnchorDay is the day of month a schedule's month-based dates return to: the
// stored anchor, else the day of the current next payment date, else fallback's day.
func ScheduleAnchorDay(schedule *domain.PaymentSchedule, fallback time.Time) int {
	if schedule == nil {
		return fallback.Day()
	}
	if schedule.AnchorDay >= 1 && schedule.AnchorDay <= 31 {
		return schedule.AnchorDay
	}
	if current, err := utils.ParseDate(schedule.NextPaymentDate, fallback.Location()); err == nil {
		return current.Day()
	}
	return fallback.Day()
}

// AdvanceSchedule moves the schedule past the installment paid on paymentDate and
// increments the paid counter. The input is not modified.
func AdvanceSchedule(schedule *domain.PaymentSchedule, paymentDate time.Time) *domain.PaymentSchedule {
	if schedule == nil {
		return nil
	}

	next := *schedule
	next.NextPaymentDate = utils.FormatDate(NextScheduleDate(schedule, paymentDate, schedule.Frequency))
	if monthsPerPeriod(schedule.Frequency) > 0 {
		// A clamped date must not become the new anchor.
		next.AnchorDay = ScheduleAnchorDay(schedule, paymentDate)
	}

	paid := schedule.PaidCount() + 1
	next.PaidInstallments = &paid

	return &next
}

// ScheduleOutcome is the result of applying an installment payment to a loan.
type ScheduleOutcome struct {
	Loan           *domain.Loan
	Advanced       bool
	StatusOverride bool
}

// ApplyInstallmentPayment applies a payment that closes an installment. With advance the
// schedule moves forward; without it the schedule is left alone, but a late loan is put
// back to active because a payment was recorded. Loans without a schedule are returned
// unchanged. The returned loan is always a copy.
func ApplyInstallmentPayment(loan *domain.Loan, paymentDate time.Time, advance bool) ScheduleOutcome {
	out := ScheduleOutcome{Loan: loan.Clone()}
	if out.Loan == nil || out.Loan.PaymentSchedule == nil {
		return out
	}

	if advance {
		out.Loan.PaymentSchedule = AdvanceSchedule(out.Loan.PaymentSchedule, paymentDate)
		out.Advanced = true
		return out
	}

	if out.Loan.Status.IsLate() {
		out.Loan.Status = domain.LoanStatusActive
		out.StatusOverride = true
	}

	return out
}

// TermEndDate is the final due date of a loan issued on issue with the given
// installments at frequency.
func TermEndDate(issue time.Time, frequency domain.Frequency, installments int) time.Time {
	if installments <= 0 {
		installments = 1
	}

	if months := monthsPerPeriod(frequency); months > 0 {
		return utils.AddMonthsClamped(issue, months*installments, issue.Day())
	}
	return issue.AddDate(0, 0, daysPerPeriod(frequency)*installments)
}

// FirstPaymentDate is one month after issue, on the same day where the month allows.
func FirstPaymentDate(issue time.Time) time.Time {
	return utils.AddMonthsClamped(issue, 1, issue.Day())
}

// InstallmentAmount is TotalDue spread evenly over the installments, in cents.
func InstallmentAmount(loan *domain.Loan) decimal.Decimal {
	return utils.CalculateInstallmentAmount(TotalDue(loan), loan.InstallmentCount())
}
