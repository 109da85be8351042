package engine

import (
	"github.com/segyhp/loan-tracker/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// periodFactor converts a monthly rate into a rate per installment period as num/den.
func periodFactor(f domain.Frequency) (num, den int64) {
	switch f {
	case domain.FrequencyWeekly:
		return 12, 52
	case domain.FrequencyBiweekly:
		return 12, 26
	case domain.FrequencyQuarterly:
		return 3, 1
	case domain.FrequencyYearly:
		return 12, 1
	default:
		return 1, 1
	}
}

// PeriodRate returns the loan's interest rate per installment period as a fraction
// (5% monthly on a quarterly schedule is 0.15). Negative rates count as zero.
func PeriodRate(loan *domain.Loan) decimal.Decimal {
	if loan == nil || loan.InterestRate.IsNegative() {
		return decimal.Zero
	}

	num, den := int64(1), int64(1)
	if loan.PaymentSchedule != nil {
		num, den = periodFactor(loan.PaymentSchedule.Frequency)
	}

	return loan.InterestRate.Mul(decimal.NewFromInt(num)).Div(decimal.NewFromInt(den).Mul(hundred))
}

// TotalInterest is the simple interest provisioned over every installment:
// principal × period rate × installments.
func TotalInterest(loan *domain.Loan) decimal.Decimal {
	if loan == nil || !loan.Principal.IsPositive() || loan.InterestRate.IsNegative() {
		return decimal.Zero
	}

	num, den := int64(1), int64(1)
	if loan.PaymentSchedule != nil {
		num, den = periodFactor(loan.PaymentSchedule.Frequency)
	}

	// Single division keeps monthly results exact.
	return loan.Principal.
		Mul(loan.InterestRate).
		Mul(decimal.NewFromInt(int64(loan.InstallmentCount()) * num)).
		Div(decimal.NewFromInt(den).Mul(hundred))
}

// TotalDue returns principal plus all provisioned interest. Loans with a non-positive
// principal owe nothing.
func TotalDue(loan *domain.Loan) decimal.Decimal {
	if loan == nil || !loan.Principal.IsPositive() {
		return decimal.Zero
	}
	return loan.Principal.Add(TotalInterest(loan))
}

// TotalPaid sums payment amounts regardless of the installment they targeted.
func TotalPaid(payments []*domain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p == nil {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total
}

// RemainingBalance is TotalDue minus everything paid, floored at zero.
func RemainingBalance(loan *domain.Loan, payments []*domain.Payment) decimal.Decimal {
	remaining := TotalDue(loan).Sub(TotalPaid(payments))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
