package engine

import (
	"github.com/segyhp/loan-tracker/internal/domain"

	"github.com/shopspring/decimal"
)

// AllocatePayment splits amount into principal and interest using the fixed ratio of
// the loan's original terms. The ratio does not decline as principal is repaid, so
// priorPayments never change the result; it is accepted to keep call sites uniform.
//
// The principal share is rounded to cents and interest takes the remainder, so the two
// always add up to amount exactly.
func AllocatePayment(loan *domain.Loan, amount decimal.Decimal, priorPayments []*domain.Payment) domain.Allocation {
	if !amount.IsPositive() {
		return domain.Allocation{Principal: decimal.Zero, Interest: decimal.Zero}
	}

	total := TotalDue(loan)
	if !total.IsPositive() {
		return domain.Allocation{Principal: decimal.Zero, Interest: decimal.Zero}
	}

	principal := amount.Mul(loan.Principal).Div(total).Round(2)
	return domain.Allocation{
		Principal: principal,
		Interest:  amount.Sub(principal),
	}
}

// Ratios returns the fixed principal and interest ratios of a loan.
func Ratios(loan *domain.Loan) (principalRatio, interestRatio decimal.Decimal) {
	total := TotalDue(loan)
	if !total.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	return loan.Principal.Div(total), TotalInterest(loan).Div(total)
}
