package engine

import (
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/pkg/utils"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func dateOffset(days int) string {
	return utils.FormatDate(testNow.AddDate(0, 0, days))
}

func scheduledLoan(principal, rate int64, installments int, next string) *domain.Loan {
	loan := &domain.Loan{
		ID:           "loan-1",
		BorrowerID:   "borrower-1",
		BorrowerName: "Ana",
		Principal:    decimal.NewFromInt(principal),
		InterestRate: decimal.NewFromInt(rate),
		IssueDate:    "2024-01-01",
		DueDate:      "2025-01-01",
		Status:       domain.LoanStatusActive,
		PaymentSchedule: &domain.PaymentSchedule{
			Frequency:       domain.FrequencyMonthly,
			NextPaymentDate: next,
			Installments:    installments,
		},
	}
	loan.PaymentSchedule.InstallmentAmount = InstallmentAmount(loan)
	return loan
}

func payment(amount string, date string, notes string) *domain.Payment {
	return &domain.Payment{
		ID:     "pay-" + date,
		LoanID: "loan-1",
		Date:   date,
		Amount: decimal.RequireFromString(amount),
		Notes:  notes,
	}
}
