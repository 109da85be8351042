package domain

import "github.com/shopspring/decimal"

// DashboardMetrics aggregates every loan and payment.
type DashboardMetrics struct {
	TotalLoaned            decimal.Decimal    `json:"total_loaned"`
	TotalInterestAccrued   decimal.Decimal    `json:"total_interest_accrued"`
	TotalOverdue           decimal.Decimal    `json:"total_overdue"`
	TotalReceivedThisMonth decimal.Decimal    `json:"total_received_this_month"`
	EstimatedDueThisMonth  decimal.Decimal    `json:"estimated_due_this_month"`
	TotalBorrowers         int                `json:"total_borrowers"`
	ActiveLoanCount        int                `json:"active_loan_count"`
	PendingLoanCount       int                `json:"pending_loan_count"`
	PaidLoanCount          int                `json:"paid_loan_count"`
	OverdueLoanCount       int                `json:"overdue_loan_count"`
	DefaultedLoanCount     int                `json:"defaulted_loan_count"`
	ArchivedLoanCount      int                `json:"archived_loan_count"`
	StatusCounts           map[LoanStatus]int `json:"status_counts"`
}

// LoanMetrics summarises a single loan.
type LoanMetrics struct {
	LoanID            string          `json:"loan_id"`
	TotalPrincipal    decimal.Decimal `json:"total_principal"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalDue          decimal.Decimal `json:"total_due"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	NextPaymentDate   string          `json:"next_payment_date,omitempty"`
	NextPaymentAmount decimal.Decimal `json:"next_payment_amount"`
}

// Settings are the defaults applied to new loans.
type Settings struct {
	DefaultInterestRate     decimal.Decimal `json:"default_interest_rate"`
	DefaultPaymentFrequency Frequency       `json:"default_payment_frequency"`
	DefaultInstallments     int             `json:"default_installments"`
	Currency                string          `json:"currency"`
}
