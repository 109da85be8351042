package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentPaidMarker in a payment's notes means the payment closes the current
// installment. The text matches records written by earlier clients.
const InstallmentPaidMarker = "Parcela marcada como paga"

// Payment represents a payment recorded against a loan
type Payment struct {
	ID        string          `json:"id" db:"id"`
	LoanID    string          `json:"loan_id" db:"loan_id"`
	Date      string          `json:"date" db:"payment_date"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Principal decimal.Decimal `json:"principal" db:"principal"`
	Interest  decimal.Decimal `json:"interest" db:"interest"`
	Notes     string          `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Allocation is the principal/interest split of a payment amount.
type Allocation struct {
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
}

// RecordPaymentRequest records a payment. Principal and Interest are optional; when
// both are given they must add up to Amount, otherwise the loan's fixed ratio is used.
type RecordPaymentRequest struct {
	Amount          decimal.Decimal  `json:"amount" validate:"required,gt=0"`
	Date            string           `json:"date" validate:"omitempty,isodate"`
	Principal       *decimal.Decimal `json:"principal,omitempty" validate:"omitempty,gte=0"`
	Interest        *decimal.Decimal `json:"interest,omitempty" validate:"omitempty,gte=0"`
	Notes           string           `json:"notes"`
	InstallmentPaid bool             `json:"installment_paid"`
	AdvanceSchedule bool             `json:"advance_schedule"`
}

// UpdatePaymentRequest edits a recorded payment.
type UpdatePaymentRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Date   *string          `json:"date,omitempty" validate:"omitempty,isodate"`
	Notes  *string          `json:"notes,omitempty"`
}

type RecordPaymentResponse struct {
	Payment *Payment `json:"payment"`
	Loan    *Loan    `json:"loan"`
}

type AllocationResponse struct {
	LoanID     string          `json:"loan_id"`
	Amount     decimal.Decimal `json:"amount"`
	Allocation Allocation      `json:"allocation"`
}
