package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusPaid      LoanStatus = "paid"
	LoanStatusOverdue   LoanStatus = "overdue"
	LoanStatusDefaulted LoanStatus = "defaulted"
	LoanStatusArchived  LoanStatus = "archived"
)

// LoanStatuses lists every status in display order.
var LoanStatuses = []LoanStatus{
	LoanStatusActive,
	LoanStatusPending,
	LoanStatusPaid,
	LoanStatusOverdue,
	LoanStatusDefaulted,
	LoanStatusArchived,
}

// Valid reports whether s is a known status.
func (s LoanStatus) Valid() bool {
	for _, known := range LoanStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsLate reports whether s is overdue or defaulted.
func (s LoanStatus) IsLate() bool {
	return s == LoanStatusOverdue || s == LoanStatusDefaulted
}

// Loan represents a loan entity
type Loan struct {
	ID              string           `json:"id"`
	BorrowerID      string           `json:"borrower_id"`
	BorrowerName    string           `json:"borrower_name"`
	Principal       decimal.Decimal  `json:"principal"`
	InterestRate    decimal.Decimal  `json:"interest_rate"` // monthly percent
	IssueDate       string           `json:"issue_date"`
	DueDate         string           `json:"due_date"`
	Status          LoanStatus       `json:"status"`
	PaymentSchedule *PaymentSchedule `json:"payment_schedule,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// InstallmentCount returns the scheduled installment count, or 1 without a schedule.
func (l *Loan) InstallmentCount() int {
	if l.PaymentSchedule != nil && l.PaymentSchedule.Installments > 0 {
		return l.PaymentSchedule.Installments
	}
	return 1
}

// Clone returns a deep copy so callers can mutate the schedule freely.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	c := *l
	if l.PaymentSchedule != nil {
		s := *l.PaymentSchedule
		if l.PaymentSchedule.PaidInstallments != nil {
			paid := *l.PaymentSchedule.PaidInstallments
			s.PaidInstallments = &paid
		}
		c.PaymentSchedule = &s
	}
	return &c
}

// LoanFilter narrows loan listings.
type LoanFilter struct {
	Status     LoanStatus
	BorrowerID string
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	BorrowerID      string           `json:"borrower_id" validate:"required"`
	Principal       decimal.Decimal  `json:"principal" validate:"required,gt=0"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty" validate:"omitempty,gte=0"`
	IssueDate       string           `json:"issue_date" validate:"omitempty,isodate"`
	DueDate         string           `json:"due_date" validate:"omitempty,isodate"`
	Frequency       Frequency        `json:"frequency" validate:"omitempty,frequency"`
	Installments    int              `json:"installments" validate:"gte=0"`
	NextPaymentDate string           `json:"next_payment_date" validate:"omitempty,isodate"`
	WithoutSchedule bool             `json:"without_schedule"`
	Notes           string           `json:"notes"`
}

// UpdateLoanRequest is a partial update; nil fields are left untouched.
// A requested status of "paid" is only honoured together with RecomputeStatus,
// in which case the engine derives the status instead.
type UpdateLoanRequest struct {
	BorrowerID      *string          `json:"borrower_id,omitempty" validate:"omitempty,min=1"`
	Principal       *decimal.Decimal `json:"principal,omitempty" validate:"omitempty,gt=0"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty" validate:"omitempty,gte=0"`
	IssueDate       *string          `json:"issue_date,omitempty" validate:"omitempty,isodate"`
	DueDate         *string          `json:"due_date,omitempty" validate:"omitempty,isodate"`
	Status          *LoanStatus      `json:"status,omitempty"`
	PaymentSchedule *PaymentSchedule `json:"payment_schedule,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	RecomputeStatus bool             `json:"recompute_status,omitempty"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
}
