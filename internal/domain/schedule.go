package domain

import (
	"github.com/shopspring/decimal"
)

// Frequency is how often a scheduled installment falls due.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyCustom    Frequency = "custom"
)

// Frequencies lists every supported frequency.
var Frequencies = []Frequency{
	FrequencyWeekly,
	FrequencyBiweekly,
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencyYearly,
	FrequencyCustom,
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// PaymentSchedule is embedded in a loan and tracks the next installment due.
type PaymentSchedule struct {
	Frequency         Frequency       `json:"frequency"`
	NextPaymentDate   string          `json:"next_payment_date"`
	Installments      int             `json:"installments"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	PaidInstallments  *int            `json:"paid_installments,omitempty"` // nil means none recorded
	AnchorDay         int             `json:"anchor_day,omitempty"`        // day of month monthly dates return to; 0 means unset
}

// PaidCount returns the paid-installment counter, defaulting to 0.
func (s *PaymentSchedule) PaidCount() int {
	if s == nil || s.PaidInstallments == nil {
		return 0
	}
	return *s.PaidInstallments
}

type ScheduleResponse struct {
	LoanID   string           `json:"loan_id"`
	Schedule *PaymentSchedule `json:"schedule"`
}
