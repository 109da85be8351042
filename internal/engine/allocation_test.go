package engine

import (
	"testing"

	"github.com/segyhp/loan-tracker/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAllocatePayment(t *testing.T) {
	loan := scheduledLoan(5000, 5, 12, "2024-07-01") // 5000 principal, 3000 interest

	tests := []struct {
		name              string
		amount            decimal.Decimal
		expectedPrincipal decimal.Decimal
		expectedInterest  decimal.Decimal
	}{
		{
			name:              "full installment",
			amount:            decimal.RequireFromString("666.67"),
			expectedPrincipal: decimal.RequireFromString("416.67"),
			expectedInterest:  decimal.RequireFromString("250.00"),
		},
		{
			name:              "partial payment keeps the same ratio",
			amount:            decimal.NewFromInt(80),
			expectedPrincipal: decimal.NewFromInt(50),
			expectedInterest:  decimal.NewFromInt(30),
		},
		{
			name:              "overpayment keeps the same ratio",
			amount:            decimal.NewFromInt(16000),
			expectedPrincipal: decimal.NewFromInt(10000),
			expectedInterest:  decimal.NewFromInt(6000),
		},
		{
			name:              "zero amount",
			amount:            decimal.Zero,
			expectedPrincipal: decimal.Zero,
			expectedInterest:  decimal.Zero,
		},
		{
			name:              "negative amount",
			amount:            decimal.NewFromInt(-10),
			expectedPrincipal: decimal.Zero,
			expectedInterest:  decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AllocatePayment(loan, tt.amount, nil)
			assert.True(t, result.Principal.Equal(tt.expectedPrincipal), "principal: expected %v, got %v", tt.expectedPrincipal, result.Principal)
			assert.True(t, result.Interest.Equal(tt.expectedInterest), "interest: expected %v, got %v", tt.expectedInterest, result.Interest)
		})
	}
}

func TestAllocatePayment_SumsToAmount(t *testing.T) {
	loans := []*domain.Loan{
		scheduledLoan(5000, 5, 12, "2024-07-01"),
		scheduledLoan(1234, 7, 9, "2024-07-01"),
		scheduledLoan(999, 0, 3, "2024-07-01"),
	}
	amounts := []string{"0.01", "13.37", "100", "333.33", "12345.67"}

	for _, loan := range loans {
		for _, raw := range amounts {
			amount := decimal.RequireFromString(raw)
			result := AllocatePayment(loan, amount, nil)
			assert.True(t, result.Principal.Add(result.Interest).Equal(amount),
				"split of %s for principal %s does not add up", raw, loan.Principal)
		}
	}
}

func TestAllocatePayment_IgnoresPriorPayments(t *testing.T) {
	loan := scheduledLoan(5000, 5, 12, "2024-07-01")
	prior := []*domain.Payment{payment("4000", "2024-03-01", "")}

	assert.Equal(t, AllocatePayment(loan, decimal.NewFromInt(80), nil), AllocatePayment(loan, decimal.NewFromInt(80), prior))
}

func TestAllocatePayment_ZeroRateIsAllPrincipal(t *testing.T) {
	loan := scheduledLoan(1200, 0, 12, "2024-07-01")

	result := AllocatePayment(loan, decimal.NewFromInt(100), nil)
	assert.True(t, result.Principal.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Interest.IsZero())
}

func TestRatios(t *testing.T) {
	loan := scheduledLoan(5000, 5, 12, "2024-07-01")

	principalRatio, interestRatio := Ratios(loan)
	assert.True(t, principalRatio.Equal(decimal.RequireFromString("0.625")))
	assert.True(t, interestRatio.Equal(decimal.RequireFromString("0.375")))

	principalRatio, interestRatio = Ratios(&domain.Loan{})
	assert.True(t, principalRatio.IsZero())
	assert.True(t, interestRatio.IsZero())
}
