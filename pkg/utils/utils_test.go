package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateInstallmentAmount(t *testing.T) {
	tests := []struct {
		name         string
		total        decimal.Decimal
		installments int
		expected     decimal.Decimal
	}{
		{
			name:         "twelve monthly installments",
			total:        decimal.NewFromInt(8000),
			installments: 12,
			expected:     decimal.RequireFromString("666.67"), // 8000 / 12 = 666.666...
		},
		{
			name:         "single installment",
			total:        decimal.NewFromInt(1100),
			installments: 1,
			expected:     decimal.NewFromInt(1100),
		},
		{
			name:         "zero installments",
			total:        decimal.NewFromInt(1100),
			installments: 0,
			expected:     decimal.Zero,
		},
		{
			name:         "non-positive total",
			total:        decimal.NewFromInt(-5),
			installments: 4,
			expected:     decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInstallmentAmount(tt.total, tt.installments)
			assert.True(t, result.Equal(tt.expected),
				"Expected %v, but got %v", tt.expected, result)
		})
	}
}

func TestParseDate(t *testing.T) {
	loc := time.UTC
	expected := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "iso date", input: "2024-03-15"},
		{name: "iso date with spaces", input: "  2024-03-15 "},
		{name: "rfc3339 timestamp", input: "2024-03-15T10:30:00Z"},
		{name: "day first", input: "15/03/2024"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "next tuesday", wantErr: true},
		{name: "impossible day", input: "2024-02-31", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDate(tt.input, loc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, expected.Equal(result), "got %v", result)
		})
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		months    int
		anchorDay int
		expected  time.Time
	}{
		{
			name:      "anchor 31 into a 30-day month",
			start:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			months:    1,
			anchorDay: 31,
			expected:  time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "anchor 31 into leap february",
			start:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months:    1,
			anchorDay: 31,
			expected:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "anchor restored after a short month",
			start:     time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			months:    1,
			anchorDay: 31,
			expected:  time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "year rollover",
			start:     time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
			months:    3,
			anchorDay: 15,
			expected:  time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "twelve months",
			start:     time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			months:    12,
			anchorDay: 29,
			expected:  time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "missing anchor keeps the start day",
			start:     time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
			months:    1,
			anchorDay: 0,
			expected:  time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AddMonthsClamped(tt.start, tt.months, tt.anchorDay)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(base, base.Add(3*time.Hour)))
	assert.Equal(t, 7, DaysBetween(base, base.AddDate(0, 0, 7)))
	assert.Equal(t, -10, DaysBetween(base, base.AddDate(0, 0, -10)))
	assert.Equal(t, 366, DaysBetween(base, base.AddDate(1, 0, 0))) // 2024 is a leap year
}

func TestIsDateOverdue(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, IsDateOverdue(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), now), "due today is not overdue")
	assert.True(t, IsDateOverdue(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, IsDateOverdue(time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), now))
}

func TestSameMonthAndDaysInMonth(t *testing.T) {
	assert.True(t, SameMonth(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.False(t, SameMonth(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 31, DaysInMonth(2024, time.December))
}
