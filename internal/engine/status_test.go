package engine

import (
	"testing"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus_ScheduleDates(t *testing.T) {
	tests := []struct {
		name     string
		offset   int
		expected domain.LoanStatus
		rule     Rule
	}{
		{name: "20 days ahead is active", offset: 20, expected: domain.LoanStatusActive, rule: RuleCurrent},
		{name: "16 days ahead is active", offset: 16, expected: domain.LoanStatusActive, rule: RuleCurrent},
		{name: "15 days ahead is pending", offset: 15, expected: domain.LoanStatusPending, rule: RuleDueSoon},
		{name: "10 days ahead is pending", offset: 10, expected: domain.LoanStatusPending, rule: RuleDueSoon},
		{name: "due today is pending", offset: 0, expected: domain.LoanStatusPending, rule: RuleDueSoon},
		{name: "1 day late is overdue", offset: -1, expected: domain.LoanStatusOverdue, rule: RuleOverdue},
		{name: "50 days late is overdue", offset: -50, expected: domain.LoanStatusOverdue, rule: RuleOverdue},
		{name: "90 days late is still overdue", offset: -90, expected: domain.LoanStatusOverdue, rule: RuleOverdue},
		{name: "91 days late is defaulted", offset: -91, expected: domain.LoanStatusDefaulted, rule: RuleDefaulted},
		{name: "100 days late is defaulted", offset: -100, expected: domain.LoanStatusDefaulted, rule: RuleDefaulted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := scheduledLoan(5000, 5, 12, dateOffset(tt.offset))

			a := Assess(loan, nil, testNow)
			assert.Equal(t, tt.expected, a.Status)
			assert.Equal(t, tt.rule, a.Rule)
			assert.True(t, a.FromSchedule)
			assert.NoError(t, a.DateErr)
			assert.Equal(t, tt.expected, DeriveStatus(loan, nil, testNow))
		})
	}
}

func TestDeriveStatus_DaysCounters(t *testing.T) {
	late := Assess(scheduledLoan(5000, 5, 12, dateOffset(-50)), nil, testNow)
	assert.Equal(t, 50, late.DaysOverdue)

	soon := Assess(scheduledLoan(5000, 5, 12, dateOffset(10)), nil, testNow)
	assert.Equal(t, 10, soon.DaysUntilDue)
}

func TestDeriveStatus_FullSettlementDominates(t *testing.T) {
	loan := scheduledLoan(5000, 5, 12, dateOffset(-200))
	payments := []*domain.Payment{
		payment("5000", "2023-01-01", ""),
		payment("3000", "2023-02-01", ""),
	}

	a := Assess(loan, payments, testNow)
	assert.Equal(t, domain.LoanStatusPaid, a.Status)
	assert.Equal(t, RuleSettled, a.Rule)
	assert.True(t, a.Remaining.IsZero())
}

func TestDeriveStatus_InstallmentPaidThisMonth(t *testing.T) {
	loan := scheduledLoan(5000, 5, 12, dateOffset(-40))

	t.Run("marked payment this month is transient paid", func(t *testing.T) {
		payments := []*domain.Payment{payment("666.67", "2024-06-02", domain.InstallmentPaidMarker)}

		a := Assess(loan, payments, testNow)
		assert.Equal(t, domain.LoanStatusPaid, a.Status)
		assert.Equal(t, RuleInstallmentPaid, a.Rule)
		assert.True(t, a.Remaining.IsPositive())
	})

	t.Run("marker embedded in longer notes still counts", func(t *testing.T) {
		payments := []*domain.Payment{payment("666.67", "2024-06-02", "cash; "+domain.InstallmentPaidMarker+" by phone")}
		assert.Equal(t, domain.LoanStatusPaid, DeriveStatus(loan, payments, testNow))
	})

	t.Run("unmarked payment this month does not count", func(t *testing.T) {
		payments := []*domain.Payment{payment("666.67", "2024-06-02", "partial")}
		assert.Equal(t, domain.LoanStatusOverdue, DeriveStatus(loan, payments, testNow))
	})

	t.Run("marked payment last month reverts to date rules", func(t *testing.T) {
		payments := []*domain.Payment{payment("666.67", "2024-05-30", domain.InstallmentPaidMarker)}
		assert.Equal(t, domain.LoanStatusOverdue, DeriveStatus(loan, payments, testNow))
	})

	t.Run("same month of another year does not count", func(t *testing.T) {
		payments := []*domain.Payment{payment("666.67", "2023-06-02", domain.InstallmentPaidMarker)}
		assert.Equal(t, domain.LoanStatusOverdue, DeriveStatus(loan, payments, testNow))
	})

	t.Run("malformed payment date is ignored", func(t *testing.T) {
		payments := []*domain.Payment{payment("666.67", "??", domain.InstallmentPaidMarker)}
		assert.Equal(t, domain.LoanStatusOverdue, DeriveStatus(loan, payments, testNow))
	})
}

func TestDeriveStatus_DueDateFallback(t *testing.T) {
	base := func(due string) *domain.Loan {
		loan := scheduledLoan(5000, 5, 12, "")
		loan.PaymentSchedule = nil
		loan.DueDate = due
		return loan
	}

	tests := []struct {
		name     string
		loan     *domain.Loan
		expected domain.LoanStatus
		rule     Rule
	}{
		{name: "due date far ahead", loan: base("2024-09-01"), expected: domain.LoanStatusActive, rule: RuleCurrent},
		{name: "due date within window", loan: base(dateOffset(12)), expected: domain.LoanStatusPending, rule: RuleDueSoon},
		{name: "due later this month", loan: base("2024-06-30"), expected: domain.LoanStatusPending, rule: RuleDueThisMonth},
		{name: "due date passed", loan: base(dateOffset(-3)), expected: domain.LoanStatusOverdue, rule: RuleOverdue},
		{name: "due date long passed", loan: base(dateOffset(-120)), expected: domain.LoanStatusDefaulted, rule: RuleDefaulted},
		{
			name: "schedule without a date falls back to due date",
			loan: func() *domain.Loan {
				l := base(dateOffset(-5))
				l.PaymentSchedule = &domain.PaymentSchedule{Frequency: domain.FrequencyMonthly, Installments: 12}
				return l
			}(),
			expected: domain.LoanStatusOverdue,
			rule:     RuleOverdue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(tt.loan, nil, testNow)
			assert.Equal(t, tt.expected, a.Status)
			assert.Equal(t, tt.rule, a.Rule)
			assert.False(t, a.FromSchedule)
		})
	}
}

func TestDeriveStatus_ScheduleIgnoresCalendarMonthRule(t *testing.T) {
	// 20 days ahead but still June: with a schedule only the 15-day window applies.
	loan := scheduledLoan(5000, 5, 12, "2024-06-30")
	assert.Equal(t, domain.LoanStatusActive, DeriveStatus(loan, nil, testNow))
}

func TestDeriveStatus_MalformedDates(t *testing.T) {
	scheduled := scheduledLoan(5000, 5, 12, "31/31/2024")
	a := Assess(scheduled, nil, testNow)
	assert.Equal(t, domain.LoanStatusActive, a.Status)
	assert.Equal(t, RuleNoDate, a.Rule)
	assert.Error(t, a.DateErr)
	assert.Contains(t, a.DateErr.Error(), scheduled.ID)

	unscheduled := scheduledLoan(5000, 5, 12, "")
	unscheduled.PaymentSchedule = nil
	unscheduled.DueDate = ""
	a = Assess(unscheduled, nil, testNow)
	assert.Equal(t, domain.LoanStatusActive, a.Status)
	assert.Error(t, a.DateErr)
}

func TestDeriveStatus_Idempotent(t *testing.T) {
	loan := scheduledLoan(5000, 5, 12, dateOffset(-50))
	payments := []*domain.Payment{payment("100", "2024-04-01", "")}

	first := DeriveStatus(loan, payments, testNow)
	second := DeriveStatus(loan, payments, testNow)
	assert.Equal(t, first, second)
}

func TestDeriveStatus_NeverArchived(t *testing.T) {
	offsets := []int{-200, -91, -50, -1, 0, 10, 15, 16, 60}
	for _, offset := range offsets {
		loan := scheduledLoan(5000, 5, 12, dateOffset(offset))
		loan.Status = domain.LoanStatusArchived
		assert.NotEqual(t, domain.LoanStatusArchived, DeriveStatus(loan, nil, testNow))
	}
}

func TestDeriveStatus_UsesNowLocation(t *testing.T) {
	// 23:30 UTC on June 30th is already July 1st in UTC+2.
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 6, 30, 23, 30, 0, 0, time.UTC).In(loc)
	loan := scheduledLoan(5000, 5, 12, "2024-09-30")
	payments := []*domain.Payment{payment("666.67", "2024-07-01", domain.InstallmentPaidMarker)}

	assert.Equal(t, domain.LoanStatusPaid, DeriveStatus(loan, payments, now))
}

func TestCanArchive(t *testing.T) {
	for _, status := range domain.LoanStatuses {
		loan := &domain.Loan{Status: status}
		assert.Equal(t, status == domain.LoanStatusPaid, CanArchive(loan), string(status))
	}
	assert.False(t, CanArchive(nil))
}
