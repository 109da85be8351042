package service

import (
	"context"
	"log/slog"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/engine"
)

// Reminder is one upcoming installment handed to a Notifier.
type Reminder struct {
	LoanID       string
	BorrowerID   string
	BorrowerName string
	DueDate      string
	Amount       string
}

// Notifier delivers payment reminders.
type Notifier interface {
	Notify(ctx context.Context, reminder Reminder) error
}

// LogNotifier writes reminders to the log instead of delivering them.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, r Reminder) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "payment reminder",
		"loan_id", r.LoanID,
		"borrower", r.BorrowerName,
		"due_date", r.DueDate,
		"amount", r.Amount,
	)
	return nil
}

// SendReminders notifies about every installment due within days and returns how many
// reminders were delivered. A failed delivery is logged and skipped.
func (s *LoanService) SendReminders(ctx context.Context, notifier Notifier, days int) (int, error) {
	loans, err := s.UpcomingDue(ctx, days)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, loan := range loans {
		if err := notifier.Notify(ctx, reminderFor(loan)); err != nil {
			s.logger.Warn("payment reminder failed", "loan_id", loan.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func reminderFor(loan *domain.Loan) Reminder {
	r := Reminder{
		LoanID:       loan.ID,
		BorrowerID:   loan.BorrowerID,
		BorrowerName: loan.BorrowerName,
	}
	if s := loan.PaymentSchedule; s != nil {
		r.DueDate = s.NextPaymentDate
		r.Amount = s.InstallmentAmount.StringFixed(2)
		if !s.InstallmentAmount.IsPositive() {
			r.Amount = engine.InstallmentAmount(loan).StringFixed(2)
		}
	}
	return r
}
