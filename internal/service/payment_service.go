package service

import (
	"context"
	"errors"
	"strings"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/engine"
	"github.com/segyhp/loan-tracker/internal/repository"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func paymentError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return customError.WrapPaymentNotFound(id)
	}
	return customError.WrapDatabaseError(err)
}

// inTx runs fn as one unit of work. Failures to begin or commit surface as database errors.
func (s *LoanService) inTx(ctx context.Context, fn func(tx repository.Store) error) error {
	err := s.store.WithTx(ctx, fn)
	if err == nil {
		return nil
	}
	var business *customError.BusinessError
	if customError.As(err, &business) {
		return err
	}
	return customError.WrapDatabaseError(err)
}

// splitPayment resolves the principal/interest split of amount. An explicit split must add
// up to amount; a single explicit part implies the other; otherwise the loan's fixed
// ratio applies.
func splitPayment(loan *domain.Loan, amount decimal.Decimal, principal, interest *decimal.Decimal, prior []*domain.Payment) (domain.Allocation, error) {
	switch {
	case principal != nil && interest != nil:
		if !principal.Add(*interest).Equal(amount) {
			return domain.Allocation{}, customError.WrapInvalidAllocation(amount.String(), principal.String(), interest.String())
		}
		return domain.Allocation{Principal: *principal, Interest: *interest}, nil
	case principal != nil:
		rest := amount.Sub(*principal)
		if rest.IsNegative() {
			return domain.Allocation{}, customError.WrapInvalidAllocation(amount.String(), principal.String(), rest.String())
		}
		return domain.Allocation{Principal: *principal, Interest: rest}, nil
	case interest != nil:
		rest := amount.Sub(*interest)
		if rest.IsNegative() {
			return domain.Allocation{}, customError.WrapInvalidAllocation(amount.String(), rest.String(), interest.String())
		}
		return domain.Allocation{Principal: rest, Interest: *interest}, nil
	default:
		return engine.AllocatePayment(loan, amount, prior), nil
	}
}

func withInstallmentMarker(notes string) string {
	notes = strings.TrimSpace(notes)
	switch {
	case strings.Contains(notes, domain.InstallmentPaidMarker):
		return notes
	case notes == "":
		return domain.InstallmentPaidMarker
	default:
		return notes + " - " + domain.InstallmentPaidMarker
	}
}

// RecordPayment stores a payment, moves the schedule when it closes an installment and
// re-derives the loan status.
func (s *LoanService) RecordPayment(ctx context.Context, loanID string, request *domain.RecordPaymentRequest) (*domain.RecordPaymentResponse, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidRequest("amount must be greater than 0", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanStatusArchived {
		return nil, customError.WrapLoanArchived(loanID)
	}

	now := s.clock()
	dateStr := request.Date
	if dateStr == "" {
		dateStr = utils.FormatDate(now)
	}
	date, err := utils.ParseDate(dateStr, s.loc)
	if err != nil {
		return nil, customError.WrapInvalidRequest("date is not a valid date", err)
	}

	payments, err := s.loanPayments(ctx, loanID)
	if err != nil {
		return nil, err
	}

	split, err := splitPayment(loan, request.Amount, request.Principal, request.Interest, payments)
	if err != nil {
		return nil, err
	}

	closesInstallment := request.InstallmentPaid || request.AdvanceSchedule
	notes := request.Notes
	if closesInstallment {
		notes = withInstallmentMarker(notes)
	}

	payment := &domain.Payment{
		ID:        uuid.NewString(),
		LoanID:    loanID,
		Date:      dateStr,
		Amount:    request.Amount,
		Principal: split.Principal,
		Interest:  split.Interest,
		Notes:     notes,
		CreatedAt: now.UTC(),
	}
	payments = append(payments, payment)

	override := false
	if closesInstallment && loan.PaymentSchedule != nil {
		outcome := engine.ApplyInstallmentPayment(loan, date, request.AdvanceSchedule)
		loan = outcome.Loan
		override = outcome.StatusOverride
	}

	before := loan.Status
	assessment := s.deriveStatus(loan, payments, now)
	if override && assessment.Status.IsLate() {
		// The recorded installment keeps the loan active until the next recomputation.
		loan.Status = domain.LoanStatusActive
	}

	loan.UpdatedAt = now.UTC()
	err = s.inTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := tx.Loans().Update(ctx, loan); err != nil {
			return loanError(err, loanID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info("payment recorded",
		"loan_id", loanID,
		"payment_id", payment.ID,
		"amount", payment.Amount.String(),
		"status_before", before,
		"status", loan.Status,
	)

	return &domain.RecordPaymentResponse{Payment: payment, Loan: loan}, nil
}

// ListPayments returns a loan's payments, oldest first
func (s *LoanService) ListPayments(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}
	return s.loanPayments(ctx, loanID)
}

// UpdatePayment edits a payment. A new amount is re-split with the loan's ratio.
func (s *LoanService) UpdatePayment(ctx context.Context, paymentID string, request *domain.UpdatePaymentRequest) (*domain.RecordPaymentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, paymentError(err, paymentID)
	}
	loan, err := s.getLoan(ctx, payment.LoanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanStatusArchived {
		return nil, customError.WrapLoanArchived(loan.ID)
	}

	if request.Date != nil {
		if _, err := utils.ParseDate(*request.Date, s.loc); err != nil {
			return nil, customError.WrapInvalidRequest("date is not a valid date", err)
		}
		payment.Date = *request.Date
	}
	if request.Notes != nil {
		payment.Notes = *request.Notes
	}

	payments, err := s.loanPayments(ctx, loan.ID)
	if err != nil {
		return nil, err
	}

	if request.Amount != nil && !request.Amount.Equal(payment.Amount) {
		if !request.Amount.IsPositive() {
			return nil, customError.WrapInvalidRequest("amount must be greater than 0", nil)
		}
		split := engine.AllocatePayment(loan, *request.Amount, without(payments, paymentID))
		payment.Amount = *request.Amount
		payment.Principal = split.Principal
		payment.Interest = split.Interest
	}

	updated := append(without(payments, paymentID), payment)
	err = s.inTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().Update(ctx, payment); err != nil {
			return paymentError(err, paymentID)
		}
		return s.persistDerived(ctx, tx, loan, updated)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	return &domain.RecordPaymentResponse{Payment: payment, Loan: loan}, nil
}

// DeletePayment removes a payment and re-derives the owning loan's status.
func (s *LoanService) DeletePayment(ctx context.Context, paymentID string) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, paymentError(err, paymentID)
	}
	loan, err := s.getLoan(ctx, payment.LoanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanStatusArchived {
		return nil, customError.WrapLoanArchived(loan.ID)
	}

	payments, err := s.loanPayments(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().Delete(ctx, paymentID); err != nil {
			return paymentError(err, paymentID)
		}
		return s.persistDerived(ctx, tx, loan, without(payments, paymentID))
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	return loan, nil
}

// PreviewAllocation splits a prospective amount without recording anything.
func (s *LoanService) PreviewAllocation(ctx context.Context, loanID string, amount decimal.Decimal) (*domain.AllocationResponse, error) {
	if !amount.IsPositive() {
		return nil, customError.WrapInvalidRequest("amount must be greater than 0", nil)
	}
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	payments, err := s.loanPayments(ctx, loanID)
	if err != nil {
		return nil, err
	}

	return &domain.AllocationResponse{
		LoanID:     loanID,
		Amount:     amount,
		Allocation: engine.AllocatePayment(loan, amount, payments),
	}, nil
}

func (s *LoanService) persistDerived(ctx context.Context, store repository.Store, loan *domain.Loan, payments []*domain.Payment) error {
	now := s.clock()
	s.deriveStatus(loan, payments, now)
	loan.UpdatedAt = now.UTC()
	if err := store.Loans().Update(ctx, loan); err != nil {
		return loanError(err, loan.ID)
	}
	return nil
}

func without(payments []*domain.Payment, id string) []*domain.Payment {
	out := make([]*domain.Payment, 0, len(payments))
	for _, p := range payments {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
