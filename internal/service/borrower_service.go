package service

import (
	"context"
	"errors"
	"strings"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/repository"
	customError "github.com/segyhp/loan-tracker/pkg/errors"

	"github.com/google/uuid"
)

func borrowerError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return customError.WrapBorrowerNotFound(id)
	}
	return customError.WrapDatabaseError(err)
}

func (s *LoanService) CreateBorrower(ctx context.Context, request *domain.CreateBorrowerRequest) (*domain.Borrower, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, customError.WrapInvalidRequest("name is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	borrower := &domain.Borrower{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.TrimSpace(request.Email),
		Phone:     strings.TrimSpace(request.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Borrowers().Create(ctx, borrower); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	s.invalidate(ctx)

	return borrower, nil
}

func (s *LoanService) GetBorrower(ctx context.Context, id string) (*domain.Borrower, error) {
	borrower, err := s.store.Borrowers().GetByID(ctx, id)
	if err != nil {
		return nil, borrowerError(err, id)
	}
	return borrower, nil
}

func (s *LoanService) ListBorrowers(ctx context.Context) ([]*domain.Borrower, error) {
	borrowers, err := s.store.Borrowers().List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return borrowers, nil
}

// UpdateBorrower edits a borrower; a new name is copied onto every loan of the borrower.
func (s *LoanService) UpdateBorrower(ctx context.Context, id string, request *domain.UpdateBorrowerRequest) (*domain.Borrower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	borrower, err := s.store.Borrowers().GetByID(ctx, id)
	if err != nil {
		return nil, borrowerError(err, id)
	}

	renamed := false
	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return nil, customError.WrapInvalidRequest("name must not be empty", nil)
		}
		renamed = name != borrower.Name
		borrower.Name = name
	}
	if request.Email != nil {
		borrower.Email = strings.TrimSpace(*request.Email)
	}
	if request.Phone != nil {
		borrower.Phone = strings.TrimSpace(*request.Phone)
	}
	borrower.UpdatedAt = s.clock().UTC()

	if err := s.store.Borrowers().Update(ctx, borrower); err != nil {
		return nil, borrowerError(err, id)
	}
	if renamed {
		if err := s.store.Loans().UpdateBorrowerName(ctx, id, borrower.Name); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
	}

	return borrower, nil
}

// DeleteBorrower removes a borrower that has no loans left.
func (s *LoanService) DeleteBorrower(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.Loans().CountByBorrower(ctx, id)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if n > 0 {
		return customError.WrapBorrowerHasLoans(id, n)
	}

	if err := s.store.Borrowers().Delete(ctx, id); err != nil {
		return borrowerError(err, id)
	}
	s.invalidate(ctx)

	return nil
}
