package repository

import (
	"context"
	"errors"

	"github.com/segyhp/loan-tracker/internal/domain"
)

// ErrNotFound is returned by every repository when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// BorrowerRepository defines the interface for borrower data operations
type BorrowerRepository interface {
	// Create creates a new borrower
	Create(ctx context.Context, borrower *domain.Borrower) error

	// GetByID retrieves a borrower by ID
	GetByID(ctx context.Context, id string) (*domain.Borrower, error)

	// List returns every borrower ordered by name
	List(ctx context.Context) ([]*domain.Borrower, error)

	// Update updates a borrower
	Update(ctx context.Context, borrower *domain.Borrower) error

	// Delete removes a borrower
	Delete(ctx context.Context, id string) error

	// Count returns the number of borrowers
	Count(ctx context.Context) (int, error)
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id string) (*domain.Loan, error)

	// List returns loans matching the filter, newest issue date first
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// Update replaces a loan's mutable fields
	Update(ctx context.Context, loan *domain.Loan) error

	// Delete removes a loan together with its payments
	Delete(ctx context.Context, id string) error

	// UpdateBorrowerName refreshes the denormalized borrower name on every loan of a borrower
	UpdateBorrowerName(ctx context.Context, borrowerID, name string) error

	// CountByBorrower returns how many loans reference a borrower
	CountByBorrower(ctx context.Context, borrowerID string) (int, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a single payment
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByLoanID retrieves all payments for a loan, oldest first
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error)

	// List retrieves every payment
	List(ctx context.Context) ([]*domain.Payment, error)

	// Update replaces a payment's amount, split, date and notes
	Update(ctx context.Context, payment *domain.Payment) error

	// Delete removes a payment
	Delete(ctx context.Context, id string) error
}

// Store bundles the repositories behind one connection.
type Store interface {
	Borrowers() BorrowerRepository
	Loans() LoanRepository
	Payments() PaymentRepository

	// WithTx runs fn as one unit of work: every write made through tx is kept
	// only if fn returns nil
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
