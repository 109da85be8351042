package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound       = errors.New("loan not found")
	ErrBorrowerNotFound   = errors.New("borrower not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrBorrowerHasLoans   = errors.New("borrower still has loans")
	ErrLoanArchived       = errors.New("loan is archived")
	ErrLoanNotPaid        = errors.New("loan is not paid")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidAllocation  = errors.New("principal and interest must sum to the payment amount")
	ErrInvalidStatusValue = errors.New("invalid loan status")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound      = "LOAN_NOT_FOUND"
	ErrCodeBorrowerNotFound  = "BORROWER_NOT_FOUND"
	ErrCodePaymentNotFound   = "PAYMENT_NOT_FOUND"
	ErrCodeBorrowerHasLoans  = "BORROWER_HAS_LOANS"
	ErrCodeLoanArchived      = "LOAN_ARCHIVED"
	ErrCodeLoanNotPaid       = "LOAN_NOT_PAID"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidAllocation = "INVALID_ALLOCATION"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
)

// Code returns the business code carried by err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapBorrowerNotFound(borrowerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeBorrowerNotFound,
		fmt.Sprintf("Borrower with ID %s not found", borrowerID),
		ErrBorrowerNotFound,
	)
}

func WrapPaymentNotFound(paymentID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %s not found", paymentID),
		ErrPaymentNotFound,
	)
}

func WrapBorrowerHasLoans(borrowerID string, loans int) *BusinessError {
	return NewBusinessError(
		ErrCodeBorrowerHasLoans,
		fmt.Sprintf("Borrower with ID %s still has %d loan(s)", borrowerID, loans),
		ErrBorrowerHasLoans,
	)
}

func WrapLoanArchived(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanArchived,
		fmt.Sprintf("Loan with ID %s is archived", loanID),
		ErrLoanArchived,
	)
}

func WrapLoanNotPaid(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotPaid,
		fmt.Sprintf("Loan with ID %s is %s; only paid loans can be archived", loanID, status),
		ErrLoanNotPaid,
	)
}

func WrapInvalidRequest(message string, err error) *BusinessError {
	if err == nil {
		err = ErrInvalidRequest
	}
	return NewBusinessError(ErrCodeInvalidRequest, message, err)
}

func WrapInvalidAllocation(amount, principal, interest string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAllocation,
		fmt.Sprintf("Principal %s plus interest %s does not equal amount %s", principal, interest, amount),
		ErrInvalidAllocation,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
