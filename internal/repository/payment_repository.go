package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/segyhp/loan-tracker/internal/domain"
)

const paymentColumns = `id, loan_id, payment_date, amount, principal, interest, notes, created_at`

type paymentRepository struct {
	db Queryer
}

func NewPaymentRepository(db Queryer) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (:id, :loan_id, :payment_date, :amount, :principal, :interest, :notes, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, payment)
	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := r.db.Rebind(`SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`)

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE loan_id = ?
		ORDER BY payment_date, created_at
	`)

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) List(ctx context.Context) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY payment_date, created_at`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET payment_date = :payment_date, amount = :amount, principal = :principal,
			interest = :interest, notes = :notes
		WHERE id = :id
	`

	res, err := r.db.NamedExecContext(ctx, query, payment)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM payments WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}
