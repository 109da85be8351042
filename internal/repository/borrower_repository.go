package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/segyhp/loan-tracker/internal/domain"
)

type borrowerRepository struct {
	db Queryer
}

func NewBorrowerRepository(db Queryer) BorrowerRepository {
	return &borrowerRepository{db: db}
}

func (r *borrowerRepository) Create(ctx context.Context, borrower *domain.Borrower) error {
	query := `
		INSERT INTO borrowers (id, name, email, phone, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, borrower)
	return err
}

func (r *borrowerRepository) GetByID(ctx context.Context, id string) (*domain.Borrower, error) {
	query := r.db.Rebind(`
		SELECT id, name, email, phone, created_at, updated_at
		FROM borrowers
		WHERE id = ?
	`)

	var borrower domain.Borrower
	err := r.db.GetContext(ctx, &borrower, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &borrower, nil
}

func (r *borrowerRepository) List(ctx context.Context) ([]*domain.Borrower, error) {
	query := `
		SELECT id, name, email, phone, created_at, updated_at
		FROM borrowers
		ORDER BY name, created_at
	`

	var borrowers []*domain.Borrower
	if err := r.db.SelectContext(ctx, &borrowers, query); err != nil {
		return nil, err
	}

	return borrowers, nil
}

func (r *borrowerRepository) Update(ctx context.Context, borrower *domain.Borrower) error {
	query := `
		UPDATE borrowers
		SET name = :name, email = :email, phone = :phone, updated_at = :updated_at
		WHERE id = :id
	`

	res, err := r.db.NamedExecContext(ctx, query, borrower)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *borrowerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM borrowers WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *borrowerRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM borrowers`)
	return n, err
}
