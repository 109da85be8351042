package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"

	"github.com/shopspring/decimal"
)

const loanColumns = `id, borrower_id, borrower_name, principal, interest_rate, issue_date, due_date,
	status, notes, schedule_frequency, next_payment_date, installments, installment_amount,
	paid_installments, anchor_day, created_at, updated_at`

// loanRow flattens the optional payment schedule into nullable columns.
type loanRow struct {
	ID                string              `db:"id"`
	BorrowerID        string              `db:"borrower_id"`
	BorrowerName      string              `db:"borrower_name"`
	Principal         decimal.Decimal     `db:"principal"`
	InterestRate      decimal.Decimal     `db:"interest_rate"`
	IssueDate         string              `db:"issue_date"`
	DueDate           string              `db:"due_date"`
	Status            string              `db:"status"`
	Notes             string              `db:"notes"`
	Frequency         sql.NullString      `db:"schedule_frequency"`
	NextPaymentDate   sql.NullString      `db:"next_payment_date"`
	Installments      sql.NullInt64       `db:"installments"`
	InstallmentAmount decimal.NullDecimal `db:"installment_amount"`
	PaidInstallments  sql.NullInt64       `db:"paid_installments"`
	AnchorDay         sql.NullInt64       `db:"anchor_day"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

func toLoanRow(loan *domain.Loan) loanRow {
	row := loanRow{
		ID:           loan.ID,
		BorrowerID:   loan.BorrowerID,
		BorrowerName: loan.BorrowerName,
		Principal:    loan.Principal,
		InterestRate: loan.InterestRate,
		IssueDate:    loan.IssueDate,
		DueDate:      loan.DueDate,
		Status:       string(loan.Status),
		Notes:        loan.Notes,
		CreatedAt:    loan.CreatedAt,
		UpdatedAt:    loan.UpdatedAt,
	}

	if s := loan.PaymentSchedule; s != nil {
		row.Frequency = sql.NullString{String: string(s.Frequency), Valid: true}
		row.NextPaymentDate = sql.NullString{String: s.NextPaymentDate, Valid: true}
		row.Installments = sql.NullInt64{Int64: int64(s.Installments), Valid: true}
		row.InstallmentAmount = decimal.NullDecimal{Decimal: s.InstallmentAmount, Valid: true}
		if s.PaidInstallments != nil {
			row.PaidInstallments = sql.NullInt64{Int64: int64(*s.PaidInstallments), Valid: true}
		}
		if s.AnchorDay > 0 {
			row.AnchorDay = sql.NullInt64{Int64: int64(s.AnchorDay), Valid: true}
		}
	}

	return row
}

func (row loanRow) toDomain() *domain.Loan {
	loan := &domain.Loan{
		ID:           row.ID,
		BorrowerID:   row.BorrowerID,
		BorrowerName: row.BorrowerName,
		Principal:    row.Principal,
		InterestRate: row.InterestRate,
		IssueDate:    row.IssueDate,
		DueDate:      row.DueDate,
		Status:       domain.LoanStatus(row.Status),
		Notes:        row.Notes,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}

	if row.Frequency.Valid {
		schedule := &domain.PaymentSchedule{
			Frequency:         domain.Frequency(row.Frequency.String),
			NextPaymentDate:   row.NextPaymentDate.String,
			Installments:      int(row.Installments.Int64),
			InstallmentAmount: row.InstallmentAmount.Decimal,
			AnchorDay:         int(row.AnchorDay.Int64),
		}
		if row.PaidInstallments.Valid {
			paid := int(row.PaidInstallments.Int64)
			schedule.PaidInstallments = &paid
		}
		loan.PaymentSchedule = schedule
	}

	return loan
}

type loanRepository struct {
	db Queryer
}

func NewLoanRepository(db Queryer) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (:id, :borrower_id, :borrower_name, :principal, :interest_rate, :issue_date, :due_date,
			:status, :notes, :schedule_frequency, :next_payment_date, :installments, :installment_amount,
			:paid_installments, :anchor_day, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, toLoanRow(loan))
	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := r.db.Rebind(`SELECT ` + loanColumns + ` FROM loans WHERE id = ?`)

	var row loanRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return row.toDomain(), nil
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.BorrowerID != "" {
		conditions = append(conditions, "borrower_id = ?")
		args = append(args, filter.BorrowerID)
	}

	query := `SELECT ` + loanColumns + ` FROM loans`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY issue_date DESC, created_at DESC`

	var rows []loanRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for _, row := range rows {
		loans = append(loans, row.toDomain())
	}
	return loans, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET borrower_id = :borrower_id, borrower_name = :borrower_name, principal = :principal,
			interest_rate = :interest_rate, issue_date = :issue_date, due_date = :due_date,
			status = :status, notes = :notes, schedule_frequency = :schedule_frequency,
			next_payment_date = :next_payment_date, installments = :installments,
			installment_amount = :installment_amount, paid_installments = :paid_installments,
			anchor_day = :anchor_day, updated_at = :updated_at
		WHERE id = :id
	`

	res, err := r.db.NamedExecContext(ctx, query, toLoanRow(loan))
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *loanRepository) Delete(ctx context.Context, id string) error {
	return inTx(ctx, r.db, func(tx Queryer) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM payments WHERE loan_id = ?`), id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM loans WHERE id = ?`), id)
		if err != nil {
			return err
		}
		return rowsAffected(res)
	})
}

func (r *loanRepository) UpdateBorrowerName(ctx context.Context, borrowerID, name string) error {
	query := r.db.Rebind(`UPDATE loans SET borrower_name = ?, updated_at = ? WHERE borrower_id = ?`)

	_, err := r.db.ExecContext(ctx, query, name, time.Now().UTC(), borrowerID)
	return err
}

func (r *loanRepository) CountByBorrower(ctx context.Context, borrowerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM loans WHERE borrower_id = ?`), borrowerID)
	return n, err
}
