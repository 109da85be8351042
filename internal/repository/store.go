package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type sqlStore struct {
	db        *sqlx.DB
	q         Queryer
	borrowers BorrowerRepository
	loans     LoanRepository
	payments  PaymentRepository
}

// NewSQLStore wraps an open connection. The same queries serve postgres and sqlite3;
// placeholders are rebound for the connection's driver.
func NewSQLStore(db *sqlx.DB) Store {
	return newSQLStore(db, db)
}

func newSQLStore(db *sqlx.DB, q Queryer) *sqlStore {
	return &sqlStore{
		db:        db,
		q:         q,
		borrowers: NewBorrowerRepository(q),
		loans:     NewLoanRepository(q),
		payments:  NewPaymentRepository(q),
	}
}

// Open connects to driver/dsn and applies the pool settings.
func Open(ctx context.Context, driver, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}

	return db, nil
}

// Migrate creates the tables and indexes when they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if db.DriverName() == "sqlite3" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *sqlStore) Borrowers() BorrowerRepository { return s.borrowers }
func (s *sqlStore) Loans() LoanRepository         { return s.loans }
func (s *sqlStore) Payments() PaymentRepository   { return s.payments }

// WithTx runs fn against repositories bound to one transaction. A nested call joins
// the outer transaction.
func (s *sqlStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return inTx(ctx, s.q, func(q Queryer) error {
		if q == s.q {
			return fn(s)
		}
		return fn(newSQLStore(s.db, q))
	})
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// inTx begins a transaction when q is the pool and commits it when fn succeeds.
// When q is already a transaction fn runs on it directly.
func inTx(ctx context.Context, q Queryer, fn func(tx Queryer) error) error {
	db, ok := q.(*sqlx.DB)
	if !ok {
		return fn(q)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// rowsAffected maps an UPDATE/DELETE that touched nothing onto ErrNotFound.
func rowsAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
