// Package memory keeps every record in process memory. It backs DATABASE_DRIVER=memory
// and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/repository"
)

type Store struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	borrowers map[string]domain.Borrower
	loans     map[string]*domain.Loan
	payments  map[string]domain.Payment
}

func NewStore() *Store {
	return &Store{
		borrowers: make(map[string]domain.Borrower),
		loans:     make(map[string]*domain.Loan),
		payments:  make(map[string]domain.Payment),
	}
}

func (s *Store) Borrowers() repository.BorrowerRepository { return borrowerRepo{s} }
func (s *Store) Loans() repository.LoanRepository         { return loanRepo{s} }
func (s *Store) Payments() repository.PaymentRepository   { return paymentRepo{s} }

// WithTx serializes units of work and restores the state captured before fn
// when fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type state struct {
	borrowers map[string]domain.Borrower
	loans     map[string]*domain.Loan
	payments  map[string]domain.Payment
}

func (s *Store) snapshot() state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := state{
		borrowers: make(map[string]domain.Borrower, len(s.borrowers)),
		loans:     make(map[string]*domain.Loan, len(s.loans)),
		payments:  make(map[string]domain.Payment, len(s.payments)),
	}
	for id, b := range s.borrowers {
		snap.borrowers[id] = b
	}
	for id, loan := range s.loans {
		snap.loans[id] = loan.Clone()
	}
	for id, p := range s.payments {
		snap.payments[id] = p
	}
	return snap
}

func (s *Store) restore(snap state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.borrowers = snap.borrowers
	s.loans = snap.loans
	s.payments = snap.payments
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

type borrowerRepo struct{ s *Store }

func (r borrowerRepo) Create(_ context.Context, b *domain.Borrower) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.borrowers[b.ID] = *b
	return nil
}

func (r borrowerRepo) GetByID(_ context.Context, id string) (*domain.Borrower, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.borrowers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r borrowerRepo) List(_ context.Context) ([]*domain.Borrower, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Borrower, 0, len(r.s.borrowers))
	for _, b := range r.s.borrowers {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r borrowerRepo) Update(_ context.Context, b *domain.Borrower) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.borrowers[b.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.borrowers[b.ID] = *b
	return nil
}

func (r borrowerRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.borrowers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.borrowers, id)
	return nil
}

func (r borrowerRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.borrowers), nil
}

type loanRepo struct{ s *Store }

func (r loanRepo) Create(_ context.Context, loan *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.loans[loan.ID] = loan.Clone()
	return nil
}

func (r loanRepo) GetByID(_ context.Context, id string) (*domain.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	loan, ok := r.s.loans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return loan.Clone(), nil
}

func (r loanRepo) List(_ context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Loan, 0, len(r.s.loans))
	for _, loan := range r.s.loans {
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		if filter.BorrowerID != "" && loan.BorrowerID != filter.BorrowerID {
			continue
		}
		out = append(out, loan.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssueDate != out[j].IssueDate {
			return out[i].IssueDate > out[j].IssueDate
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r loanRepo) Update(_ context.Context, loan *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.loans[loan.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.loans[loan.ID] = loan.Clone()
	return nil
}

func (r loanRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.loans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.loans, id)
	for pid, p := range r.s.payments {
		if p.LoanID == id {
			delete(r.s.payments, pid)
		}
	}
	return nil
}

func (r loanRepo) UpdateBorrowerName(_ context.Context, borrowerID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, loan := range r.s.loans {
		if loan.BorrowerID == borrowerID {
			loan.BorrowerName = name
		}
	}
	return nil
}

func (r loanRepo) CountByBorrower(_ context.Context, borrowerID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, loan := range r.s.loans {
		if loan.BorrowerID == borrowerID {
			n++
		}
	}
	return n, nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r paymentRepo) GetByLoanID(_ context.Context, loanID string) ([]*domain.Payment, error) {
	return r.collect(func(p domain.Payment) bool { return p.LoanID == loanID }), nil
}

func (r paymentRepo) List(_ context.Context) ([]*domain.Payment, error) {
	return r.collect(func(domain.Payment) bool { return true }), nil
}

func (r paymentRepo) collect(keep func(domain.Payment) bool) []*domain.Payment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range r.s.payments {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r paymentRepo) Update(_ context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.payments, id)
	return nil
}

var _ repository.Store = (*Store)(nil)
