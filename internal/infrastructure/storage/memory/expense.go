package memory

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/expense"
)

// ExpenseRepo is the in-memory implementation of expense.Recorder.
type ExpenseRepo struct {
	s *Store
}

var _ expense.Recorder = (*ExpenseRepo)(nil)

// Expenses returns the expense recorder view of the store.
func (s *Store) Expenses() *ExpenseRepo {
	return &ExpenseRepo{s: s}
}

func (r *ExpenseRepo) Record(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	now := time.Now().UTC()
	if e.Date.IsZero() {
		e.Date = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}

	r.s.expenses[e.ID] = e
	if t != nil {
		expenseID := e.ID
		t.record(func() { delete(r.s.expenses, expenseID) })
	}
	return e, nil
}

// AllExpenses returns every recorded expense, for tests.
func (s *Store) AllExpenses(ctx context.Context) []expense.Expense {
	unlock := s.lockRead(ctx)
	defer unlock()

	out := make([]expense.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	return out
}
