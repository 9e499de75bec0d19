package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/expense"
)

// ExpenseRepo is the PostgreSQL implementation of expense.Recorder.
type ExpenseRepo struct {
	tx      *TxManager
	builder sq.StatementBuilderType
}

var _ expense.Recorder = (*ExpenseRepo)(nil)

// NewExpenseRepo creates an expense recorder.
func NewExpenseRepo(tx *TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		tx:      tx,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Record inserts an expense entry, assigning identity and timestamps when
// the caller left them zero.
func (r *ExpenseRepo) Record(ctx context.Context, e expense.Expense) (expense.Expense, error) {
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

	query, args, err := r.builder.
		Insert("expenses").
		Columns("id", "description", "amount", "date", "type", "created_at").
		Values(e.ID, e.Description, e.Amount, e.Date, e.Type, e.CreatedAt).
		ToSql()
	if err != nil {
		return expense.Expense{}, apperror.NewInternal("failed to build expense insert", err)
	}

	if _, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return expense.Expense{}, apperror.NewDatabase("failed to insert expense", err)
	}
	return e, nil
}
