// Package expense defines the expense-ledger sink consumed by the stock
// engine. The full expense subsystem is an external collaborator; the engine
// only records home-use withdrawals flagged as business expenses and
// settlement payments.
package expense

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// Expense types written by the engine.
const (
	TypeHomeUse = "HOME_USE_PRODUCT"
)

// Expense is one expense-ledger entry.
type Expense struct {
	ID          id.ID       `db:"id" json:"id"`
	Description string      `db:"description" json:"description"`
	Amount      types.Money `db:"amount" json:"amount"`
	Date        time.Time   `db:"date" json:"date"`
	Type        string      `db:"expense_type" json:"type"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

// Recorder persists expense entries.
type Recorder interface {
	Record(ctx context.Context, exp Expense) (Expense, error)
}
