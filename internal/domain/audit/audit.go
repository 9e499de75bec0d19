// Package audit defines the audit trail contract for stock mutations.
// Every ledger, transfer and home-use mutation records an entry; the
// PostgreSQL implementation lives in infrastructure/storage/postgres.
package audit

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate    Action = "create"
	ActionIncrement Action = "increment"
	ActionDecrement Action = "decrement"
	ActionTransfer  Action = "transfer"
	ActionTake      Action = "take"
	ActionSettle    Action = "settle"
	ActionReconcile Action = "reconcile"
)

// Entry is a single audit record. Changes hold the mutated values
// (quantities, statuses) as plain key-value pairs.
type Entry struct {
	ID         id.ID
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     id.ID
	Changes    map[string]any
	CreatedAt  time.Time
}

// Recorder persists audit entries. Implementations must be safe to call
// inside the same transaction as the mutation they describe.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop is a Recorder that discards entries. Used where auditing is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
