// Package memory provides an in-memory storage backend with transactional
// semantics, used by the test suites and the dev server mode.
//
// Transactions take a single writer lock for their whole duration, so
// per-batch serialization holds trivially. Mutations inside a transaction
// append undo closures to a journal; on error or context cancellation the
// journal replays in reverse, leaving state exactly as before.
package memory

import (
	"context"
	"sync"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/domain/alert"
	"pharmstock/internal/domain/audit"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/expense"
	"pharmstock/internal/domain/homeuse"
	"pharmstock/internal/domain/inventory"
	"pharmstock/internal/domain/transfer"
)

type txTokenKey struct{}

// txToken marks a context as running inside a transaction and carries the
// undo journal.
type txToken struct {
	undo []func()
}

func (t *txToken) record(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *txToken) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// Store holds all engine state in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	items     map[id.ID]inventory.Item
	batches   map[id.ID]batch.StockBatch
	transfers map[id.ID]transfer.Record
	homeUse   map[id.ID]homeuse.Record
	alerts    map[id.ID]alert.StockAlert
	expenses  map[id.ID]expense.Expense
	audits    []audit.Entry
}

var (
	_ tx.Manager         = (*Store)(nil)
	_ tx.ReadOnlyManager = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items:     make(map[id.ID]inventory.Item),
		batches:   make(map[id.ID]batch.StockBatch),
		transfers: make(map[id.ID]transfer.Record),
		homeUse:   make(map[id.ID]homeuse.Record),
		alerts:    make(map[id.ID]alert.StockAlert),
		expenses:  make(map[id.ID]expense.Expense),
	}
}

func token(ctx context.Context) *txToken {
	t, _ := ctx.Value(txTokenKey{}).(*txToken)
	return t
}

// RunInTransaction executes fn under the writer lock with rollback on error.
// Nested calls reuse the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if token(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &txToken{}
	err := fn(context.WithValue(ctx, txTokenKey{}, t))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		t.rollback()
		return err
	}
	return nil
}

// ReadOnly executes fn under the reader lock.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if token(ctx) != nil {
		return fn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	// reuse the token mechanism so nested repo calls skip locking; reads
	// never touch the journal
	return fn(context.WithValue(ctx, txTokenKey{}, &txToken{}))
}

// lockWrite acquires the writer lock unless a transaction already holds it.
// Returns the journal (nil outside a transaction) and an unlock func.
func (s *Store) lockWrite(ctx context.Context) (*txToken, func()) {
	if t := token(ctx); t != nil {
		return t, func() {}
	}
	s.mu.Lock()
	return nil, s.mu.Unlock
}

// lockRead acquires the reader lock unless a transaction already holds the
// writer lock.
func (s *Store) lockRead(ctx context.Context) func() {
	if token(ctx) != nil {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}
