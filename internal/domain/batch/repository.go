package batch

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// Repository defines the interface for stock batch persistence.
//
// Eligible batches are those with quantity > 0 and expiry strictly in the
// future; both eligible listings return them in FEFO order: expiry date
// ascending, then creation ascending (oldest lot first on ties).
type Repository interface {
	// Create inserts a new batch.
	Create(ctx context.Context, b *StockBatch) error

	// GetByID retrieves a batch, NotFound if absent.
	GetByID(ctx context.Context, batchID id.ID) (*StockBatch, error)

	// GetForUpdate retrieves a batch with a row lock.
	// Must be called inside a transaction.
	GetForUpdate(ctx context.Context, batchID id.ID) (*StockBatch, error)

	// GetByNumberForUpdate retrieves the batch with the given number for the
	// item, row-locked. Returns (nil, nil) when no such batch exists so the
	// ledger can decide between increment and create.
	GetByNumberForUpdate(ctx context.Context, inventoryID id.ID, batchNumber string) (*StockBatch, error)

	// UpdateQuantity overwrites a batch quantity.
	// Callers hold the row lock and have already checked non-negativity.
	UpdateQuantity(ctx context.Context, batchID id.ID, quantity types.Quantity) error

	// ListByInventory returns all batches for an item in FEFO order,
	// including expired and empty ones.
	ListByInventory(ctx context.Context, inventoryID id.ID) ([]StockBatch, error)

	// ListEligible returns sale-eligible batches in FEFO order.
	ListEligible(ctx context.Context, inventoryID id.ID, now time.Time) ([]StockBatch, error)

	// ListEligibleForUpdate is ListEligible with row locks, for allocation.
	// Must be called inside a transaction.
	ListEligibleForUpdate(ctx context.Context, inventoryID id.ID, now time.Time) ([]StockBatch, error)

	// SumQuantities returns the batch-quantity sum for an item.
	SumQuantities(ctx context.Context, inventoryID id.ID) (types.Quantity, error)
}
