package inventory

import (
	"context"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// Repository defines the interface for item persistence.
type Repository interface {
	// Create inserts a new item.
	Create(ctx context.Context, item *Item) error

	// GetByID retrieves an item, NotFound if absent.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// GetForUpdate retrieves an item with a row lock.
	// Must be called inside a transaction.
	GetForUpdate(ctx context.Context, itemID id.ID) (*Item, error)

	// List returns all items ordered by name.
	List(ctx context.Context) ([]*Item, error)

	// UpdateStock overwrites the derived aggregate.
	// Called only by the batch ledger, inside the mutating transaction.
	UpdateStock(ctx context.Context, itemID id.ID, stock types.Quantity) error

	// UpdateSupplier changes the item's supplier reference
	// (replenishment from a different supplier).
	UpdateSupplier(ctx context.Context, itemID id.ID, supplierID id.ID) error
}
