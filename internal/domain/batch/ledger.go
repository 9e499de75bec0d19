package batch

import (
	"context"
	"fmt"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/audit"
	"pharmstock/internal/domain/inventory"
	"pharmstock/pkg/logger"
)

// Ledger owns all batch quantity mutations and the item aggregate.
// Every mutation runs in one transaction: batch write plus aggregate
// recompute, so inventory.Stock never diverges from the batch sum.
type Ledger struct {
	batches   Repository
	items     inventory.Repository
	txManager tx.Manager
	auditor   audit.Recorder
}

// NewLedger creates a batch ledger.
func NewLedger(batches Repository, items inventory.Repository, txManager tx.Manager, auditor audit.Recorder) *Ledger {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Ledger{
		batches:   batches,
		items:     items,
		txManager: txManager,
		auditor:   auditor,
	}
}

// AddBatch records received stock. If the batch number already exists for the
// item the existing batch is incremented, otherwise a new batch is created.
// The item aggregate is recomputed in the same transaction.
func (l *Ledger) AddBatch(ctx context.Context, in AddBatchInput) (*inventory.Item, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", in.Quantity.Int64())
	}
	if in.BatchNumber == "" {
		return nil, apperror.NewValidation("batch number is required")
	}

	var item *inventory.Item
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := l.items.GetForUpdate(ctx, in.InventoryID)
		if err != nil {
			return err
		}

		existing, err := l.batches.GetByNumberForUpdate(ctx, in.InventoryID, in.BatchNumber)
		if err != nil {
			return fmt.Errorf("lookup batch %q: %w", in.BatchNumber, err)
		}

		var batchID id.ID
		if existing != nil {
			// Replenishment of a known lot. The stored expiry stays
			// authoritative and is not revalidated.
			batchID = existing.ID
			if err := l.batches.UpdateQuantity(ctx, existing.ID, existing.Quantity+in.Quantity); err != nil {
				return fmt.Errorf("increment batch: %w", err)
			}
		} else {
			if !in.ExpiryDate.After(time.Now().UTC()) {
				return apperror.NewValidation("expiry date must be in the future").
					WithDetail("expiryDate", in.ExpiryDate)
			}
			now := time.Now().UTC()
			b := &StockBatch{
				ID:           id.New(),
				InventoryID:  in.InventoryID,
				BatchNumber:  in.BatchNumber,
				Quantity:     in.Quantity,
				ExpiryDate:   in.ExpiryDate,
				PurchaseDate: in.PurchaseDate,
				SupplierID:   in.SupplierID,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := l.batches.Create(ctx, b); err != nil {
				return fmt.Errorf("create batch: %w", err)
			}
			batchID = b.ID
		}

		// Stock may now come from a different supplier than the one on record.
		if in.SupplierID != nil && (locked.SupplierID == nil || *locked.SupplierID != *in.SupplierID) {
			if err := l.items.UpdateSupplier(ctx, in.InventoryID, *in.SupplierID); err != nil {
				return fmt.Errorf("update supplier: %w", err)
			}
		}

		if err := l.recomputeStock(ctx, in.InventoryID); err != nil {
			return err
		}

		_ = l.auditor.Record(ctx, audit.Entry{
			EntityType: "stock_batch",
			EntityID:   batchID,
			Action:     audit.ActionCreate,
			Changes: map[string]any{
				"batch_number": in.BatchNumber,
				"quantity":     in.Quantity.Int64(),
				"expiry_date":  in.ExpiryDate,
			},
		})

		item, err = l.items.GetByID(ctx, in.InventoryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch added",
		"inventory_id", in.InventoryID,
		"batch_number", in.BatchNumber,
		"quantity", in.Quantity.Int64(),
	)
	return item, nil
}

// Decrement reduces a batch quantity and recomputes the item aggregate.
// Fails with InsufficientStock when the batch cannot cover the quantity;
// nothing is applied on failure.
func (l *Ledger) Decrement(ctx context.Context, batchID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.Int64())
	}

	return l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := l.batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if b.Quantity < qty {
			return apperror.NewInsufficientStock("batch", batchID, qty.Int64(), b.Quantity.Int64())
		}
		if err := l.batches.UpdateQuantity(ctx, batchID, b.Quantity-qty); err != nil {
			return fmt.Errorf("decrement batch: %w", err)
		}
		if err := l.recomputeStock(ctx, b.InventoryID); err != nil {
			return err
		}
		_ = l.auditor.Record(ctx, audit.Entry{
			EntityType: "stock_batch",
			EntityID:   batchID,
			Action:     audit.ActionDecrement,
			Changes:    map[string]any{"quantity": qty.Int64()},
		})
		return nil
	})
}

// Increment raises a batch quantity and recomputes the item aggregate.
func (l *Ledger) Increment(ctx context.Context, batchID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.Int64())
	}

	return l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := l.batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if err := l.batches.UpdateQuantity(ctx, batchID, b.Quantity+qty); err != nil {
			return fmt.Errorf("increment batch: %w", err)
		}
		if err := l.recomputeStock(ctx, b.InventoryID); err != nil {
			return err
		}
		_ = l.auditor.Record(ctx, audit.Entry{
			EntityType: "stock_batch",
			EntityID:   batchID,
			Action:     audit.ActionIncrement,
			Changes:    map[string]any{"quantity": qty.Int64()},
		})
		return nil
	})
}

// Reconcile recomputes and overwrites the item aggregate from the batch set.
// Defensive: with all mutations flowing through the ledger the aggregate
// cannot drift, but collaborators call this to self-heal after migrations
// or manual fixes.
func (l *Ledger) Reconcile(ctx context.Context, inventoryID id.ID) (types.Quantity, error) {
	var total types.Quantity
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := l.items.GetForUpdate(ctx, inventoryID); err != nil {
			return err
		}
		if err := l.recomputeStock(ctx, inventoryID); err != nil {
			return err
		}
		var err error
		total, err = l.batches.SumQuantities(ctx, inventoryID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Summary returns the per-batch breakdown for an item with days-until-expiry.
func (l *Ledger) Summary(ctx context.Context, inventoryID id.ID) (*StockSummary, error) {
	if _, err := l.items.GetByID(ctx, inventoryID); err != nil {
		return nil, err
	}

	batches, err := l.batches.ListByInventory(ctx, inventoryID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	now := time.Now().UTC()
	summary := &StockSummary{
		InventoryID: inventoryID,
		Batches:     make([]BatchView, 0, len(batches)),
	}
	for _, b := range batches {
		summary.TotalQuantity += b.Quantity
		summary.Batches = append(summary.Batches, BatchView{
			BatchID:         b.ID,
			BatchNumber:     b.BatchNumber,
			Quantity:        b.Quantity,
			ExpiryDate:      b.ExpiryDate,
			DaysUntilExpiry: DaysUntilExpiry(b.ExpiryDate, now),
		})
	}
	return summary, nil
}

// recomputeStock overwrites the item aggregate with the current batch sum.
// Must run inside the mutating transaction.
func (l *Ledger) recomputeStock(ctx context.Context, inventoryID id.ID) error {
	total, err := l.batches.SumQuantities(ctx, inventoryID)
	if err != nil {
		return fmt.Errorf("sum batches: %w", err)
	}
	if err := l.items.UpdateStock(ctx, inventoryID, total); err != nil {
		return fmt.Errorf("update stock aggregate: %w", err)
	}
	return nil
}
