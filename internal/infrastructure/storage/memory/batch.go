package memory

import (
	"context"
	"sort"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/batch"
)

// BatchRepo is the in-memory implementation of batch.Repository.
type BatchRepo struct {
	s *Store
}

var _ batch.Repository = (*BatchRepo)(nil)

// Batches returns the batch repository view of the store.
func (s *Store) Batches() *BatchRepo {
	return &BatchRepo{s: s}
}

func (r *BatchRepo) Create(ctx context.Context, b *batch.StockBatch) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	if _, ok := r.s.batches[b.ID]; ok {
		return apperror.NewDuplicate("batch", b.ID)
	}
	for _, existing := range r.s.batches {
		if existing.InventoryID == b.InventoryID && existing.BatchNumber == b.BatchNumber {
			return apperror.NewDuplicate("batch", b.BatchNumber)
		}
	}
	r.s.batches[b.ID] = *b
	if t != nil {
		batchID := b.ID
		t.record(func() { delete(r.s.batches, batchID) })
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.StockBatch, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()
	return r.get(batchID)
}

func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*batch.StockBatch, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()
	return r.get(batchID)
}

func (r *BatchRepo) get(batchID id.ID) (*batch.StockBatch, error) {
	b, ok := r.s.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID)
	}
	return &b, nil
}

func (r *BatchRepo) GetByNumberForUpdate(ctx context.Context, inventoryID id.ID, batchNumber string) (*batch.StockBatch, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	for _, b := range r.s.batches {
		if b.InventoryID == inventoryID && b.BatchNumber == batchNumber {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (r *BatchRepo) UpdateQuantity(ctx context.Context, batchID id.ID, quantity types.Quantity) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	b, ok := r.s.batches[batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID)
	}
	if t != nil {
		prev := b
		t.record(func() { r.s.batches[batchID] = prev })
	}
	b.Quantity = quantity
	b.UpdatedAt = time.Now().UTC()
	r.s.batches[batchID] = b
	return nil
}

func (r *BatchRepo) ListByInventory(ctx context.Context, inventoryID id.ID) ([]batch.StockBatch, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	return r.collect(func(b batch.StockBatch) bool {
		return b.InventoryID == inventoryID
	}), nil
}

func (r *BatchRepo) ListEligible(ctx context.Context, inventoryID id.ID, now time.Time) ([]batch.StockBatch, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	return r.collect(func(b batch.StockBatch) bool {
		return b.InventoryID == inventoryID && b.Quantity.IsPositive() && b.ExpiryDate.After(now)
	}), nil
}

// ListEligibleForUpdate is ListEligible: row locks degenerate to the
// transaction's writer lock here.
func (r *BatchRepo) ListEligibleForUpdate(ctx context.Context, inventoryID id.ID, now time.Time) ([]batch.StockBatch, error) {
	return r.ListEligible(ctx, inventoryID, now)
}

// collect filters batches and sorts them FEFO: expiry ascending, creation
// ascending on ties.
func (r *BatchRepo) collect(keep func(batch.StockBatch) bool) []batch.StockBatch {
	var batches []batch.StockBatch
	for _, b := range r.s.batches {
		if keep(b) {
			batches = append(batches, b)
		}
	}
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].ExpiryDate.Equal(batches[j].ExpiryDate) {
			return batches[i].ExpiryDate.Before(batches[j].ExpiryDate)
		}
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
	return batches
}

func (r *BatchRepo) SumQuantities(ctx context.Context, inventoryID id.ID) (types.Quantity, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	var sum types.Quantity
	for _, b := range r.s.batches {
		if b.InventoryID == inventoryID {
			sum += b.Quantity
		}
	}
	return sum, nil
}
