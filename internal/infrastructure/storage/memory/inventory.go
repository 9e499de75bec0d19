package memory

import (
	"context"
	"sort"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/inventory"
)

// InventoryRepo is the in-memory implementation of inventory.Repository.
type InventoryRepo struct {
	s *Store
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// Inventory returns the item repository view of the store.
func (s *Store) Inventory() *InventoryRepo {
	return &InventoryRepo{s: s}
}

func (r *InventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	if _, ok := r.s.items[item.ID]; ok {
		return apperror.NewDuplicate("item", item.ID)
	}
	r.s.items[item.ID] = *item
	if t != nil {
		itemID := item.ID
		t.record(func() { delete(r.s.items, itemID) })
	}
	return nil
}

func (r *InventoryRepo) GetByID(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()
	return r.get(itemID)
}

// GetForUpdate is GetByID: the transaction's writer lock already excludes
// every concurrent mutation.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()
	return r.get(itemID)
}

func (r *InventoryRepo) get(itemID id.ID) (*inventory.Item, error) {
	item, ok := r.s.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID)
	}
	return &item, nil
}

func (r *InventoryRepo) List(ctx context.Context) ([]*inventory.Item, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	items := make([]*inventory.Item, 0, len(r.s.items))
	for _, item := range r.s.items {
		item := item
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *InventoryRepo) UpdateStock(ctx context.Context, itemID id.ID, stock types.Quantity) error {
	return r.mutate(ctx, itemID, func(item *inventory.Item) {
		item.Stock = stock
	})
}

func (r *InventoryRepo) UpdateSupplier(ctx context.Context, itemID id.ID, supplierID id.ID) error {
	return r.mutate(ctx, itemID, func(item *inventory.Item) {
		item.SupplierID = &supplierID
	})
}

func (r *InventoryRepo) mutate(ctx context.Context, itemID id.ID, fn func(*inventory.Item)) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	item, ok := r.s.items[itemID]
	if !ok {
		return apperror.NewNotFound("item", itemID)
	}
	if t != nil {
		prev := item
		t.record(func() { r.s.items[itemID] = prev })
	}
	fn(&item)
	item.UpdatedAt = time.Now().UTC()
	r.s.items[itemID] = item
	return nil
}
