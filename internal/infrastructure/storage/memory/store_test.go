package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/inventory"
)

func seedItemWithBatch(t *testing.T, s *Store, qty types.Quantity) (*inventory.Item, *batch.StockBatch) {
	t.Helper()
	ctx := context.Background()

	item := inventory.NewItem("Paracetamol 500mg", types.MustMoney("1.20"), types.MustMoney("2.50"))
	require.NoError(t, s.Inventory().Create(ctx, item))

	now := time.Now().UTC()
	b := &batch.StockBatch{
		ID:          id.New(),
		InventoryID: item.ID,
		BatchNumber: "LOT-001",
		Quantity:    qty,
		ExpiryDate:  now.AddDate(0, 0, 90),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.Batches().Create(ctx, b))
	require.NoError(t, s.Inventory().UpdateStock(ctx, item.ID, qty))
	return item, b
}

func TestRollbackRestoresState(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item, b := seedItemWithBatch(t, s, 10)

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Batches().UpdateQuantity(ctx, b.ID, 3); err != nil {
			return err
		}
		if err := s.Inventory().UpdateStock(ctx, item.ID, 3); err != nil {
			return err
		}
		extra := &batch.StockBatch{
			ID:          id.New(),
			InventoryID: item.ID,
			BatchNumber: "LOT-002",
			Quantity:    5,
			ExpiryDate:  time.Now().UTC().AddDate(0, 0, 30),
		}
		if err := s.Batches().Create(ctx, extra); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Batches().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(10), got.Quantity)

	it, err := s.Inventory().GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(10), it.Stock)

	batches, err := s.Batches().ListByInventory(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, batches, 1, "created batch rolled back")
}

func TestRollbackOnCancelledContext(t *testing.T) {
	s := NewStore()
	_, b := seedItemWithBatch(t, s, 10)

	ctx, cancel := context.WithCancel(context.Background())
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Batches().UpdateQuantity(ctx, b.ID, 0); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	got, err := s.Batches().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(10), got.Quantity)
}

func TestNestedTransactionSharesJournal(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, b := seedItemWithBatch(t, s, 10)

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Batches().UpdateQuantity(ctx, b.ID, 7); err != nil {
			return err
		}
		// Inner call reuses the outer transaction; its writes roll back with it.
		if err := s.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.Batches().UpdateQuantity(ctx, b.ID, 4)
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Batches().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(10), got.Quantity)
}

func TestCommitKeepsWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, b := seedItemWithBatch(t, s, 10)

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Batches().UpdateQuantity(ctx, b.ID, 4)
	})
	require.NoError(t, err)

	got, err := s.Batches().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(4), got.Quantity)
}

func TestReadOnlyAllowsNestedReads(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item, _ := seedItemWithBatch(t, s, 10)

	err := s.ReadOnly(ctx, func(ctx context.Context) error {
		sum, err := s.Batches().SumQuantities(ctx, item.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, types.Quantity(10), sum)

		_, err = s.Inventory().GetByID(ctx, item.ID)
		return err
	})
	require.NoError(t, err)
}

func TestRepositoriesReturnCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, b := seedItemWithBatch(t, s, 10)

	got, err := s.Batches().GetByID(ctx, b.ID)
	require.NoError(t, err)
	got.Quantity = 999

	again, err := s.Batches().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(10), again.Quantity, "caller mutation must not leak into the store")
}

func TestConcurrentTransactionsSerialize(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, b := seedItemWithBatch(t, s, 100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunInTransaction(ctx, func(ctx context.Context) error {
				cur, err := s.Batches().GetByID(ctx, b.ID)
				if err != nil {
					return err
				}
				return s.Batches().UpdateQuantity(ctx, b.ID, cur.Quantity-1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Batches().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), got.Quantity)
}
