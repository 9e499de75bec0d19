package alert_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/alert"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/inventory"
	"pharmstock/internal/infrastructure/storage/memory"
)

type fixture struct {
	store     *memory.Store
	ledger    *batch.Ledger
	service   *alert.Service
	evaluator *alert.Evaluator
	item      *inventory.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	ledger := batch.NewLedger(store.Batches(), store.Inventory(), store, store.Audit())
	service := alert.NewService(store.Alerts(), store.Inventory())
	evaluator := alert.NewEvaluator(store.Alerts(), store.Batches())

	item := inventory.NewItem("Amoxicillin 500mg", types.MustMoney("2.00"), types.MustMoney("4.50"))
	require.NoError(t, store.Inventory().Create(context.Background(), item))

	return &fixture{store: store, ledger: ledger, service: service, evaluator: evaluator, item: item}
}

func (f *fixture) addBatch(t *testing.T, number string, qty types.Quantity, expiryDays int) id.ID {
	t.Helper()
	ctx := context.Background()

	_, err := f.ledger.AddBatch(ctx, batch.AddBatchInput{
		InventoryID: f.item.ID,
		BatchNumber: number,
		Quantity:    qty,
		ExpiryDate:  time.Now().UTC().AddDate(0, 0, expiryDays),
	})
	require.NoError(t, err)

	b, err := f.store.Batches().GetByNumberForUpdate(ctx, f.item.ID, number)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.ID
}

func TestLowStockBoundary(t *testing.T) {
	tests := []struct {
		name string
		qty  types.Quantity
		want bool
	}{
		{"below threshold fires", 9, true},
		{"at threshold fires", 10, true},
		{"above threshold silent", 11, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.addBatch(t, "B1", tt.qty, 90)

			a, err := f.service.Create(ctx, alert.CreateInput{
				InventoryID: f.item.ID,
				Type:        alert.TypeLowStock,
				Threshold:   10,
				Message:     "reorder",
			})
			require.NoError(t, err)

			triggered, err := f.evaluator.Evaluate(ctx)
			require.NoError(t, err)
			if tt.want {
				require.Len(t, triggered, 1)
				assert.Equal(t, a.ID, triggered[0].Alert.ID)
				assert.Equal(t, tt.qty.Int64(), triggered[0].Observed)
			} else {
				assert.Empty(t, triggered)
			}
		})
	}
}

func TestHighStockBoundary(t *testing.T) {
	tests := []struct {
		name string
		qty  types.Quantity
		want bool
	}{
		{"below threshold silent", 99, false},
		{"at threshold fires", 100, true},
		{"above threshold fires", 101, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.addBatch(t, "B1", tt.qty, 90)

			_, err := f.service.Create(ctx, alert.CreateInput{
				InventoryID: f.item.ID,
				Type:        alert.TypeHighStock,
				Threshold:   100,
				Message:     "overstocked",
			})
			require.NoError(t, err)

			triggered, err := f.evaluator.Evaluate(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, len(triggered) == 1)
		})
	}
}

func TestExpiryBoundary(t *testing.T) {
	tests := []struct {
		name       string
		expiryDays int
		want       bool
	}{
		{"29 days out fires", 29, true},
		{"30 days out fires", 30, true},
		{"31 days out silent", 31, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			batchID := f.addBatch(t, "B1", 5, tt.expiryDays)

			_, err := f.service.Create(ctx, alert.CreateInput{
				InventoryID: f.item.ID,
				BatchID:     &batchID,
				Type:        alert.TypeExpiry,
				Threshold:   30,
				Message:     "expiring soon",
			})
			require.NoError(t, err)

			triggered, err := f.evaluator.Evaluate(ctx)
			require.NoError(t, err)
			if tt.want {
				require.Len(t, triggered, 1)
				assert.Equal(t, int64(tt.expiryDays), triggered[0].Observed)
			} else {
				assert.Empty(t, triggered)
			}
		})
	}
}

func TestItemScopedExpiryWatchesSoonestNonEmptyBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soon := f.addBatch(t, "SOON", 5, 10)
	f.addBatch(t, "LATER", 5, 120)

	_, err := f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		Type:        alert.TypeExpiry,
		Threshold:   30,
		Message:     "expiring soon",
	})
	require.NoError(t, err)

	triggered, err := f.evaluator.Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, int64(10), triggered[0].Observed)

	// Draining the closest lot moves the watch to the next one.
	require.NoError(t, f.ledger.Decrement(ctx, soon, 5))
	triggered, err = f.evaluator.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, triggered)
}

func TestItemScopedExpiryWithNoStockIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		Type:        alert.TypeExpiry,
		Threshold:   30,
		Message:     "expiring soon",
	})
	require.NoError(t, err)

	triggered, err := f.evaluator.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, triggered)
}

func TestBatchScopedLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	watched := f.addBatch(t, "WATCHED", 3, 90)
	f.addBatch(t, "OTHER", 50, 90)

	_, err := f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		BatchID:     &watched,
		Type:        alert.TypeLowStock,
		Threshold:   5,
		Message:     "lot running out",
	})
	require.NoError(t, err)

	// The rule watches the lot, not the item aggregate of 53.
	triggered, err := f.evaluator.Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, int64(3), triggered[0].Observed)
}

func TestInactiveRulesAreSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBatch(t, "B1", 1, 90)

	a, err := f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		Type:        alert.TypeLowStock,
		Threshold:   10,
		Message:     "reorder",
	})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActive(ctx, a.ID, false))

	triggered, err := f.evaluator.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, triggered)
}

func TestMissingBatchIsSkippedNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBatch(t, "B1", 1, 90)

	ghost := id.New()
	_, err := f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		BatchID:     &ghost,
		Type:        alert.TypeLowStock,
		Threshold:   10,
		Message:     "watching a deleted lot",
	})
	require.NoError(t, err)

	_, err = f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		Type:        alert.TypeLowStock,
		Threshold:   10,
		Message:     "reorder",
	})
	require.NoError(t, err)

	// The broken rule is skipped; the healthy one still fires.
	triggered, err := f.evaluator.Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, "reorder", triggered[0].Alert.Message)
}

func TestCustomConditionOverridesBuiltin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBatch(t, "B1", 50, 20)

	// Built-in LOW_STOCK would stay silent at 50 vs threshold 10; the custom
	// condition fires on the expiry horizon instead.
	cond := "stock > threshold && days_until_expiry > 0 && days_until_expiry < 30"
	_, err := f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		Type:        alert.TypeLowStock,
		Threshold:   10,
		Condition:   &cond,
		Message:     "lots of soon-to-expire stock",
	})
	require.NoError(t, err)

	triggered, err := f.evaluator.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, triggered, "item-scoped rule has no expiry horizon")

	b, err := f.store.Batches().GetByNumberForUpdate(ctx, f.item.ID, "B1")
	require.NoError(t, err)
	_, err = f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		BatchID:     &b.ID,
		Type:        alert.TypeLowStock,
		Threshold:   10,
		Condition:   &cond,
		Message:     "batch-scoped",
	})
	require.NoError(t, err)

	triggered, err = f.evaluator.Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, "batch-scoped", triggered[0].Alert.Message)
}

func TestEvaluateAlertSingle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBatch(t, "B1", 4, 90)

	a, err := f.service.Create(ctx, alert.CreateInput{
		InventoryID: f.item.ID,
		Type:        alert.TypeLowStock,
		Threshold:   5,
		Message:     "reorder",
	})
	require.NoError(t, err)

	triggered, fired, err := f.evaluator.EvaluateAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, int64(4), triggered.Observed)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	badCond := "quantity +"
	notBool := "quantity + threshold"
	tests := []struct {
		name string
		in   alert.CreateInput
	}{
		{"unknown type", alert.CreateInput{InventoryID: f.item.ID, Type: "WEIRD", Threshold: 1, Message: "m"}},
		{"negative threshold", alert.CreateInput{InventoryID: f.item.ID, Type: alert.TypeLowStock, Threshold: -1, Message: "m"}},
		{"missing message", alert.CreateInput{InventoryID: f.item.ID, Type: alert.TypeLowStock, Threshold: 1}},
		{"broken condition", alert.CreateInput{InventoryID: f.item.ID, Type: alert.TypeLowStock, Threshold: 1, Condition: &badCond, Message: "m"}},
		{"non-boolean condition", alert.CreateInput{InventoryID: f.item.ID, Type: alert.TypeLowStock, Threshold: 1, Condition: &notBool, Message: "m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, tt.in)
			require.Error(t, err)
		})
	}
}
