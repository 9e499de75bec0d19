package homeuse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/expense"
	"pharmstock/internal/domain/homeuse"
	"pharmstock/internal/domain/inventory"
	"pharmstock/internal/infrastructure/storage/memory"
)

type fixture struct {
	store   *memory.Store
	ledger  *batch.Ledger
	service *homeuse.Service
	item    *inventory.Item
	batchID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	ledger := batch.NewLedger(store.Batches(), store.Inventory(), store, store.Audit())
	service := homeuse.NewService(
		store.HomeUse(), store.Inventory(), store.Batches(),
		ledger, store.Expenses(), store, store.Audit(),
	)

	item := inventory.NewItem("Paracetamol 500mg", types.MustMoney("1.20"), types.MustMoney("2.50"))
	require.NoError(t, store.Inventory().Create(ctx, item))

	_, err := ledger.AddBatch(ctx, batch.AddBatchInput{
		InventoryID: item.ID,
		BatchNumber: "LOT-001",
		Quantity:    20,
		ExpiryDate:  time.Now().UTC().AddDate(0, 0, 90),
	})
	require.NoError(t, err)

	b, err := store.Batches().GetByNumberForUpdate(ctx, item.ID, "LOT-001")
	require.NoError(t, err)

	return &fixture{store: store, ledger: ledger, service: service, item: item, batchID: b.ID}
}

func (f *fixture) batchQty(t *testing.T) types.Quantity {
	t.Helper()
	b, err := f.store.Batches().GetByID(context.Background(), f.batchID)
	require.NoError(t, err)
	return b.Quantity
}

func TestTakeDecrementsAndSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID,
		BatchID:     f.batchID,
		Quantity:    4,
		Purpose:     "first aid kit",
	})
	require.NoError(t, err)

	assert.Equal(t, homeuse.StatusTaken, rec.Status)
	assert.Equal(t, types.Quantity(16), f.batchQty(t))
	assert.True(t, rec.CostPrice.Equal(types.MustMoney("4.80")))
	assert.True(t, rec.RetailPrice.Equal(types.MustMoney("10.00")))
}

func TestTakePaymentStates(t *testing.T) {
	tests := []struct {
		name       string
		willPay    bool
		business   bool
		wantPaid   bool
		wantLinked bool
	}{
		{"personal, settled on the spot", false, false, true, false},
		{"personal, owed", true, false, false, false},
		{"business expense", false, true, false, true},
		{"owed and business", true, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			rec, err := f.service.Take(ctx, homeuse.TakeInput{
				InventoryID:       f.item.ID,
				BatchID:           f.batchID,
				Quantity:          2,
				Purpose:           "office",
				WillPay:           tt.willPay,
				IsBusinessExpense: tt.business,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantPaid, rec.IsPaid)
			if tt.wantPaid {
				assert.NotNil(t, rec.PaymentDate)
			} else {
				assert.Nil(t, rec.PaymentDate)
			}

			expenses := f.store.AllExpenses(ctx)
			if tt.wantLinked {
				require.NotNil(t, rec.ExpenseID)
				require.Len(t, expenses, 1)
				assert.Equal(t, *rec.ExpenseID, expenses[0].ID)
				assert.Equal(t, expense.TypeHomeUse, expenses[0].Type)
				assert.True(t, expenses[0].Amount.Equal(rec.CostPrice))
			} else {
				assert.Nil(t, rec.ExpenseID)
				assert.Empty(t, expenses)
			}
		})
	}
}

func TestTakeRejectsExpiredBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := &batch.StockBatch{
		ID:          id.New(),
		InventoryID: f.item.ID,
		BatchNumber: "OLD",
		Quantity:    5,
		ExpiryDate:  now.AddDate(0, 0, -1),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.store.Batches().Create(ctx, old))

	_, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID,
		BatchID:     old.ID,
		Quantity:    1,
		Purpose:     "office",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBatchExpired, appErr.Code)
}

func TestTakeInsufficientRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID,
		BatchID:     f.batchID,
		Quantity:    21,
		Purpose:     "office",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, types.Quantity(20), f.batchQty(t))

	records, err := f.service.List(ctx, homeuse.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTakeRejectsForeignBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := inventory.NewItem("Ibuprofen 200mg", types.MustMoney("0.80"), types.MustMoney("1.90"))
	require.NoError(t, f.store.Inventory().Create(ctx, other))

	_, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: other.ID,
		BatchID:     f.batchID,
		Quantity:    1,
		Purpose:     "office",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestSettleReturnedRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID,
		BatchID:     f.batchID,
		Quantity:    5,
		Purpose:     "office",
		WillPay:     true,
	})
	require.NoError(t, err)
	require.Equal(t, types.Quantity(15), f.batchQty(t))

	settled, err := f.service.Settle(ctx, homeuse.SettleInput{
		ID:     rec.ID,
		Status: homeuse.StatusReturned,
	})
	require.NoError(t, err)

	assert.Equal(t, homeuse.StatusReturned, settled.Status)
	assert.True(t, settled.IsPaid, "a full return closes the debt")
	assert.NotNil(t, settled.PaymentDate)
	assert.NotNil(t, settled.ReturnedAt)
	assert.Equal(t, types.Quantity(20), f.batchQty(t))
}

func TestSettleWrittenOffKeepsDecrement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID,
		BatchID:     f.batchID,
		Quantity:    3,
		Purpose:     "damaged in store",
	})
	require.NoError(t, err)

	notes := "dropped box"
	settled, err := f.service.Settle(ctx, homeuse.SettleInput{
		ID:     rec.ID,
		Status: homeuse.StatusWrittenOff,
		Notes:  &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, homeuse.StatusWrittenOff, settled.Status)
	require.NotNil(t, settled.Notes)
	assert.Equal(t, "dropped box", *settled.Notes)
	assert.Equal(t, types.Quantity(17), f.batchQty(t))
}

func TestSettlePaymentAmountRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID,
		BatchID:     f.batchID,
		Quantity:    2,
		Purpose:     "office",
		WillPay:     true,
	})
	require.NoError(t, err)

	amount := types.MustMoney("5.00")
	_, err = f.service.Settle(ctx, homeuse.SettleInput{
		ID:            rec.ID,
		Status:        homeuse.StatusWrittenOff,
		PaymentAmount: &amount,
	})
	require.NoError(t, err)

	expenses := f.store.AllExpenses(ctx)
	require.Len(t, expenses, 1)
	assert.True(t, expenses[0].Amount.Equal(amount))
}

func TestSettleRejectsNonTerminalAndDouble(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID,
		BatchID:     f.batchID,
		Quantity:    1,
		Purpose:     "office",
	})
	require.NoError(t, err)

	_, err = f.service.Settle(ctx, homeuse.SettleInput{ID: rec.ID, Status: homeuse.StatusTaken})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = f.service.Settle(ctx, homeuse.SettleInput{ID: rec.ID, Status: homeuse.StatusReturned})
	require.NoError(t, err)

	// Terminal states are final.
	_, err = f.service.Settle(ctx, homeuse.SettleInput{ID: rec.ID, Status: homeuse.StatusWrittenOff})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
	assert.Equal(t, types.Quantity(20), f.batchQty(t), "no second increment")
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID, BatchID: f.batchID, Quantity: 1, Purpose: "a",
	})
	require.NoError(t, err)
	_, err = f.service.Take(ctx, homeuse.TakeInput{
		InventoryID: f.item.ID, BatchID: f.batchID, Quantity: 2, Purpose: "b",
	})
	require.NoError(t, err)

	_, err = f.service.Settle(ctx, homeuse.SettleInput{ID: first.ID, Status: homeuse.StatusReturned})
	require.NoError(t, err)

	taken := homeuse.StatusTaken
	records, err := f.service.List(ctx, homeuse.ListFilter{Status: &taken})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].Purpose)

	records, err = f.service.List(ctx, homeuse.ListFilter{InventoryID: &f.item.ID})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
