// Package allocation implements the FEFO picking policy.
// Soonest-to-expire batches are consumed first to minimize wastage;
// allocation is all-or-nothing.
package allocation

import (
	"context"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/batch"
	"pharmstock/pkg/logger"
)

// Pick is one partial take from a batch.
type Pick struct {
	BatchID     id.ID          `json:"batchId"`
	BatchNumber string         `json:"batchNumber"`
	Quantity    types.Quantity `json:"quantity"`
}

// Picker selects batches for sale and home-use requests.
type Picker struct {
	batches   batch.Repository
	ledger    *batch.Ledger
	txManager tx.Manager
}

// NewPicker creates a FEFO picker.
func NewPicker(batches batch.Repository, ledger *batch.Ledger, txManager tx.Manager) *Picker {
	return &Picker{
		batches:   batches,
		ledger:    ledger,
		txManager: txManager,
	}
}

// Pick plans an allocation without mutating anything: eligible batches
// (unexpired, non-empty) in expiry order, greedy partial takes until the
// requested quantity is covered. InsufficientStock if it cannot be.
func (p *Picker) Pick(ctx context.Context, inventoryID id.ID, qty types.Quantity) ([]Pick, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.Int64())
	}

	eligible, err := p.batches.ListEligible(ctx, inventoryID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return plan(inventoryID, qty, eligible)
}

// Allocate picks and decrements in one transaction. Row locks on the
// eligible batches keep the plan valid until commit; on insufficiency the
// transaction rolls back and no batch is touched.
func (p *Picker) Allocate(ctx context.Context, inventoryID id.ID, qty types.Quantity) ([]Pick, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.Int64())
	}

	var picks []Pick
	err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		eligible, err := p.batches.ListEligibleForUpdate(ctx, inventoryID, time.Now().UTC())
		if err != nil {
			return err
		}
		picks, err = plan(inventoryID, qty, eligible)
		if err != nil {
			return err
		}
		for _, pick := range picks {
			if err := p.ledger.Decrement(ctx, pick.BatchID, pick.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock allocated",
		"inventory_id", inventoryID,
		"quantity", qty.Int64(),
		"batches", len(picks),
	)
	return picks, nil
}

// AllocateFromBatch bypasses FEFO for a point-of-sale override naming an
// explicit batch. The same eligibility and insufficiency rules apply to
// that single batch.
func (p *Picker) AllocateFromBatch(ctx context.Context, batchID id.ID, qty types.Quantity) (Pick, error) {
	if !qty.IsPositive() {
		return Pick{}, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.Int64())
	}

	var pick Pick
	err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := p.batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if b.IsExpired(time.Now().UTC()) {
			return apperror.NewBatchExpired(batchID)
		}
		if err := p.ledger.Decrement(ctx, batchID, qty); err != nil {
			return err
		}
		pick = Pick{BatchID: b.ID, BatchNumber: b.BatchNumber, Quantity: qty}
		return nil
	})
	if err != nil {
		return Pick{}, err
	}
	return pick, nil
}

// plan greedily takes from the front of the FEFO-ordered batch list.
// No partial plan is returned on insufficiency.
func plan(inventoryID id.ID, qty types.Quantity, eligible []batch.StockBatch) ([]Pick, error) {
	remaining := qty
	picks := make([]Pick, 0, 2)

	for _, b := range eligible {
		if !remaining.IsPositive() {
			break
		}
		take := b.Quantity.Min(remaining)
		if !take.IsPositive() {
			continue
		}
		picks = append(picks, Pick{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    take,
		})
		remaining -= take
	}

	if remaining.IsPositive() {
		return nil, apperror.NewInsufficientStock(
			"inventory", inventoryID, qty.Int64(), (qty - remaining).Int64(),
		)
	}
	return picks, nil
}
