package alert

import (
	"context"
	"fmt"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/batch"
	"pharmstock/pkg/logger"
)

// Evaluator checks active alert rules against current ledger state.
// Strictly read-only: it is the caller's responsibility to act on the
// triggered rules it returns.
type Evaluator struct {
	alerts  Repository
	batches batch.Repository
}

// NewEvaluator creates an alert evaluator.
func NewEvaluator(alerts Repository, batches batch.Repository) *Evaluator {
	return &Evaluator{
		alerts:  alerts,
		batches: batches,
	}
}

// Evaluate returns every active alert that currently triggers.
// A rule that cannot be evaluated (its batch was never created) is skipped
// with a warning rather than failing the whole pass.
func (e *Evaluator) Evaluate(ctx context.Context) ([]Triggered, error) {
	alerts, err := e.alerts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}

	now := time.Now().UTC()
	triggered := make([]Triggered, 0)
	for _, a := range alerts {
		t, fired, err := e.evaluateOne(ctx, a, now)
		if err != nil {
			if apperror.IsNotFound(err) {
				logger.Warn(ctx, "alert references missing batch", "alert_id", a.ID)
				continue
			}
			return nil, err
		}
		if fired {
			triggered = append(triggered, t)
		}
	}
	return triggered, nil
}

// EvaluateAlert checks a single rule on demand.
func (e *Evaluator) EvaluateAlert(ctx context.Context, alertID id.ID) (Triggered, bool, error) {
	a, err := e.alerts.GetByID(ctx, alertID)
	if err != nil {
		return Triggered{}, false, err
	}
	return e.evaluateOne(ctx, *a, time.Now().UTC())
}

func (e *Evaluator) evaluateOne(ctx context.Context, a StockAlert, now time.Time) (Triggered, bool, error) {
	var (
		quantity int64 // scoped batch quantity, 0 for item-scoped rules
		stock    int64 // item aggregate, always observed
		days     int64 // days until scoped expiry
	)

	total, err := e.batches.SumQuantities(ctx, a.InventoryID)
	if err != nil {
		return Triggered{}, false, fmt.Errorf("sum batches: %w", err)
	}
	stock = total.Int64()

	if a.BatchID != nil {
		b, err := e.batches.GetByID(ctx, *a.BatchID)
		if err != nil {
			return Triggered{}, false, err
		}
		quantity = b.Quantity.Int64()
		days = int64(batch.DaysUntilExpiry(b.ExpiryDate, now))
	} else if a.Type == TypeExpiry {
		// Item-scoped expiry watches the soonest-expiring lot still in stock.
		soonest, ok, err := e.soonestExpiry(ctx, a)
		if err != nil {
			return Triggered{}, false, err
		}
		if !ok {
			return Triggered{}, false, nil
		}
		days = int64(batch.DaysUntilExpiry(soonest, now))
	}

	scoped := quantity
	if a.BatchID == nil {
		scoped = stock
	}

	var fired bool
	var observed int64
	if a.Condition != nil {
		prg, err := CompileCondition(*a.Condition)
		if err != nil {
			return Triggered{}, false, err
		}
		fired, err = evalCondition(prg, quantity, stock, days, a.Threshold)
		if err != nil {
			return Triggered{}, false, err
		}
		observed = scoped
	} else {
		switch a.Type {
		case TypeLowStock:
			fired = scoped <= a.Threshold
			observed = scoped
		case TypeHighStock:
			fired = scoped >= a.Threshold
			observed = scoped
		case TypeExpiry:
			fired = days <= a.Threshold
			observed = days
		}
	}

	return Triggered{Alert: a, Observed: observed}, fired, nil
}

// soonestExpiry returns the earliest expiry among the item's non-empty batches.
func (e *Evaluator) soonestExpiry(ctx context.Context, a StockAlert) (time.Time, bool, error) {
	batches, err := e.batches.ListByInventory(ctx, a.InventoryID)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("list batches: %w", err)
	}
	for _, b := range batches {
		// FEFO ordering: the first non-empty batch expires soonest.
		if b.Quantity.IsPositive() {
			return b.ExpiryDate, true, nil
		}
	}
	return time.Time{}, false, nil
}
