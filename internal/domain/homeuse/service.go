package homeuse

import (
	"context"
	"fmt"
	"time"

	"pharmstock/internal/core/apperror"
	appctx "pharmstock/internal/core/context"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/audit"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/expense"
	"pharmstock/internal/domain/inventory"
	"pharmstock/pkg/logger"
)

// TakeInput describes a withdrawal request.
type TakeInput struct {
	InventoryID id.ID
	BatchID     id.ID
	Quantity    types.Quantity
	Purpose     string

	// WillPay marks the withdrawal as owed by the taker.
	WillPay bool

	// IsBusinessExpense records the cost value in the expense ledger.
	IsBusinessExpense bool
}

// SettleInput closes a TAKEN record.
type SettleInput struct {
	ID     id.ID
	Status Status
	Notes  *string

	// PaymentAmount, when positive, is recorded as a payment regardless of
	// the settlement status (partial settlement of a consumed-and-owed item).
	PaymentAmount *types.Money
}

// Service runs the home-use lifecycle. Quantity changes route through the
// batch ledger primitives, so the non-negative and sum invariants hold here
// exactly as they do for sales.
type Service struct {
	repo      Repository
	items     inventory.Repository
	batches   batch.Repository
	ledger    *batch.Ledger
	expenses  expense.Recorder
	txManager tx.Manager
	auditor   audit.Recorder
}

// NewService creates a home-use service.
func NewService(
	repo Repository,
	items inventory.Repository,
	batches batch.Repository,
	ledger *batch.Ledger,
	expenses expense.Recorder,
	txManager tx.Manager,
	auditor audit.Recorder,
) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		items:     items,
		batches:   batches,
		ledger:    ledger,
		expenses:  expenses,
		txManager: txManager,
		auditor:   auditor,
	}
}

// Take withdraws quantity from a batch for internal use. The record starts
// in TAKEN; it is immediately paid only when neither WillPay nor
// IsBusinessExpense is set. A business expense gets a linked expense-ledger
// entry for the cost value. Single transaction.
func (s *Service) Take(ctx context.Context, in TakeInput) (*Record, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", in.Quantity.Int64())
	}
	if in.Purpose == "" {
		return nil, apperror.NewValidation("purpose is required")
	}

	var rec *Record
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByID(ctx, in.InventoryID)
		if err != nil {
			return err
		}
		b, err := s.batches.GetForUpdate(ctx, in.BatchID)
		if err != nil {
			return err
		}
		if b.InventoryID != in.InventoryID {
			return apperror.NewValidation("batch does not belong to inventory item").
				WithDetail("batch_id", in.BatchID).
				WithDetail("inventory_id", in.InventoryID)
		}
		now := time.Now().UTC()
		if b.IsExpired(now) {
			return apperror.NewBatchExpired(in.BatchID)
		}
		if b.Quantity < in.Quantity {
			return apperror.NewInsufficientStock("batch", in.BatchID, in.Quantity.Int64(), b.Quantity.Int64())
		}

		paid := !in.WillPay && !in.IsBusinessExpense
		rec = &Record{
			ID:          id.New(),
			InventoryID: in.InventoryID,
			BatchID:     in.BatchID,
			Quantity:    in.Quantity,
			Purpose:     in.Purpose,
			UserID:      appctx.GetUserID(ctx),
			Status:      StatusTaken,
			CostPrice:   in.Quantity.Value(item.WholesalePrice),
			RetailPrice: in.Quantity.Value(item.RetailPrice),
			IsPaid:      paid,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if paid {
			rec.PaymentDate = &now
		}

		if in.IsBusinessExpense {
			exp, err := s.expenses.Record(ctx, expense.Expense{
				ID:          id.New(),
				Description: fmt.Sprintf("Home use product: %s - %s", item.Name, in.Purpose),
				Amount:      rec.CostPrice,
				Date:        now,
				Type:        expense.TypeHomeUse,
				CreatedAt:   now,
			})
			if err != nil {
				return fmt.Errorf("record expense: %w", err)
			}
			rec.ExpenseID = &exp.ID
		}

		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create home use record: %w", err)
		}
		if err := s.ledger.Decrement(ctx, in.BatchID, in.Quantity); err != nil {
			return err
		}

		_ = s.auditor.Record(ctx, audit.Entry{
			EntityType: "home_use",
			EntityID:   rec.ID,
			Action:     audit.ActionTake,
			Changes: map[string]any{
				"batch_id": in.BatchID,
				"quantity": in.Quantity.Int64(),
				"purpose":  in.Purpose,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "home use taken",
		"home_use_id", rec.ID,
		"batch_id", in.BatchID,
		"quantity", in.Quantity.Int64(),
	)
	return rec, nil
}

// Settle closes a TAKEN record. RETURNED re-increments the originating batch
// by the original quantity and marks the record paid; a supplied payment
// amount is recorded in the expense ledger either way. InvalidState when the
// record is not currently TAKEN.
func (s *Service) Settle(ctx context.Context, in SettleInput) (*Record, error) {
	if !in.Status.Valid() || !in.Status.IsTerminal() {
		return nil, apperror.NewValidation("settlement status must be RETURNED or WRITTEN_OFF").
			WithDetail("status", string(in.Status))
	}

	var rec *Record
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetForUpdate(ctx, in.ID)
		if err != nil {
			return err
		}
		if rec.Status != StatusTaken {
			return apperror.NewInvalidState("home use record is not in TAKEN status").
				WithDetail("status", string(rec.Status))
		}

		now := time.Now().UTC()
		rec.Status = in.Status
		rec.ReturnedAt = &now
		rec.UpdatedAt = now
		if in.Notes != nil {
			rec.Notes = in.Notes
		}

		if in.Status == StatusReturned {
			if err := s.ledger.Increment(ctx, rec.BatchID, rec.Quantity); err != nil {
				return err
			}
			rec.IsPaid = true
			rec.PaymentDate = &now
		}

		if in.PaymentAmount != nil && in.PaymentAmount.IsPositive() {
			item, err := s.items.GetByID(ctx, rec.InventoryID)
			if err != nil {
				return err
			}
			if _, err := s.expenses.Record(ctx, expense.Expense{
				ID:          id.New(),
				Description: fmt.Sprintf("Payment for home use product: %s", item.Name),
				Amount:      *in.PaymentAmount,
				Date:        now,
				Type:        expense.TypeHomeUse,
				CreatedAt:   now,
			}); err != nil {
				return fmt.Errorf("record payment: %w", err)
			}
		}

		if err := s.repo.Update(ctx, rec); err != nil {
			return fmt.Errorf("update home use record: %w", err)
		}

		_ = s.auditor.Record(ctx, audit.Entry{
			EntityType: "home_use",
			EntityID:   rec.ID,
			Action:     audit.ActionSettle,
			Changes: map[string]any{
				"status":   string(in.Status),
				"batch_id": rec.BatchID,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "home use settled",
		"home_use_id", rec.ID,
		"status", string(rec.Status),
	)
	return rec, nil
}

// List returns home-use records matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	return s.repo.List(ctx, filter)
}
