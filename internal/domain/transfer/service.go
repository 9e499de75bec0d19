package transfer

import (
	"bytes"
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
	"pharmstock/pkg/logger"
)

// Input describes a requested transfer. The acting user comes from context.
type Input struct {
	SourceBatchID id.ID
	TargetBatchID id.ID
	Quantity      types.Quantity
	Reason        string
}

// Service executes batch-to-batch transfers.
// No FEFO and no expiry check: a transfer is pure relocation, and source and
// target may belong to different inventory items (repackaging as another SKU).
type Service struct {
	repo      Repository
	batches   batch.Repository
	ledger    *batch.Ledger
	txManager tx.Manager
	auditor   audit.Recorder
}

// NewService creates a transfer service.
func NewService(repo Repository, batches batch.Repository, ledger *batch.Ledger, txManager tx.Manager, auditor audit.Recorder) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		batches:   batches,
		ledger:    ledger,
		txManager: txManager,
		auditor:   auditor,
	}
}

// Transfer moves quantity from source to target in one transaction:
// verify, decrement, increment, insert the record. Both owning items'
// aggregates are recomputed by the ledger primitives.
func (s *Service) Transfer(ctx context.Context, in Input) (*Record, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", in.Quantity.Int64())
	}
	if in.SourceBatchID == in.TargetBatchID {
		return nil, apperror.NewValidation("source and target batch must differ")
	}
	if in.Reason == "" {
		return nil, apperror.NewValidation("reason is required")
	}

	var rec *Record
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock both rows in id order so concurrent opposite transfers
		// cannot deadlock.
		first, second := in.SourceBatchID, in.TargetBatchID
		if bytes.Compare(second[:], first[:]) < 0 {
			first, second = second, first
		}
		batches := make(map[id.ID]*batch.StockBatch, 2)
		for _, bid := range []id.ID{first, second} {
			b, err := s.batches.GetForUpdate(ctx, bid)
			if err != nil {
				return err
			}
			batches[bid] = b
		}

		source := batches[in.SourceBatchID]
		if source.Quantity < in.Quantity {
			return apperror.NewInsufficientStock("batch", in.SourceBatchID, in.Quantity.Int64(), source.Quantity.Int64())
		}

		if err := s.ledger.Decrement(ctx, in.SourceBatchID, in.Quantity); err != nil {
			return err
		}
		if err := s.ledger.Increment(ctx, in.TargetBatchID, in.Quantity); err != nil {
			return err
		}

		rec = &Record{
			ID:            id.New(),
			SourceBatchID: in.SourceBatchID,
			TargetBatchID: in.TargetBatchID,
			Quantity:      in.Quantity,
			Reason:        in.Reason,
			UserID:        appctx.GetUserID(ctx),
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create transfer record: %w", err)
		}

		_ = s.auditor.Record(ctx, audit.Entry{
			EntityType: "batch_transfer",
			EntityID:   rec.ID,
			Action:     audit.ActionTransfer,
			Changes: map[string]any{
				"source_batch_id": in.SourceBatchID,
				"target_batch_id": in.TargetBatchID,
				"quantity":        in.Quantity.Int64(),
				"reason":          in.Reason,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch transfer completed",
		"transfer_id", rec.ID,
		"source_batch_id", in.SourceBatchID,
		"target_batch_id", in.TargetBatchID,
		"quantity", in.Quantity.Int64(),
	)
	return rec, nil
}

// History returns transfer records matching the filter.
func (s *Service) History(ctx context.Context, filter ListFilter) ([]Record, error) {
	return s.repo.List(ctx, filter)
}
