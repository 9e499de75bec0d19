// Package transfer moves quantity between batches with an immutable audit
// record, used for repackaging and consolidation.
package transfer

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// Record is the immutable audit trail of one transfer.
// Created atomically with the two balance updates it represents.
type Record struct {
	ID            id.ID          `db:"id" json:"id"`
	SourceBatchID id.ID          `db:"source_batch_id" json:"sourceBatchId"`
	TargetBatchID id.ID          `db:"target_batch_id" json:"targetBatchId"`
	Quantity      types.Quantity `db:"quantity" json:"quantity"`
	Reason        string         `db:"reason" json:"reason"`
	UserID        id.ID          `db:"user_id" json:"userId"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

// ListFilter narrows transfer history queries.
type ListFilter struct {
	BatchID  *id.ID
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
}

// Repository defines the interface for transfer record persistence.
// Records are append-only.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, recID id.ID) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]Record, error)
}
