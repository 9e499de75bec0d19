package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/transfer"
)

var transferColumns = []string{
	"id", "source_batch_id", "target_batch_id", "quantity", "reason", "user_id", "created_at",
}

// TransferRepo is the PostgreSQL implementation of transfer.Repository.
// The table is append-only.
type TransferRepo struct {
	tx      *TxManager
	builder sq.StatementBuilderType
}

var _ transfer.Repository = (*TransferRepo)(nil)

// NewTransferRepo creates a transfer record repository.
func NewTransferRepo(tx *TxManager) *TransferRepo {
	return &TransferRepo{
		tx:      tx,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *TransferRepo) Create(ctx context.Context, rec *transfer.Record) error {
	query, args, err := r.builder.
		Insert("batch_transfers").
		Columns(transferColumns...).
		Values(rec.ID, rec.SourceBatchID, rec.TargetBatchID, rec.Quantity,
			rec.Reason, rec.UserID, rec.CreatedAt).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build transfer insert", err)
	}

	if _, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return apperror.NewDatabase("failed to insert transfer record", err)
	}
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, recID id.ID) (*transfer.Record, error) {
	query, args, err := r.builder.
		Select(transferColumns...).
		From("batch_transfers").
		Where(sq.Eq{"id": recID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build transfer select", err)
	}

	var rec transfer.Record
	if err := pgxscan.Get(ctx, r.tx.GetQuerier(ctx), &rec, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("transfer", recID)
		}
		return nil, apperror.NewDatabase("failed to get transfer record", err)
	}
	return &rec, nil
}

func (r *TransferRepo) List(ctx context.Context, filter transfer.ListFilter) ([]transfer.Record, error) {
	query, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build transfer list", err)
	}

	var recs []transfer.Record
	if err := pgxscan.Select(ctx, r.tx.GetQuerier(ctx), &recs, query, args...); err != nil {
		return nil, apperror.NewDatabase("failed to list transfer records", err)
	}
	return recs, nil
}

// listQuery builds the history query. A batch filter matches either side of
// the record.
func (r *TransferRepo) listQuery(filter transfer.ListFilter) sq.SelectBuilder {
	q := r.builder.
		Select(transferColumns...).
		From("batch_transfers").
		OrderBy("created_at DESC")

	if filter.BatchID != nil {
		q = q.Where(sq.Or{
			sq.Eq{"source_batch_id": *filter.BatchID},
			sq.Eq{"target_batch_id": *filter.BatchID},
		})
	}
	if filter.FromDate != nil {
		q = q.Where(sq.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(sq.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return q
}
