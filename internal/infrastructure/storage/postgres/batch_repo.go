package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/batch"
)

var batchColumns = []string{
	"id", "inventory_id", "batch_number", "quantity",
	"expiry_date", "purchase_date", "supplier_id", "created_at", "updated_at",
}

// fefoOrder is the allocation ordering: earliest expiry first, then the
// oldest lot on equal expiry.
var fefoOrder = []string{"expiry_date ASC", "created_at ASC"}

// BatchRepo is the PostgreSQL implementation of batch.Repository.
type BatchRepo struct {
	tx      *TxManager
	builder sq.StatementBuilderType
}

var _ batch.Repository = (*BatchRepo)(nil)

// NewBatchRepo creates a batch repository.
func NewBatchRepo(tx *TxManager) *BatchRepo {
	return &BatchRepo{
		tx:      tx,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *BatchRepo) Create(ctx context.Context, b *batch.StockBatch) error {
	query, args, err := r.builder.
		Insert("stock_batches").
		Columns(batchColumns...).
		Values(b.ID, b.InventoryID, b.BatchNumber, b.Quantity,
			b.ExpiryDate, b.PurchaseDate, b.SupplierID, b.CreatedAt, b.UpdatedAt).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build batch insert", err)
	}

	if _, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.NewDuplicate("batch", b.BatchNumber)
		}
		return apperror.NewDatabase("failed to insert batch", err)
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.StockBatch, error) {
	query, args, err := r.builder.
		Select(batchColumns...).
		From("stock_batches").
		Where(sq.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build batch select", err)
	}
	return r.getOne(ctx, batchID, query, args)
}

func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*batch.StockBatch, error) {
	query, args, err := r.builder.
		Select(batchColumns...).
		From("stock_batches").
		Where(sq.Eq{"id": batchID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build batch select", err)
	}
	return r.getOne(ctx, batchID, query, args)
}

func (r *BatchRepo) getOne(ctx context.Context, batchID id.ID, query string, args []any) (*batch.StockBatch, error) {
	var b batch.StockBatch
	if err := pgxscan.Get(ctx, r.tx.GetQuerier(ctx), &b, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, apperror.NewDatabase("failed to get batch", err)
	}
	return &b, nil
}

func (r *BatchRepo) GetByNumberForUpdate(ctx context.Context, inventoryID id.ID, batchNumber string) (*batch.StockBatch, error) {
	query, args, err := r.builder.
		Select(batchColumns...).
		From("stock_batches").
		Where(sq.Eq{"inventory_id": inventoryID, "batch_number": batchNumber}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build batch select", err)
	}

	var b batch.StockBatch
	if err := pgxscan.Get(ctx, r.tx.GetQuerier(ctx), &b, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// absence is a valid outcome here: the caller creates the batch
			return nil, nil
		}
		return nil, apperror.NewDatabase("failed to get batch by number", err)
	}
	return &b, nil
}

func (r *BatchRepo) UpdateQuantity(ctx context.Context, batchID id.ID, quantity types.Quantity) error {
	query, args, err := r.builder.
		Update("stock_batches").
		Set("quantity", quantity).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build quantity update", err)
	}

	tag, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewDatabase("failed to update batch quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID)
	}
	return nil
}

func (r *BatchRepo) ListByInventory(ctx context.Context, inventoryID id.ID) ([]batch.StockBatch, error) {
	query, args, err := r.builder.
		Select(batchColumns...).
		From("stock_batches").
		Where(sq.Eq{"inventory_id": inventoryID}).
		OrderBy(fefoOrder...).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build batch list", err)
	}
	return r.list(ctx, query, args)
}

func (r *BatchRepo) ListEligible(ctx context.Context, inventoryID id.ID, now time.Time) ([]batch.StockBatch, error) {
	query, args, err := r.eligibleQuery(inventoryID, now).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build eligible list", err)
	}
	return r.list(ctx, query, args)
}

func (r *BatchRepo) ListEligibleForUpdate(ctx context.Context, inventoryID id.ID, now time.Time) ([]batch.StockBatch, error) {
	query, args, err := r.eligibleQuery(inventoryID, now).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build eligible list", err)
	}
	return r.list(ctx, query, args)
}

func (r *BatchRepo) eligibleQuery(inventoryID id.ID, now time.Time) sq.SelectBuilder {
	return r.builder.
		Select(batchColumns...).
		From("stock_batches").
		Where(sq.Eq{"inventory_id": inventoryID}).
		Where(sq.Gt{"quantity": 0}).
		Where(sq.Gt{"expiry_date": now}).
		OrderBy(fefoOrder...)
}

func (r *BatchRepo) list(ctx context.Context, query string, args []any) ([]batch.StockBatch, error) {
	var batches []batch.StockBatch
	if err := pgxscan.Select(ctx, r.tx.GetQuerier(ctx), &batches, query, args...); err != nil {
		return nil, apperror.NewDatabase("failed to list batches", err)
	}
	return batches, nil
}

func (r *BatchRepo) SumQuantities(ctx context.Context, inventoryID id.ID) (types.Quantity, error) {
	query, args, err := r.builder.
		Select("COALESCE(SUM(quantity), 0)").
		From("stock_batches").
		Where(sq.Eq{"inventory_id": inventoryID}).
		ToSql()
	if err != nil {
		return 0, apperror.NewInternal("failed to build quantity sum", err)
	}

	var sum int64
	if err := r.tx.GetQuerier(ctx).QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return 0, apperror.NewDatabase("failed to sum batch quantities", err)
	}
	return types.Quantity(sum), nil
}
