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
	"pharmstock/internal/domain/inventory"
)

const uniqueViolation = "23505"

var itemColumns = []string{
	"id", "name", "barcode", "wholesale_price", "retail_price",
	"stock", "supplier_id", "category_id", "created_at", "updated_at",
}

// InventoryRepo is the PostgreSQL implementation of inventory.Repository.
type InventoryRepo struct {
	tx      *TxManager
	builder sq.StatementBuilderType
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates an inventory repository.
func NewInventoryRepo(tx *TxManager) *InventoryRepo {
	return &InventoryRepo{
		tx:      tx,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *InventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	query, args, err := r.builder.
		Insert("inventory_items").
		Columns(itemColumns...).
		Values(item.ID, item.Name, item.Barcode, item.WholesalePrice, item.RetailPrice,
			item.Stock, item.SupplierID, item.CategoryID, item.CreatedAt, item.UpdatedAt).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build item insert", err)
	}

	if _, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.NewDuplicate("item", item.Name)
		}
		return apperror.NewDatabase("failed to insert item", err)
	}
	return nil
}

func (r *InventoryRepo) GetByID(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	query, args, err := r.builder.
		Select(itemColumns...).
		From("inventory_items").
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build item select", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *InventoryRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	query, args, err := r.builder.
		Select(itemColumns...).
		From("inventory_items").
		Where(sq.Eq{"id": itemID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build item select", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *InventoryRepo) getOne(ctx context.Context, query string, args []any) (*inventory.Item, error) {
	var item inventory.Item
	if err := pgxscan.Get(ctx, r.tx.GetQuerier(ctx), &item, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("item", "")
		}
		return nil, apperror.NewDatabase("failed to get item", err)
	}
	return &item, nil
}

func (r *InventoryRepo) List(ctx context.Context) ([]*inventory.Item, error) {
	query, args, err := r.builder.
		Select(itemColumns...).
		From("inventory_items").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build item list", err)
	}

	var items []*inventory.Item
	if err := pgxscan.Select(ctx, r.tx.GetQuerier(ctx), &items, query, args...); err != nil {
		return nil, apperror.NewDatabase("failed to list items", err)
	}
	return items, nil
}

func (r *InventoryRepo) UpdateStock(ctx context.Context, itemID id.ID, stock types.Quantity) error {
	query, args, err := r.builder.
		Update("inventory_items").
		Set("stock", stock).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build stock update", err)
	}

	tag, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewDatabase("failed to update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("item", itemID)
	}
	return nil
}

func (r *InventoryRepo) UpdateSupplier(ctx context.Context, itemID id.ID, supplierID id.ID) error {
	query, args, err := r.builder.
		Update("inventory_items").
		Set("supplier_id", supplierID).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build supplier update", err)
	}

	tag, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewDatabase("failed to update supplier", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("item", itemID)
	}
	return nil
}
