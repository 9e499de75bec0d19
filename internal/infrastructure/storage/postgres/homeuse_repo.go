package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/homeuse"
)

var homeUseColumns = []string{
	"id", "inventory_id", "batch_id", "quantity", "purpose", "user_id", "status",
	"cost_price", "retail_price", "is_paid", "payment_date", "expense_id",
	"notes", "returned_at", "created_at", "updated_at",
}

// HomeUseRepo is the PostgreSQL implementation of homeuse.Repository.
type HomeUseRepo struct {
	tx      *TxManager
	builder sq.StatementBuilderType
}

var _ homeuse.Repository = (*HomeUseRepo)(nil)

// NewHomeUseRepo creates a home-use record repository.
func NewHomeUseRepo(tx *TxManager) *HomeUseRepo {
	return &HomeUseRepo{
		tx:      tx,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *HomeUseRepo) Create(ctx context.Context, rec *homeuse.Record) error {
	query, args, err := r.builder.
		Insert("home_use_records").
		Columns(homeUseColumns...).
		Values(rec.ID, rec.InventoryID, rec.BatchID, rec.Quantity, rec.Purpose,
			rec.UserID, rec.Status, rec.CostPrice, rec.RetailPrice, rec.IsPaid,
			rec.PaymentDate, rec.ExpenseID, rec.Notes, rec.ReturnedAt,
			rec.CreatedAt, rec.UpdatedAt).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build home-use insert", err)
	}

	if _, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return apperror.NewDatabase("failed to insert home-use record", err)
	}
	return nil
}

func (r *HomeUseRepo) GetByID(ctx context.Context, recID id.ID) (*homeuse.Record, error) {
	return r.getOne(ctx, recID, false)
}

func (r *HomeUseRepo) GetForUpdate(ctx context.Context, recID id.ID) (*homeuse.Record, error) {
	return r.getOne(ctx, recID, true)
}

func (r *HomeUseRepo) getOne(ctx context.Context, recID id.ID, forUpdate bool) (*homeuse.Record, error) {
	q := r.builder.
		Select(homeUseColumns...).
		From("home_use_records").
		Where(sq.Eq{"id": recID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build home-use select", err)
	}

	var rec homeuse.Record
	if err := pgxscan.Get(ctx, r.tx.GetQuerier(ctx), &rec, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("home-use record", recID)
		}
		return nil, apperror.NewDatabase("failed to get home-use record", err)
	}
	return &rec, nil
}

func (r *HomeUseRepo) Update(ctx context.Context, rec *homeuse.Record) error {
	query, args, err := r.builder.
		Update("home_use_records").
		Set("status", rec.Status).
		Set("is_paid", rec.IsPaid).
		Set("payment_date", rec.PaymentDate).
		Set("expense_id", rec.ExpenseID).
		Set("notes", rec.Notes).
		Set("returned_at", rec.ReturnedAt).
		Set("updated_at", rec.UpdatedAt).
		Where(sq.Eq{"id": rec.ID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build home-use update", err)
	}

	tag, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewDatabase("failed to update home-use record", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("home-use record", rec.ID)
	}
	return nil
}

func (r *HomeUseRepo) List(ctx context.Context, filter homeuse.ListFilter) ([]homeuse.Record, error) {
	query, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build home-use list", err)
	}

	var recs []homeuse.Record
	if err := pgxscan.Select(ctx, r.tx.GetQuerier(ctx), &recs, query, args...); err != nil {
		return nil, apperror.NewDatabase("failed to list home-use records", err)
	}
	return recs, nil
}

func (r *HomeUseRepo) listQuery(filter homeuse.ListFilter) sq.SelectBuilder {
	q := r.builder.
		Select(homeUseColumns...).
		From("home_use_records").
		OrderBy("created_at DESC")

	if filter.InventoryID != nil {
		q = q.Where(sq.Eq{"inventory_id": *filter.InventoryID})
	}
	if filter.UserID != nil {
		q = q.Where(sq.Eq{"user_id": *filter.UserID})
	}
	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": *filter.Status})
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
