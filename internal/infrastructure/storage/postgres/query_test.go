package postgres

import (
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/homeuse"
	"pharmstock/internal/domain/transfer"
)

// Query construction is tested without a database: builders are pure and the
// produced SQL is the contract worth pinning down, FEFO ordering especially.

func testBatchRepo() *BatchRepo {
	return &BatchRepo{builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func testTransferRepo() *TransferRepo {
	return &TransferRepo{builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func testHomeUseRepo() *HomeUseRepo {
	return &HomeUseRepo{builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func TestEligibleQuerySQL(t *testing.T) {
	r := testBatchRepo()
	invID := id.New()
	now := time.Now().UTC()

	query, args, err := r.eligibleQuery(invID, now).ToSql()
	require.NoError(t, err)

	want := "SELECT " + strings.Join(batchColumns, ", ") +
		" FROM stock_batches" +
		" WHERE inventory_id = $1 AND quantity > $2 AND expiry_date > $3" +
		" ORDER BY expiry_date ASC, created_at ASC"
	assert.Equal(t, want, query)
	assert.Equal(t, []any{invID, 0, now}, args)
}

func TestEligibleQueryForUpdateSQL(t *testing.T) {
	r := testBatchRepo()

	query, _, err := r.eligibleQuery(id.New(), time.Now().UTC()).Suffix("FOR UPDATE").ToSql()
	require.NoError(t, err)

	// The lock clause must come after the ordering.
	assert.True(t, strings.HasSuffix(query, "ORDER BY expiry_date ASC, created_at ASC FOR UPDATE"))
}

func TestTransferListQuerySQL(t *testing.T) {
	r := testTransferRepo()

	t.Run("no filter", func(t *testing.T) {
		query, args, err := r.listQuery(transfer.ListFilter{}).ToSql()
		require.NoError(t, err)
		want := "SELECT " + strings.Join(transferColumns, ", ") +
			" FROM batch_transfers ORDER BY created_at DESC"
		assert.Equal(t, want, query)
		assert.Empty(t, args)
	})

	t.Run("batch filter matches either side", func(t *testing.T) {
		batchID := id.New()
		query, args, err := r.listQuery(transfer.ListFilter{BatchID: &batchID, Limit: 50}).ToSql()
		require.NoError(t, err)
		assert.Contains(t, query, "WHERE (source_batch_id = $1 OR target_batch_id = $2)")
		assert.Contains(t, query, "LIMIT 50")
		assert.Equal(t, []any{batchID, batchID}, args)
	})

	t.Run("date range", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)
		query, args, err := r.listQuery(transfer.ListFilter{FromDate: &from, ToDate: &to}).ToSql()
		require.NoError(t, err)
		assert.Contains(t, query, "created_at >= $1")
		assert.Contains(t, query, "created_at <= $2")
		assert.Equal(t, []any{from, to}, args)
	})
}

func TestHomeUseListQuerySQL(t *testing.T) {
	r := testHomeUseRepo()

	invID := id.New()
	status := homeuse.StatusTaken
	query, args, err := r.listQuery(homeuse.ListFilter{
		InventoryID: &invID,
		Status:      &status,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE inventory_id = $1 AND status = $2")
	assert.True(t, strings.HasSuffix(query, "ORDER BY created_at DESC"))
	assert.Equal(t, []any{invID, status}, args)
}

func TestGetForUpdateLocksRow(t *testing.T) {
	r := testBatchRepo()

	query, _, err := r.builder.
		Select(batchColumns...).
		From("stock_batches").
		Where(sq.Eq{"id": id.New()}).
		Suffix("FOR UPDATE").
		ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(query, "FOR UPDATE"))
}
