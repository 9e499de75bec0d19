package memory

import (
	"context"
	"sort"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/transfer"
)

// TransferRepo is the in-memory implementation of transfer.Repository.
type TransferRepo struct {
	s *Store
}

var _ transfer.Repository = (*TransferRepo)(nil)

// Transfers returns the transfer record repository view of the store.
func (s *Store) Transfers() *TransferRepo {
	return &TransferRepo{s: s}
}

func (r *TransferRepo) Create(ctx context.Context, rec *transfer.Record) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	if _, ok := r.s.transfers[rec.ID]; ok {
		return apperror.NewDuplicate("transfer", rec.ID)
	}
	r.s.transfers[rec.ID] = *rec
	if t != nil {
		recID := rec.ID
		t.record(func() { delete(r.s.transfers, recID) })
	}
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, recID id.ID) (*transfer.Record, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	rec, ok := r.s.transfers[recID]
	if !ok {
		return nil, apperror.NewNotFound("transfer", recID)
	}
	return &rec, nil
}

func (r *TransferRepo) List(ctx context.Context, filter transfer.ListFilter) ([]transfer.Record, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	var recs []transfer.Record
	for _, rec := range r.s.transfers {
		if filter.BatchID != nil && rec.SourceBatchID != *filter.BatchID && rec.TargetBatchID != *filter.BatchID {
			continue
		}
		if filter.FromDate != nil && rec.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && rec.CreatedAt.After(*filter.ToDate) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	if filter.Limit > 0 && len(recs) > filter.Limit {
		recs = recs[:filter.Limit]
	}
	return recs, nil
}
