package memory

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/audit"
)

// AuditRecorder is the in-memory implementation of audit.Recorder.
type AuditRecorder struct {
	s *Store
}

var _ audit.Recorder = (*AuditRecorder)(nil)

// Audit returns the audit recorder view of the store.
func (s *Store) Audit() *AuditRecorder {
	return &AuditRecorder{s: s}
}

func (r *AuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	r.s.audits = append(r.s.audits, entry)
	if t != nil {
		t.record(func() { r.s.audits = r.s.audits[:len(r.s.audits)-1] })
	}
	return nil
}

// AuditEntries returns every recorded audit entry, for tests.
func (s *Store) AuditEntries(ctx context.Context) []audit.Entry {
	unlock := s.lockRead(ctx)
	defer unlock()

	out := make([]audit.Entry, len(s.audits))
	copy(out, s.audits)
	return out
}
