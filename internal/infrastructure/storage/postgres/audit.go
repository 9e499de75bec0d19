package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/audit"
)

// compressThreshold is the serialized changes size above which the payload
// is zstd-compressed before storage.
const compressThreshold = 10 * 1024

// AuditService persists audit entries. Large change payloads are compressed
// with zstd to keep the audit_log table compact.
type AuditService struct {
	tx      *TxManager
	builder sq.StatementBuilderType
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var _ audit.Recorder = (*AuditService)(nil)

// NewAuditService creates an audit recorder writing to the audit_log table.
func NewAuditService(tx *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		tx:      tx,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Record writes an audit entry within the current transaction, if any.
func (s *AuditService) Record(ctx context.Context, entry audit.Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	changes, compressed, err := s.encodeChanges(entry.Changes)
	if err != nil {
		return fmt.Errorf("encode audit changes: %w", err)
	}

	query, args, err := s.builder.
		Insert("audit_log").
		Columns("id", "entity_type", "entity_id", "action", "user_id", "changes", "compressed", "created_at").
		Values(entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.UserID, changes, compressed, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := s.tx.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *AuditService) encodeChanges(changes map[string]any) ([]byte, bool, error) {
	if len(changes) == 0 {
		return nil, false, nil
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, false, err
	}
	if len(raw) < compressThreshold {
		return raw, false, nil
	}
	return s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/3)), true, nil
}

// DecodeChanges restores a stored changes payload, decompressing if needed.
func (s *AuditService) DecodeChanges(data []byte, compressed bool) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	raw := data
	if compressed {
		var err error
		raw, err = s.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress audit changes: %w", err)
		}
	}
	var changes map[string]any
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil, fmt.Errorf("unmarshal audit changes: %w", err)
	}
	return changes, nil
}
