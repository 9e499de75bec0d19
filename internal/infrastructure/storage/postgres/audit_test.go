package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeChangesCompressesLargePayloads(t *testing.T) {
	s, err := NewAuditService(nil)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		data, compressed, err := s.encodeChanges(nil)
		require.NoError(t, err)
		assert.Nil(t, data)
		assert.False(t, compressed)
	})

	t.Run("small stays plain JSON", func(t *testing.T) {
		changes := map[string]any{"quantity": float64(5), "batch_number": "LOT-001"}
		data, compressed, err := s.encodeChanges(changes)
		require.NoError(t, err)
		assert.False(t, compressed)

		decoded, err := s.DecodeChanges(data, compressed)
		require.NoError(t, err)
		assert.Equal(t, changes, decoded)
	})

	t.Run("large payload round trips through zstd", func(t *testing.T) {
		changes := map[string]any{"note": strings.Repeat("batch ledger audit ", 1000)}
		data, compressed, err := s.encodeChanges(changes)
		require.NoError(t, err)
		assert.True(t, compressed)
		assert.Less(t, len(data), compressThreshold, "repetitive text should compress well")

		decoded, err := s.DecodeChanges(data, compressed)
		require.NoError(t, err)
		assert.Equal(t, changes, decoded)
	})
}
