package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmstock/internal/core/apperror"
)

func TestCompileConditionRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax error", "quantity >"},
		{"unknown variable", "velocity < 10"},
		{"non-boolean result", "quantity + threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCondition(tt.expr)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestEvalCondition(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"quantity vs threshold", "quantity <= threshold", true},
		{"stock comparison", "stock >= 100", false},
		{"combined", "quantity < 10 && days_until_expiry < 30", true},
		{"ternary", "stock > 0 ? days_until_expiry <= threshold : false", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prg, err := CompileCondition(tt.expr)
			require.NoError(t, err)

			got, err := evalCondition(prg, 5, 42, 14, 20)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
