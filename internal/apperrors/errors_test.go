package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"wrapped unbalanced", fmt.Errorf("append: %w", ErrUnbalanced), "Unbalanced"},
		{"unknown root wins over validation", fmt.Errorf("%w: %w", ErrUnknownRoot, ErrValidation), "UnknownRoot"},
		{"rejected entry with unknown root", fmt.Errorf("%w: line 0: %w", ErrInvalidAccount, ErrUnknownRoot), "InvalidAccount"},
		{"app error unwraps", NewAppError(500, "db down", ErrNotFound), "NotFound"},
		{"plain error", errors.New("boom"), "Internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "failed to commit: boom", NewAppError(500, "failed to commit", errors.New("boom")).Error())
	assert.Equal(t, "bare", NewAppError(400, "bare", nil).Error())
}
