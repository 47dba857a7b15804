package auditware_test

import (
	"errors"
	"fmt"
	"testing"

	auditware "github.com/goliatone/go-auditware"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsMissingClaimError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured missing claim error",
			err:      auditware.ErrMissingClaim,
			expected: true,
		},
		{
			name:     "Wrapped missing claim error",
			err:      fmt.Errorf("authenticate: %w", auditware.ErrMissingClaim),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auditware.ErrStoreUnavailable,
			expected: false,
		},
		{
			name:     "Plain error",
			err:      errors.New("required claim missing or malformed"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auditware.IsMissingClaimError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsStoreUnavailableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured store error",
			err:      auditware.ErrStoreUnavailable,
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auditware.ErrMissingClaim,
			expected: false,
		},
		{
			name:     "Plain error",
			err:      errors.New("user store unavailable"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auditware.IsStoreUnavailableError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrMissingClaim", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auditware.ErrMissingClaim.Category)
		assert.Equal(t, auditware.TextCodeMissingClaim, auditware.ErrMissingClaim.TextCode)
		assert.Equal(t, "required claim missing or malformed", auditware.ErrMissingClaim.Message)
	})

	t.Run("ErrStoreUnavailable", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryOperation, auditware.ErrStoreUnavailable.Category)
		assert.Equal(t, auditware.TextCodeStoreUnavailable, auditware.ErrStoreUnavailable.TextCode)
	})

	t.Run("ErrOAuthExchangeFailed", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auditware.ErrOAuthExchangeFailed.Category)
		assert.Equal(t, auditware.TextCodeExchangeFailed, auditware.ErrOAuthExchangeFailed.TextCode)
	})
}
