package schema

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &APIError{Kind: ErrAPI, StatusCode: 502, Message: "bad gateway", Err: cause}

	assert.ErrorIs(t, err, ErrAPI)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, "api error (HTTP 502): bad gateway: connection reset", err.Error())

	limited := &APIError{Kind: ErrRateLimited, StatusCode: 429, RetryAfter: 30 * time.Second}
	wrapped := fmt.Errorf("fetch sprint: %w", limited)
	var apiErr *APIError
	require.ErrorAs(t, wrapped, &apiErr)
	assert.Equal(t, 30*time.Second, apiErr.RetryAfter)
	assert.ErrorIs(t, wrapped, ErrRateLimited)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("developers[0].developer", "must not be empty")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "developers[0].developer")

	var ve *ValidationError
	require.ErrorAs(t, fmt.Errorf("decode: %w", err), &ve)
	assert.Equal(t, "must not be empty", ve.Reason)
}

func TestErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"configuration", NewConfigurationError("github token is required"), CategoryUnauthorized},
		{"authentication", &APIError{Kind: ErrAuthentication, StatusCode: 401}, CategoryUnauthorized},
		{"rate limited", &APIError{Kind: ErrRateLimited, StatusCode: 403}, CategoryRateLimited},
		{"api", &APIError{Kind: ErrAPI, StatusCode: 500}, CategoryUpstreamUnavailable},
		{"validation", NewValidationError("start_date", "bad"), CategoryBadInput},
		{"not found", fmt.Errorf("sprint: %w", ErrNotFound), CategoryNotFound},
		{"conflict is internal", ErrConflict, CategoryInternal},
		{"unknown", errors.New("boom"), CategoryInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCategory(tt.err))
		})
	}
}
