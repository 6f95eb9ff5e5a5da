package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindExpired, http.StatusGone},
		{KindDependency, http.StatusBadGateway},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := Validation("INVALID_CODE", "invalid code")
	derived := sentinel.WithMessage("invalid code, 2 attempts remaining").
		WithDetails(map[string]any{"remaining_attempts": 2})

	wrapped := fmt.Errorf("verify: %w", derived)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(wrapped, Conflict("OTHER", "other")))
	assert.Equal(t, "invalid code", sentinel.Message)
}

func TestAsAndKindOf(t *testing.T) {
	err := fmt.Errorf("create booking: %w", Conflict("BOOKING_CONFLICT", "dates unavailable"))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "BOOKING_CONFLICT", appErr.Code)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("smtp down")
	err := Dependency("EMAIL_FAILED", "could not send email").Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "could not send email: smtp down", err.Error())
}
