package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-rentals/pkg/apperror"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestFromErrorMapsKind(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookings", nil)

	err := fmt.Errorf("create: %w", apperror.Conflict("BOOKING_CONFLICT", "item is fully booked on 2024-03-11"))
	FromError(rec, req, err)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "BOOKING_CONFLICT", body.Code)
	assert.Equal(t, "item is fully booked on 2024-03-11", body.Error)
}

func TestFromErrorCarriesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-otp", nil)

	err := apperror.Validation("INVALID_CODE", "invalid code").
		WithDetails(map[string]any{"remaining_attempts": 2})
	FromError(rec, req, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body.Details["remaining_attempts"])
}

func TestFromErrorUnknownIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	FromError(rec, req, errors.New("pool closed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, CodeInternalError, body.Code)
	assert.NotContains(t, body.Error, "pool closed")
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Start string `validate:"required,datetime=2006-01-02"`
	}

	err := validator.New().Struct(payload{Email: "nope", Start: "03/10/2024"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	ValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, CodeInvalidInput, body.Code)
	assert.Equal(t, "email", body.Details["Email"])
	assert.Equal(t, "datetime", body.Details["Start"])
}
