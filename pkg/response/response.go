package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/diagnosis/luxsuv-rentals/pkg/apperror"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
)

func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", logger.Err(err))
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// FromError renders err using its apperror kind. Errors outside the taxonomy
// are logged and reported as a generic 500.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperror.As(err); ok {
		if appErr.Kind == apperror.KindInternal || appErr.Kind == apperror.KindDependency {
			logger.ErrorContext(r.Context(), "request failed", logger.Err(err), "code", appErr.Code)
		}
		JSON(w, appErr.Status(), ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	logger.ErrorContext(r.Context(), "unhandled error", logger.Err(err), "path", r.URL.Path)
	InternalError(w, "internal server error")
}

// ValidationError converts validator output into a 400 with one entry per
// failed field.
func ValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		BadRequest(w, err.Error())
		return
	}

	fields := make(map[string]any, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("field %s is required", fe.Field())
		case "email":
			msg = fmt.Sprintf("field %s is not a valid email", fe.Field())
		case "datetime":
			msg = fmt.Sprintf("field %s must be a date formatted as %s", fe.Field(), fe.Param())
		default:
			msg = fmt.Sprintf("field %s is not valid", fe.Field())
		}
		fields[fe.Field()] = fe.Tag()
		msgs = append(msgs, msg)
	}

	JSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   strings.Join(msgs, ", "),
		Code:    CodeInvalidInput,
		Details: fields,
	})
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
