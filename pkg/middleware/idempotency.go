package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/luxsuv-rentals/pkg/auth"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/response"
)

// IdempotencyStore persists replayable responses. pkg/cache satisfies it.
type IdempotencyStore interface {
	GetJSON(ctx context.Context, key string, result any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	SetJSONNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// storedResponse is either a finished response or, with Pending set, the
// marker held while the first request is still running.
type storedResponse struct {
	Pending bool   `json:"pending,omitempty"`
	Status  int    `json:"status,omitempty"`
	Body    []byte `json:"body,omitempty"`
}

// maxPending bounds how long a crashed request can hold its key.
const maxPending = time.Minute

// Idempotency replays the first successful response for a repeated
// Idempotency-Key on POST requests. Keys are scoped per authenticated user.
// A repeat that arrives while the first request is still running gets 409.
// Failed responses are not stored, so the client may retry with the same key.
func Idempotency(store IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			var owner int64
			if claims := auth.FromContext(r.Context()); claims != nil {
				owner = claims.Sub
			}
			sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s:%s", owner, r.URL.Path, key)))
			hashedKey := fmt.Sprintf("idempotency:%x", sum)

			ctx := r.Context()
			var prev storedResponse
			found, err := store.GetJSON(ctx, hashedKey, &prev)
			if err != nil {
				logger.WarnContext(ctx, "Idempotency lookup failed", logger.Err(err))
			}

			reserved := false
			if err == nil && !found {
				reserved, err = store.SetJSONNX(ctx, hashedKey, storedResponse{Pending: true}, min(ttl, maxPending))
				if err != nil {
					logger.WarnContext(ctx, "Idempotency reservation failed", logger.Err(err))
				} else if !reserved {
					// lost the race to another request with the same key
					found, err = store.GetJSON(ctx, hashedKey, &prev)
					if err != nil || !found {
						prev = storedResponse{Pending: true}
						found = true
					}
				}
			}

			if found {
				if prev.Pending {
					response.Conflict(w, "a request with this Idempotency-Key is still being processed")
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(prev.Status)
				w.Write(prev.Body)
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			// the request context may already be cancelled once the handler returns
			ctx = context.WithoutCancel(ctx)
			if recorder.statusCode >= 200 && recorder.statusCode < 300 {
				rec := storedResponse{Status: recorder.statusCode, Body: recorder.body}
				if err := store.SetJSON(ctx, hashedKey, rec, ttl); err != nil {
					logger.WarnContext(ctx, "Failed to store idempotent response", logger.Err(err))
				}
				return
			}
			if reserved {
				if err := store.Delete(ctx, hashedKey); err != nil {
					logger.WarnContext(ctx, "Failed to release idempotency key", logger.Err(err))
				}
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return r.ResponseWriter.Write(body)
}
