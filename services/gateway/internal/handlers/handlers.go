package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/response"
	"github.com/diagnosis/luxsuv-rentals/services/gateway/internal/proxy"
)

const apiPrefix = "/v1"

type Handlers struct {
	authProxy     *proxy.ServiceProxy
	bookingsProxy *proxy.ServiceProxy
}

func New(authProxy, bookingsProxy *proxy.ServiceProxy) *Handlers {
	return &Handlers{
		authProxy:     authProxy,
		bookingsProxy: bookingsProxy,
	}
}

// Routes exposes the public API under /v1. Paths are forwarded unchanged
// minus the version prefix; the services do their own auth.
func (h *Handlers) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.Route(apiPrefix, func(r chi.Router) {
		r.HandleFunc("/auth/*", h.forward(h.authProxy))
		r.HandleFunc("/bookings", h.forward(h.bookingsProxy))
		r.HandleFunc("/bookings/*", h.forward(h.bookingsProxy))
		r.HandleFunc("/services", h.forward(h.bookingsProxy))
		r.HandleFunc("/services/*", h.forward(h.bookingsProxy))
	})
}

func (h *Handlers) forward(upstream *proxy.ServiceProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.proxyRequest(w, r, upstream)
	}
}

func (h *Handlers) proxyRequest(w http.ResponseWriter, r *http.Request, upstream *proxy.ServiceProxy) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.BadRequest(w, "failed to read request body")
		return
	}
	defer r.Body.Close()

	path := strings.TrimPrefix(r.URL.Path, apiPrefix)
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	headers := make(http.Header)
	for key, values := range r.Header {
		if shouldCopyHeader(key) {
			headers[key] = values
		}
	}

	resp, err := upstream.ProxyRequest(r.Context(), r.Method, path, body, headers)
	if err != nil {
		logger.ErrorContext(r.Context(), "Service proxy error", logger.Err(err), "service", upstream.Name(), "path", path)
		response.WriteError(w, http.StatusServiceUnavailable, upstream.Name()+" service unavailable", "SERVICE_UNAVAILABLE")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if !shouldCopyHeader(key) {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.ErrorContext(r.Context(), "Failed to copy response body", logger.Err(err))
	}
}

var hopHeaders = map[string]bool{
	"connection":          true,
	"host":                true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"proxy-connection":    true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
	"content-length":      true,
}

func shouldCopyHeader(key string) bool {
	return !hopHeaders[strings.ToLower(key)]
}
