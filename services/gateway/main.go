package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/luxsuv-rentals/pkg/config"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	mw "github.com/diagnosis/luxsuv-rentals/pkg/middleware"
	"github.com/diagnosis/luxsuv-rentals/services/gateway/internal/handlers"
	"github.com/diagnosis/luxsuv-rentals/services/gateway/internal/proxy"
)

const serviceName = "gateway"

func main() {
	cfg := config.Load()

	authProxy := proxy.NewServiceProxy("auth", cfg.Services.AuthURL)
	bookingsProxy := proxy.NewServiceProxy("bookings", cfg.Services.BookingsURL)

	h := handlers.New(authProxy, bookingsProxy)
	limiter := mw.NewRateLimiter(cfg.Services.RateLimit, cfg.Services.RateBurst)

	r := chi.NewRouter()
	r.Use(mw.Recoverer)
	r.Use(mw.RealIP)
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics(serviceName))
	r.Use(limiter.Middleware)

	h.Routes(r)

	port := cfg.Server.PortFor(serviceName, "8080")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down gateway service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Gateway shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Starting gateway service", "port", port,
		"auth_url", cfg.Services.AuthURL, "bookings_url", cfg.Services.BookingsURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Gateway server error", logger.Err(err))
		os.Exit(1)
	}
}
