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

	"github.com/diagnosis/luxsuv-rentals/pkg/cache"
	"github.com/diagnosis/luxsuv-rentals/pkg/config"
	"github.com/diagnosis/luxsuv-rentals/pkg/database"
	"github.com/diagnosis/luxsuv-rentals/pkg/events"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	mw "github.com/diagnosis/luxsuv-rentals/pkg/middleware"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/handlers"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/repository"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/service"
)

const serviceName = "bookings"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", logger.Err(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(pool, cfg.Migrations.Path); err != nil {
		logger.Error("Failed to run migrations", logger.Err(err))
		os.Exit(1)
	}

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, serviceName)
	if err != nil {
		logger.Error("Failed to connect to NATS", logger.Err(err))
		os.Exit(1)
	}
	defer eventBus.Close()

	// Idempotency-Key replay is optional; bookings still work without Redis.
	var idempotency mw.IdempotencyStore
	if redisCache, err := cache.Connect(ctx, cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, idempotency keys disabled", logger.Err(err))
	} else {
		defer redisCache.Close()
		idempotency = redisCache
	}

	itemRepo := repository.NewItemRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	bookingService := service.NewBookingService(itemRepo, bookingRepo, service.NewEventNotifier(eventBus))
	catalogService := service.NewCatalogService(itemRepo)

	h := handlers.New(bookingService, catalogService, cfg.Auth.JWTSecret, idempotency)

	r := chi.NewRouter()
	r.Use(mw.Recoverer)
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics(serviceName))

	h.Routes(r)

	port := cfg.Server.PortFor(serviceName, "8082")
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

		logger.Info("Shutting down bookings service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Bookings service shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Starting bookings service", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Bookings service error", logger.Err(err))
		os.Exit(1)
	}
}
