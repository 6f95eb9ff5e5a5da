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
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/mailer"
	mw "github.com/diagnosis/luxsuv-rentals/pkg/middleware"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/handlers"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/otp"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/repository"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/service"
)

const serviceName = "auth"

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

	var store otp.Store
	switch cfg.OTP.Store {
	case "redis":
		redisCache, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Error("Failed to connect to Redis", logger.Err(err))
			os.Exit(1)
		}
		defer redisCache.Close()
		store = otp.NewRedisStore(redisCache)
	default:
		store = otp.NewMemoryStore()
	}
	logger.Info("OTP store selected", "store", cfg.OTP.Store)

	verifier := otp.NewVerifier(store, mailer.New(cfg.Email),
		otp.WithTTL(cfg.OTP.TTL),
		otp.WithMaxAttempts(cfg.OTP.MaxAttempts),
	)

	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(userRepo, verifier, cfg.Auth)

	h := handlers.New(authService, mw.NewRateLimiter(cfg.OTP.RequestRate, cfg.OTP.RequestBurst))

	r := chi.NewRouter()
	r.Use(mw.Recoverer)
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics(serviceName))

	h.Routes(r)

	port := cfg.Server.PortFor(serviceName, "8081")
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

		logger.Info("Shutting down auth service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Auth service shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Starting auth service", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Auth service error", logger.Err(err))
		os.Exit(1)
	}
}
