package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"managerconsole/common_library/logging"
	"managerconsole/internal/audit"
	"managerconsole/internal/backend"
	"managerconsole/internal/cache"
	"managerconsole/internal/config"
	"managerconsole/internal/db"
	"managerconsole/internal/directory"
	"managerconsole/internal/events"
	"managerconsole/internal/export"
	"managerconsole/internal/handler"
	"managerconsole/internal/middleware"
	"managerconsole/internal/service"
	"managerconsole/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}

	logger := logging.New(zapLogger)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal(ctx, "cannot create config", zap.Error(err))
	}

	backendClient, err := backend.New(cfg.BackendBaseURL, backend.Options{
		Timeout:    cfg.BackendTimeout,
		MaxRetries: cfg.BackendMaxRetries,
		RetryDelay: cfg.BackendRetryDelay,
	})
	if err != nil {
		logger.Fatal(ctx, "cannot create backend client", zap.Error(err))
	}

	var staffCache directory.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		redisConn := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		defer func() { _ = redisConn.Close() }()

		redisCache := cache.NewRedisCache(redisConn, "console:")
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn(ctx, "redis unavailable, staff directory is not cached", zap.Error(err))
		} else {
			staffCache = redisCache
		}
	}

	var publisher service.EventPublisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		sender := events.NewEventSender(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = sender.Close() }()
		publisher = sender
	}

	var auditRepo interface {
		service.AuditRecorder
		handler.AuditLister
	} = audit.Nop{}
	if cfg.PostgresURL != "" {
		pool, err := db.New(ctx, db.Options{
			URL:         cfg.PostgresURL,
			MaxConns:    cfg.PostgresMaxConn,
			MinConns:    cfg.PostgresMinConn,
			AutoMigrate: cfg.PostgresAutoMigrate,
		})
		if err != nil {
			logger.Fatal(ctx, "cannot connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		auditRepo = audit.NewRepository(pool)
	}

	registry := service.NewRegistry(service.Deps{
		Backend:         backendClient,
		Directory:       directory.NewBuilder(backendClient, staffCache, cfg.StaffCacheTTL, logger),
		Events:          publisher,
		Audit:           auditRepo,
		Logger:          logger,
		DefaultPageSize: cfg.DefaultPageSize,
	}, cfg.SessionIdleTTL)
	defer registry.Close()
	go registry.Run(ctx)

	consoleHandler := handler.NewConsoleHandler(registry, auditRepo, export.XLSX{})
	if cfg.S3Endpoint != "" {
		archive, err := storage.New(ctx, storage.Options{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.ExportBucket,
			URLTTL:          cfg.ExportURLTTL,
		})
		if err != nil {
			logger.Warn(ctx, "export archive disabled", zap.Error(err))
		} else {
			consoleHandler.WithArchive(archive)
		}
	}
	authMiddleware := middleware.NewAuthMiddleware()

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, 1<<20) // 1 MB
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/console", func(r chi.Router) {
		consoleHandler.RegisterRoutes(r, authMiddleware)
	})

	port := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info(ctx, "Starting server", zap.String("port", port))

	srv := &http.Server{
		Addr:              port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", zap.Error(err))
	}
	logger.Info(ctx, "Server stopped")
}
