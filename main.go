package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"activityhub/config"
	"activityhub/db"
	"activityhub/middlewares"
	"activityhub/models"
	"activityhub/routes"
	"activityhub/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: users and attendance
	bootCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sqldb, err := db.Open(bootCtx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer sqldb.Close()
	if err := db.CreateTables(bootCtx, sqldb); err != nil {
		return err
	}

	// Mongo: activities
	mg, err := mongo.Connect(bootCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	defer func() { _ = mg.Disconnect(context.Background()) }()
	if err := mg.Ping(bootCtx, nil); err != nil {
		return err
	}
	activitiesCol := mg.Database(cfg.Mongo.Database).Collection("activities")
	if err := models.EnsureActivityIndexes(bootCtx, activitiesCol); err != nil {
		return err
	}

	// Redis: response cache and quota
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()
	if err := rdb.Ping(bootCtx).Err(); err != nil {
		logger.Warn("redis unavailable; cache and quota will fail open", "addr", cfg.Redis.Addr, "err", err)
	}

	server := gin.Default()
	if cfg.MetricsEnabled {
		server.Use(middlewares.Metrics())
		server.GET("/metrics", middlewares.MetricsHandler())
	}
	server.Use(middlewares.ResponseCache(rdb, cfg.CacheTTL))

	routes.RegisterRoutes(ctx, server, routes.Deps{
		Users:       models.NewSQLUserRepository(sqldb),
		Attendees:   models.NewSQLAttendanceRepository(sqldb),
		Activities:  models.NewMongoActivityRepository(activitiesCol),
		Redis:       rdb,
		Invalidator: utils.NewCacheInvalidator(rdb),
		Tokens:      utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
		Log:         logger,
		DailyQuota:  cfg.DailyQuota,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
