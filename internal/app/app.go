package app

import (
	"context"
	"fmt"
	"os"

	"go-ems/internal/config"
	"go-ems/internal/employee"
	"go-ems/internal/shared/connection"
	"go-ems/internal/shared/filestore"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BuildApp connects infrastructure, runs migrations and returns a router
// with every module registered. The returned cleanup closes what was opened.
func BuildApp(cfg config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// 1. Setup Infrastructure
	db, err := connection.ConnectGORMWithRetry(cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, func() { _ = sqlDB.Close() })

	if err := connection.Migrate(connection.MigrationURL(cfg), logger); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("migrate: %w", err)
	}

	checks := map[string]HealthCheck{
		"database": sqlDB.PingContext,
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.DBMaxRetries, logger)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		logger.Info("REDIS_ADDR not set, idempotency keys disabled")
	}

	publisher := employee.NewNoopEventPublisher()
	if cfg.KafkaBroker != "" {
		writer := connection.NewKafkaWriter(cfg.KafkaBroker)
		closers = append(closers, func() { _ = writer.Close() })
		publisher = employee.NewKafkaEventPublisher(writer)
		logger.Info("publishing employee events", zap.String("broker", cfg.KafkaBroker))
	}

	files, err := filestore.New(cfg.UploadDir)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("upload dir: %w", err)
	}
	checks["uploads"] = func(context.Context) error {
		_, err := os.Stat(files.Dir())
		return err
	}

	router := NewRouter(cfg, logger, checks)

	// Register Modules & Routes
	registerModules(router, cfg, modules{
		db:        db,
		rdb:       rdb,
		files:     files,
		publisher: publisher,
	}, logger)

	return router, cleanup, nil
}
