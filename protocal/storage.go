package protocal

import (
	"context"
	"fmt"
	"path/filepath"

	"booking-session-cache/configs"
	httpAdapter "booking-session-cache/internal/adapters/input/http"
	fileAdapter "booking-session-cache/internal/adapters/output/file"
	"booking-session-cache/internal/adapters/output/gormkv"
	"booking-session-cache/internal/adapters/output/memory"
	redisAdapter "booking-session-cache/internal/adapters/output/redis"
	"booking-session-cache/internal/ports/output"
	"booking-session-cache/pkg/database_driver/gorm"
	"booking-session-cache/pkg/database_driver/redis"

	"github.com/sirupsen/logrus"
)

// Storage drivers selectable with storage.driver
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
)

// durableStorage bundles the selected backend with its health probe and closer
type durableStorage struct {
	output.DurableStorage
	health httpAdapter.HealthCheckFunc
	close  func()
}

func newDurableStorage(cfg *configs.Config) (*durableStorage, error) {
	driver := cfg.Storage.Driver
	if driver == "" {
		driver = StorageMemory
	}
	logrus.Info("Durable storage driver: ", driver)

	switch driver {
	case StorageMemory:
		return &durableStorage{DurableStorage: memory.NewMemoryStorage(), close: func() {}}, nil

	case StorageFile:
		store, err := fileAdapter.NewOsFileStorage(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return &durableStorage{DurableStorage: store, close: func() {}}, nil

	case StoragePostgres, StorageSQLite:
		var (
			db  *gorm.DB
			err error
		)
		if driver == StoragePostgres {
			db, err = gorm.ConnectToPostgreSQL(
				cfg.Postgres.Host,
				cfg.Postgres.Port,
				cfg.Postgres.Username,
				cfg.Postgres.Password,
				cfg.Postgres.DbName,
				cfg.Postgres.SSLMode,
			)
		} else {
			path := cfg.Storage.Path
			if path == "" {
				path = "file::memory:"
			} else if filepath.Ext(path) == "" {
				path = filepath.Join(path, "session.db")
			}
			db, err = gorm.ConnectToSQLite(path)
		}
		if err != nil {
			return nil, err
		}
		store, err := gormkv.NewGormStorage(db.Gorm)
		if err != nil {
			gorm.Disconnect(db)
			return nil, err
		}
		return &durableStorage{
			DurableStorage: store,
			health: func(ctx context.Context) error {
				sqlDB, err := db.Gorm.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			close: func() { gorm.Disconnect(db) },
		}, nil

	case StorageRedis:
		client, err := redis.ConnectToRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return &durableStorage{
			DurableStorage: redisAdapter.NewRedisStorage(client, cfg.Redis.Prefix),
			health: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			close: func() { redis.DisconnectRedis(client) },
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
