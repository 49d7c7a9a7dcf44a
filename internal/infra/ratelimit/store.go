package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"
	"github.com/redis/go-redis/v9"

	"pdfdispatch/internal/infra/logging"
)

// RedisConfig points the limiter at a shared Redis. An empty Addr keeps counters in memory.
type RedisConfig struct {
	Addr string
	DB   int
}

const pingTimeout = time.Second

// NewStore returns limiter storage. Redis is used only when it answers a ping;
// otherwise the store falls back to process memory so the service still starts.
func NewStore(cfg RedisConfig) fiber.Storage {
	if cfg.Addr == "" {
		return memoryStorage.New()
	}
	if err := ping(cfg); err != nil {
		logging.Warn("Redis limiter store unreachable, falling back to memory", "addr", cfg.Addr, "error", err)
		return memoryStorage.New()
	}

	store, err := newRedisStore(cfg)
	if err != nil {
		logging.Error("Redis limiter store init failed, falling back to memory", "addr", cfg.Addr, "error", err)
		return memoryStorage.New()
	}
	logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	return store
}

func ping(cfg RedisConfig) error {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return rdb.Ping(ctx).Err()
}

// newRedisStore wraps redisStorage.New, which panics when it cannot connect.
func newRedisStore(cfg RedisConfig) (store fiber.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmtPanic(r)
		}
	}()
	return redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.Addr},
		Database: cfg.DB,
	}), nil
}

func fmtPanic(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("redis storage panicked: %w", err)
	}
	return fmt.Errorf("redis storage panicked: %v", r)
}
