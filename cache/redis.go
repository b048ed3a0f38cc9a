package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitRedis connects the shared client. The cache is optional: if Redis is
// unreachable the helpers degrade to pass-through reads.
func InitRedis(addr string) {
	if addr == "" {
		return
	}
	Client = redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis connection failed, continuing without cache", "error", err)
		Client = nil
	} else {
		slog.Info("redis connected")
	}
}
