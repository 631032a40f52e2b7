package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utnautiub/nuoi-buituantu/internal/pkg/config"
)

const pingTimeout = 3 * time.Second

// SetupCache connects to the Redis-compatible cache. It returns nil when no
// cache is configured; an unreachable server is logged, not fatal, so the
// service keeps accepting webhooks without locks and counters.
func SetupCache(cfg config.Cache) *redis.Client {
	if !cfg.Enabled() {
		log.Print("Cache not configured, running without delivery locks and counters")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache at %s: %v", cfg.Addr(), err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
	return client
}
