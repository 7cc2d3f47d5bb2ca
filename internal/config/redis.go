package config

// Redis backs the distributed rate limiter on the marking endpoints and the
// response cache on the landing pages.  Connection parameters come from the
// environment.  When the server cannot reach Redis at startup the constructor
// returns nil and callers degrade gracefully: no rate limiting, no caching.

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from the environment.
// Supported variables:
//   REDIS_ADDR     – host:port (default "localhost:6379")
//   REDIS_PASSWORD – optional password
//   REDIS_DB       – database number (default 0)
// Returns nil when the server does not answer a ping within two seconds.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			dbNum = n
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbNum,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
