package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lapakgo/lapakgo/config"
)

var redisClient *redis.Client

// InitRedis connects the shared Redis client. It is called explicitly from
// main; every helper in this package degrades to a no-op (or in-memory
// fallback) when it was never called, which keeps tests free of Redis.
func InitRedis(cfg config.AppConfig) {
	redisClient = redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("redis ping failed, cache degraded: %v", err)
	}
}

// GetRedis returns the shared Redis client, or nil when Redis was not
// initialized.
func GetRedis() *redis.Client {
	return redisClient
}
