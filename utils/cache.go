// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"salonbook/config"

	"github.com/go-redis/redis/v8"
)

var (
	// DispatchClient holds the notification dispatch ledger and linked
	// calendar tokens.
	DispatchClient *redis.Client

	// QueueClient pings the broker redis for health checks only. asynq
	// owns its own connections for queue operations.
	QueueClient *redis.Client
)

// InitDispatchCache initializes the Redis client for the dispatch ledger.
func InitDispatchCache() {
	DispatchClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDispatchDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := DispatchClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Dispatch): %v", err)
	}
}

// GetDispatchClient returns the Redis client for the dispatch ledger.
func GetDispatchClient() *redis.Client {
	if DispatchClient == nil {
		InitDispatchCache()
	}
	return DispatchClient
}

// GetQueueClient returns the health-probe client for the broker redis.
func GetQueueClient() *redis.Client {
	if QueueClient == nil {
		QueueClient = redis.NewClient(&redis.Options{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		})
	}
	return QueueClient
}
