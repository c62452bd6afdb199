package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus reports reachability of the booking store and the two
// redis roles: the broker backing lifecycle events and the dispatch
// ledger holding de-dup keys and calendar tokens.
type HealthStatus struct {
	BookingStore   bool      `json:"bookingStore"`
	QueueBroker    bool      `json:"queueBroker"`
	DispatchLedger bool      `json:"dispatchLedger"`
	CheckedAt      time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns the latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

func setHealth(h HealthStatus) {
	healthMu.Lock()
	currentHealth = h
	healthMu.Unlock()
}

func checkHealth(ctx context.Context, queue, dispatch *redis.Client, mongoClient *mongo.Client) HealthStatus {
	return HealthStatus{
		BookingStore:   mongoClient.Ping(ctx, nil) == nil,
		QueueBroker:    queue.Ping(ctx).Err() == nil,
		DispatchLedger: dispatch.Ping(ctx).Err() == nil,
		CheckedAt:      time.Now(),
	}
}

// StartHealthMonitor pings the store and both redis roles periodically
// and keeps the latest snapshot in memory for the health endpoint.
func StartHealthMonitor(queue, dispatch *redis.Client, mongoClient *mongo.Client) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		ctx := context.Background()
		for range ticker.C {
			setHealth(checkHealth(ctx, queue, dispatch, mongoClient))
		}
	}()
}
