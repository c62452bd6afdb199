// Package workers runs the queue consumer pool. The broker delivers each
// event at least once per consumer group; handlers return an error to
// request redelivery with backoff, or wrap asynq.SkipRetry for poison
// payloads.
package workers

import (
	"log"
	"time"

	"salonbook/config"
	"salonbook/models"
	"salonbook/services/calendar"
	"salonbook/services/events"
	"salonbook/services/notification"

	"github.com/hibiken/asynq"
)

// RedisOpt builds the broker connection options from config.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitConsumerWorkers starts the asynq server with both consumer groups
// registered. Runs in the background; start failures retry with backoff
// before giving up.
func InitConsumerWorkers(sync *calendar.SyncConsumer, dispatcher *notification.Dispatcher) {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: config.AppConfig.WorkerConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()

	// Calendar group: mirrors confirmed bookings, removes cancelled ones.
	mux.HandleFunc(events.TaskType(events.GroupCalendar, models.EventBookingConfirmed), sync.HandleConfirmed)
	mux.HandleFunc(events.TaskType(events.GroupCalendar, models.EventBookingCancelled), sync.HandleCancelled)

	// Notify group: multi-channel dispatch for every lifecycle topic.
	for _, topic := range []models.EventType{
		models.EventBookingCreated,
		models.EventBookingConfirmed,
		models.EventBookingCancelled,
		models.EventBookingCompleted,
		models.EventBookingReminder,
	} {
		mux.HandleFunc(events.TaskType(events.GroupNotify, topic), dispatcher.HandleEvent)
	}

	go func() {
		log.Println("[ConsumerWorkers] starting async worker pool...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ConsumerWorkers] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ConsumerWorkers] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}
