// File: salonbook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salonbook/config"
	"salonbook/database"
	bookingRepo "salonbook/database/repository/booking"
	notifylogRepo "salonbook/database/repository/notifylog"
	"salonbook/handlers"
	"salonbook/middleware"
	"salonbook/routes"
	"salonbook/services/booking"
	"salonbook/services/calendar"
	"salonbook/services/events"
	"salonbook/services/notification"
	"salonbook/utils"
	"salonbook/workers"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitDispatchCache()
	utils.FirebaseInit()

	location, err := time.LoadLocation(config.AppConfig.SalonTimeZone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid salon time zone %q: %v", config.AppConfig.SalonTimeZone, err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookRepo := bookingRepo.NewMongoBookingRepo()
	if err := bookRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	logRepo := notifylogRepo.NewMongoNotificationLogRepo()

	// queue broker.
	queueClient := asynq.NewClient(workers.RedisOpt())
	defer queueClient.Close()
	publisher := events.NewAsynqPublisher(queueClient, config.AppConfig.ConsumerMaxRetry, location)

	// services.
	bookingService := &booking.DefaultBookingService{
		Repo:      bookRepo,
		Publisher: publisher,
		Window: booking.OperatingWindow{
			OpenMinute:  config.AppConfig.SlotOpenMinute,
			CloseMinute: config.AppConfig.SlotCloseMinute,
			StepMinutes: config.AppConfig.SlotStepMinutes,
		},
	}

	// consumers.
	tokenStore := calendar.NewRedisTokenStore(utils.GetDispatchClient())
	calendarClient := calendar.NewGoogleCalendarClient(
		config.AppConfig.GoogleClientID,
		config.AppConfig.GoogleClientSecret,
	)
	syncConsumer := calendar.NewSyncConsumer(tokenStore, calendarClient, bookingService, bookRepo, location)

	senders := []notification.ChannelSender{
		notification.NewHTTPEmailSender(
			config.AppConfig.EmailAPIURL,
			config.AppConfig.EmailAPIKey,
			config.AppConfig.EmailSender,
		),
		notification.NewHTTPSMSSender(
			config.AppConfig.SMSAPIURL,
			config.AppConfig.SMSAPIKey,
		),
		notification.NewFCMChatSender(utils.FCMClient),
	}
	dispatcher := notification.NewDispatcher(
		notification.NewStaticTemplates(),
		senders,
		logRepo,
		notification.NewRedisLedger(utils.GetDispatchClient()),
		bookRepo,
	)

	workers.InitConsumerWorkers(syncConsumer, dispatcher)
	utils.StartHealthMonitor(utils.GetQueueClient(), utils.GetDispatchClient(), database.MongoClient)

	bookingHandler := handlers.NewBookingHandler(bookingService, bookRepo, logRepo, location, logger)

	// Register routes with the assembled handler.
	routes.RegisterRoutes(router, bookingHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
