package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration. The queue DB backs the asynq broker; the
	// dispatch DB holds the notification idempotency ledger and the
	// linked calendar tokens.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisQueueDB    int    `mapstructure:"REDIS_QUEUE_DB"`
	RedisDispatchDB int    `mapstructure:"REDIS_DISPATCH_DB"`

	// Worker pool for queue consumers.
	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"`
	ConsumerMaxRetry  int `mapstructure:"CONSUMER_MAX_RETRY"`

	// Operating window for the slot grid, minutes from midnight.
	SlotOpenMinute  int `mapstructure:"SLOT_OPEN_MINUTE"`
	SlotCloseMinute int `mapstructure:"SLOT_CLOSE_MINUTE"`
	SlotStepMinutes int `mapstructure:"SLOT_STEP_MINUTES"`

	// Salon-local time zone used for calendar events and ICS export.
	SalonTimeZone string `mapstructure:"SALON_TIMEZONE"`

	// Google Calendar OAuth application credentials.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`

	// Notification provider settings.
	EmailAPIURL               string `mapstructure:"EMAIL_API_URL"`
	EmailAPIKey               string `mapstructure:"EMAIL_API_KEY"`
	EmailSender               string `mapstructure:"EMAIL_SENDER"`
	SMSAPIURL                 string `mapstructure:"SMS_API_URL"`
	SMSAPIKey                 string `mapstructure:"SMS_API_KEY"`
	FirebaseServiceAccountKey string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "salonbook")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_QUEUE_DB", 0)
	viper.SetDefault("REDIS_DISPATCH_DB", 1)
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("CONSUMER_MAX_RETRY", 5)
	viper.SetDefault("SLOT_OPEN_MINUTE", 480)
	viper.SetDefault("SLOT_CLOSE_MINUTE", 1200)
	viper.SetDefault("SLOT_STEP_MINUTES", 30)
	viper.SetDefault("SALON_TIMEZONE", "Europe/London")
	viper.SetDefault("EMAIL_SENDER", "bookings@salonbook.app")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
