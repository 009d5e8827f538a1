package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all process configuration. Bucket and credential resolution
// is configuration only; no component infers bucket names at runtime.
type Config struct {
	AppPort             string
	GoogleProjectID     string
	FirestoreCollection string
	GCSBucket           string
	RabbitMQURL         string
	SignedURLTTL        time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults. GOOGLE_PROJECT_ID and GCS_BUCKET are empty by default, which
// switches the process to its in-memory store for local runs.
func Load() *Config {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("GOOGLE_PROJECT_ID", "")
	viper.SetDefault("FIRESTORE_COLLECTION", "products")
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("SIGNED_URL_TTL_DAYS", 365)
	viper.AutomaticEnv()

	return &Config{
		AppPort:             viper.GetString("APP_PORT"),
		GoogleProjectID:     viper.GetString("GOOGLE_PROJECT_ID"),
		FirestoreCollection: viper.GetString("FIRESTORE_COLLECTION"),
		GCSBucket:           viper.GetString("GCS_BUCKET"),
		RabbitMQURL:         viper.GetString("RABBITMQ_URL"),
		SignedURLTTL:        time.Duration(viper.GetInt("SIGNED_URL_TTL_DAYS")) * 24 * time.Hour,
	}
}
