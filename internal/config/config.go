// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

// Config holds every setting of the service and its tools.
type Config struct {
	Port      string
	JWTSecret string
	// CORSOrigins is empty when any origin is allowed.
	CORSOrigins []string

	Database    db.Config
	AutoMigrate bool

	UploadsDir           string
	UploadsDefaultSubdir string
	MediaBucket          string
	AssetsCDNBaseURL     string
	AWSRegion            string

	RedisLocalURL       string
	RedisURL            string
	RedisConnectRetries int

	EventsTopicARN string

	CleanupInterval time.Duration
}

// LoadDotEnv loads a .env file when one exists.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		logging.LogKV(logging.LevelInfo, "no .env file found, using environment variables", nil)
	}
}

// Load reads the configuration from the environment.
func Load() Config {
	region := getEnv("AWS_REGION", getEnv("AWS_DEFAULT_REGION", "eu-central-1"))

	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		Database: db.Config{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "expotoworld"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),

		UploadsDir:           getEnv("UPLOADS_DIR", "./uploads"),
		UploadsDefaultSubdir: getEnv("UPLOADS_DEFAULT_SUBDIR", "products"),
		MediaBucket:          os.Getenv("MEDIA_BUCKET"),
		AssetsCDNBaseURL:     getEnv("ASSETS_CDN_BASE_URL", "https://assets.expotoworld.com"),
		AWSRegion:            region,

		RedisLocalURL:       getEnv("REDIS_LOCAL_URL", "redis://localhost:6379/0"),
		RedisURL:            os.Getenv("REDIS_URL"),
		RedisConnectRetries: getEnvInt("REDIS_CONNECT_RETRIES", 3),

		EventsTopicARN: os.Getenv("CATALOG_EVENTS_TOPIC_ARN"),

		CleanupInterval: time.Duration(getEnvInt("CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,
	}

	if origins := strings.TrimSpace(os.Getenv("CORS_ORIGIN")); origins != "" && origins != "*" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	return cfg
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		logging.LogKV(logging.LevelWarn, "invalid integer setting, using default", logging.Fields{
			"key": key, "value": value, "default": defaultValue,
		})
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
