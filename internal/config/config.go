package config

import (
	"os"
	"strconv"
	"time"

	"gatepass/internal/database"
	"gatepass/internal/messaging"
)

// Config holds the application configuration.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Bootstrap admin credentials; the account is created on first start.
	AdminEmail    string
	AdminPassword string

	SearchEnabled bool
	CacheEnabled  bool

	Database      database.Config
	NATS          messaging.Config
	Elasticsearch ElasticsearchConfig
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@gatepass.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "changeme123"),

		SearchEnabled: getEnv("ELASTICSEARCH_ENABLED", "false") == "true",
		CacheEnabled:  getEnv("VALKEY_ENABLED", "false") == "true",

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "gatepass"),
			Password:           getEnv("DB_PASSWORD", "gatepass123"),
			DBName:             getEnv("DB_NAME", "gatepass"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "gatepass"),
			ClientID:  getEnv("NATS_CLIENT_ID", "gatepass-api"),
		},

		Elasticsearch: LoadElasticsearchConfig(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
