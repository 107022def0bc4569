package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	SweepInterval      time.Duration
	SweepJobTimeout    time.Duration
	GrowingIdleTimeout map[string]time.Duration

	MaxNodesAdd    int
	MaxNodesUpdate int
	MaxNodesDelete int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "wellstore"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "wellstore"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		SweepInterval:   getenvDuration("SWEEP_INTERVAL", 90*time.Second),
		SweepJobTimeout: getenvDuration("SWEEP_JOB_TIMEOUT", 30*time.Second),
		GrowingIdleTimeout: map[string]time.Duration{
			"log":        getenvDuration("GROWING_IDLE_TIMEOUT_LOG", time.Hour),
			"trajectory": getenvDuration("GROWING_IDLE_TIMEOUT_TRAJECTORY", time.Hour),
			"mudLog":     getenvDuration("GROWING_IDLE_TIMEOUT_MUDLOG", time.Hour),
		},

		MaxNodesAdd:    getenvInt("MAX_NODES_ADD", 10000),
		MaxNodesUpdate: getenvInt("MAX_NODES_UPDATE", 10000),
		MaxNodesDelete: getenvInt("MAX_NODES_DELETE", 10000),
	}

	return cfg
}

// IdleTimeoutFor returns the growing idle timeout for an object type,
// falling back to one hour for types without an explicit entry.
func (c Config) IdleTimeoutFor(objectType string) time.Duration {
	if d, ok := c.GrowingIdleTimeout[objectType]; ok && d > 0 {
		return d
	}
	return time.Hour
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
