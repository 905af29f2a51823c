package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Audit database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables report exports)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report export worker
	ExportDir string

	// Uploads
	MaxUploadBytes int64

	// Rate limiting (POST requests per client IP)
	RateLimitPerMin          int
	RateLimitCleanupInterval time.Duration
	RateLimitClientTTL       time.Duration

	// Sessions
	SessionTTL      time.Duration
	MaxSessions     int
	CleanupInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8082"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/betmetrics.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "betmetrics"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_exports"),

		ExportDir: getEnv("EXPORT_DIR", "./exports"),

		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 20<<20),

		RateLimitPerMin:          getEnvInt("RATE_LIMIT_PER_MIN", 60),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		RateLimitClientTTL:       getEnvDuration("RATE_LIMIT_CLIENT_TTL", 10*time.Minute),

		SessionTTL:      getEnvDuration("SESSION_TTL", 2*time.Hour),
		MaxSessions:     getEnvInt("MAX_SESSIONS", 100),
		CleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate audit database path
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate export directory
	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
	}

	// Validate upload size cap
	if c.MaxUploadBytes < 1<<10 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1KB", c.MaxUploadBytes))
	} else if c.MaxUploadBytes > 1<<30 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at most 1GB", c.MaxUploadBytes))
	}

	// Validate rate limiting
	if c.RateLimitPerMin < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	} else if c.RateLimitPerMin > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at most 10000 requests per minute", c.RateLimitPerMin))
	}
	if c.RateLimitCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rate limit cleanup interval %v: must be at least 1 second", c.RateLimitCleanupInterval))
	}
	if c.RateLimitClientTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate limit client TTL %v: must be at least 1 minute", c.RateLimitClientTTL))
	}

	// Validate session settings
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 24 hours", c.SessionTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	} else if c.MaxSessions > 10000 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at most 10000", c.MaxSessions))
	}
	if c.CleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cleanup interval %v: must be at least 1 second", c.CleanupInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
