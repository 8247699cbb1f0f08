package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendFile      = "file"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

const maxBusinessTokenLength = 128

type Config struct {
	// HTTP server
	Port            string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Business scoping
	Timezone          string
	DemoBusinessToken string

	// Storage
	StoreBackend string
	DataDir      string
	SQLiteDBPath string
	ProjectID    string

	// Vertex AI
	Region      string
	VertexModel string
	AITTL       time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
}

// New reads configuration from the environment. Callers load any .env file
// first.
func New() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Timezone:          getEnv("TIMEZONE", "Asia/Kuala_Lumpur"),
		DemoBusinessToken: getEnv("DEMO_BUSINESS_TOKEN", "BIZ-DEMO-0001"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bizledger.db"),
		ProjectID:    getEnv("PROJECT_ID", ""),

		Region:      getEnv("REGION", "asia-southeast1"),
		VertexModel: getEnv("VERTEX_MODEL", ""),
		AITTL:       getEnvDuration("AI_TTL", 24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bizledger.events"),
	}
}

// VertexEnabled reports whether the assistant endpoint should be mounted.
func (c *Config) VertexEnabled() bool {
	return c.ProjectID != "" && c.VertexModel != ""
}

// Location resolves Timezone. Validate has already rejected unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be json or text", c.LogFormat))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.DemoBusinessToken == "" {
		problems = append(problems, "demo business token cannot be empty")
	} else if len(c.DemoBusinessToken) > maxBusinessTokenLength {
		problems = append(problems, fmt.Sprintf("demo business token must be at most %d characters", maxBusinessTokenLength))
	}

	switch c.StoreBackend {
	case BackendFile:
		if c.DataDir == "" {
			problems = append(problems, "DATA_DIR cannot be empty when using the file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLITE_DB_PATH cannot be empty when using the sqlite backend")
		}
	case BackendFirestore:
		if c.ProjectID == "" {
			problems = append(problems, "PROJECT_ID is required when using the firestore backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid store backend '%s': must be one of %v",
			c.StoreBackend, []string{BackendFile, BackendSQLite, BackendFirestore}))
	}

	if c.VertexModel != "" && c.ProjectID == "" {
		problems = append(problems, "PROJECT_ID is required when VERTEX_MODEL is set")
	}
	if c.AITTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid AI TTL %v: must not be negative", c.AITTL))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ShutdownTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
