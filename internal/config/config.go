package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage drivers for the chat history store
const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	// Storage
	StorageDriver  string        `env:"STORAGE_DRIVER" envDefault:"mongo"`
	UseMemoryStore bool          `env:"USE_MEMORY_STORE" envDefault:"false"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"10s"`

	// MongoDB (chat memory + analytics collections)
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"market"`

	// PostgreSQL (alternative chat memory backend)
	DBHost                 string `env:"DB_HOST" envDefault:"localhost"`
	DBPort                 int    `env:"DB_PORT" envDefault:"5432"`
	DBUser                 string `env:"DB_USER" envDefault:"postgres"`
	DBPass                 string `env:"DB_PASS"`
	DBName                 string `env:"DB_NAME" envDefault:"market"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	// LLM settings
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	SystemPromptPath string        `env:"SYSTEM_PROMPT_PATH"`
	ModelTimeout     time.Duration `env:"MODEL_TIMEOUT" envDefault:"60s"`
	ModelProbe       bool          `env:"MODEL_PROBE" envDefault:"true"`

	// Reports
	ReportsDir string `env:"REPORTS_DIR" envDefault:"reports"`

	// Optional guard for analytics endpoints
	AnalyticsAPIKey string `env:"ANALYTICS_API_KEY"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if cfg.UseMemoryStore {
		cfg.StorageDriver = StorageMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StorageDriver {
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI cannot be empty")
		}
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.MongoDatabase == "" {
		return fmt.Errorf("MONGO_DATABASE cannot be empty")
	}
	if c.ReportsDir == "" {
		return fmt.Errorf("REPORTS_DIR cannot be empty")
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("MODEL_TIMEOUT must be > 0")
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PostgresDSN builds the gorm DSN. Cloud SQL instances are reached through
// the unix socket mounted under /cloudsql.
func (c *Config) PostgresDSN() string {
	if c.InstanceConnectionName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			c.InstanceConnectionName, c.DBUser, c.DBPass, c.DBName)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort)
}

// StorageType is a human readable name of the active chat store.
func (c *Config) StorageType() string {
	switch c.StorageDriver {
	case StorageMemory:
		return "In-Memory (Testing)"
	case StoragePostgres:
		return "PostgreSQL Database"
	default:
		return "MongoDB"
	}
}
