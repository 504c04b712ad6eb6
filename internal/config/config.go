// Package config loads the process configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Protocol variants understood by the hub.
const (
	ProtocolPersisted = "persisted"
	ProtocolLegacy    = "legacy"
)

// Storage backends for the message log.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

const (
	defaultOrigin       = "http://localhost:3000"
	legacyDefaultOrigin = "*"
)

// Config holds every recognized option.
type Config struct {
	Port           int    `env:"PORT,default=5000" validate:"min=1,max=65535"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	Protocol       string `env:"CHAT_PROTOCOL,default=persisted" validate:"oneof=persisted legacy"`

	StorageBackend  string `env:"STORAGE_BACKEND,default=mongo" validate:"oneof=mongo postgres redis memory"`
	MongoURI        string `env:"MONGO_URI" validate:"required_if=StorageBackend mongo Protocol persisted"`
	MongoDatabase   string `env:"MONGO_DATABASE,default=chat" validate:"required"`
	MongoCollection string `env:"MONGO_COLLECTION,default=messages" validate:"required"`
	DatabaseURL     string `env:"DATABASE_URL" validate:"required_if=StorageBackend postgres Protocol persisted"`
	RedisAddr       string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB,default=0" validate:"min=0"`
	RedisKey        string `env:"REDIS_KEY,default=chat:messages" validate:"required"`

	HistoryLimit   int `env:"HISTORY_LIMIT,default=100" validate:"min=1"`
	MaxMessageSize int `env:"MAX_MESSAGE_SIZE,default=65536" validate:"min=1"`
	SendBufferSize int `env:"SEND_BUFFER_SIZE,default=256" validate:"min=1"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text" validate:"oneof=text json"`
}

// Load reads the .env file at path (if any) into the process environment and then
// decodes the environment. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return FromEnvSet(es)
}

// FromEnvSet decodes and validates cfg from an explicit variable set.
func FromEnvSet(es env.EnvSet) (*Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if strings.TrimSpace(cfg.AllowedOrigins) == "" {
		cfg.AllowedOrigins = defaultOrigin
		if cfg.Protocol == ProtocolLegacy {
			cfg.AllowedOrigins = legacyDefaultOrigin
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports the first offending field.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewConfigError(fe.Field(), fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), fe.Value()))
	}
	return err
}

// Origins splits the allow-list into its entries.
func (c *Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Legacy reports whether the deprecated minimal protocol is selected.
func (c *Config) Legacy() bool {
	return c.Protocol == ProtocolLegacy
}

// ListenAddr is the address handed to the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s': %s", e.Field, e.Message)
}
