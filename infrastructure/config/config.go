package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverBadger   = "badger"

	defaultTableName = "aplicacion-senas-content"
	devJWTSecret     = "development-secret-change-in-production"
)

// Config holds all application configuration. Values come from defaults,
// then the optional YAML file named by CONFIG_FILE, then the environment.
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Storage
	AWSRegion         string `yaml:"aws_region"`
	TableName         string `yaml:"table_name"`
	DynamoEndpointURL string `yaml:"dynamo_endpoint_url"`
	StoreDriver       string `yaml:"store_driver"`
	BadgerPath        string `yaml:"badger_path"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTIssuer    string        `yaml:"jwt_issuer"`
	JWTExpiry    time.Duration `yaml:"jwt_expiry"`
	RateLimitRPM int           `yaml:"rate_limit_rpm"`

	// HTTP
	EnableCORS         bool     `yaml:"enable_cors"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Leaderboard cache
	RedisAddr           string        `yaml:"redis_addr"`
	LeaderboardCacheTTL time.Duration `yaml:"leaderboard_cache_ttl"`

	// Events
	EnableEvents bool   `yaml:"enable_events"`
	EventBusName string `yaml:"event_bus_name"`

	// Feature flags
	EnableMetrics         bool `yaml:"enable_metrics"`
	EnableTracing         bool `yaml:"enable_tracing"`
	CircuitBreakerEnabled bool `yaml:"circuit_breaker_enabled"`

	// Lambda
	IsLambda bool `yaml:"-"`

	// ConfigFile is the YAML overlay that was applied, if any.
	ConfigFile string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerAddress:         ":8080",
		Environment:           "development",
		AWSRegion:             "us-east-1",
		TableName:             defaultTableName,
		StoreDriver:           StoreDriverDynamoDB,
		BadgerPath:            "data/badger",
		LogLevel:              "info",
		JWTIssuer:             "learnboard",
		JWTExpiry:             30 * time.Minute,
		RateLimitRPM:          20,
		EnableCORS:            true,
		CORSAllowedOrigins:    []string{"*"},
		LeaderboardCacheTTL:   30 * time.Second,
		EventBusName:          "learnboard-events",
		EnableMetrics:         true,
		CircuitBreakerEnabled: true,
	}
}

// LoadConfig loads configuration from defaults, the YAML overlay and
// environment variables, in increasing priority.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}
	cfg.applyEnv()

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays the keys present in a YAML file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TableName = getEnv("TABLE_NAME", c.TableName)
	c.DynamoEndpointURL = getEnv("DYNAMO_ENDPOINT_URL", c.DynamoEndpointURL)
	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.BadgerPath = getEnv("BADGER_PATH", c.BadgerPath)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTExpiry = getEnvDuration("JWT_EXPIRY", c.JWTExpiry)
	c.RateLimitRPM = getEnvInt("RATE_LIMIT_RPM", c.RateLimitRPM)

	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.LeaderboardCacheTTL = getEnvDuration("LEADERBOARD_CACHE_TTL", c.LeaderboardCacheTTL)

	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.CircuitBreakerEnabled = getEnvBool("CIRCUIT_BREAKER_ENABLED", c.CircuitBreakerEnabled)

	c.IsLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
	case StoreDriverBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == devJWTSecret {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
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

// getEnvList splits a comma separated variable.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
