// Package config loads the engine's configuration. Static settings come
// from environment variables at startup; similarity thresholds can be
// hot-reloaded from a JSON tuning file via the watcher.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string // GSI1 - children by parent

	// Storage backend: "dynamodb" or "memory"
	StorageBackend string

	// OpenAI configuration
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string
	EmbeddingDim   int

	// Placement and clustering defaults; the tuning file overrides
	// these at runtime when present. PlacementThreshold is the
	// candidate similarity floor, applied only when PlacementFilter is
	// on; the default placement path considers every candidate.
	PlacementThreshold float64
	PlacementFilter    bool
	ClusterThreshold   float64
	TopKCandidates     int

	// TuningFile is the optional hot-reloaded threshold file
	TuningFile string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "meetmap"),
		IndexName:     getEnv("INDEX_NAME", "GSI1"),

		StorageBackend: getEnv("STORAGE_BACKEND", "memory"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 384),

		PlacementThreshold: getEnvFloat("PLACEMENT_THRESHOLD", 0.75),
		PlacementFilter:    getEnvBool("PLACEMENT_FILTER", false),
		ClusterThreshold:   getEnvFloat("CLUSTER_THRESHOLD", 0.65),
		TopKCandidates:     getEnvInt("TOP_K_CANDIDATES", 5),

		TuningFile: getEnv("TUNING_FILE", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "dynamodb", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.StorageBackend == "dynamodb" && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required with the dynamodb backend")
	}

	if c.IsProduction() && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required in production")
	}

	if c.PlacementThreshold < 0 || c.PlacementThreshold > 1 {
		return fmt.Errorf("PLACEMENT_THRESHOLD must be in [0,1]")
	}
	if c.ClusterThreshold < 0 || c.ClusterThreshold > 1 {
		return fmt.Errorf("CLUSTER_THRESHOLD must be in [0,1]")
	}
	if c.TopKCandidates <= 0 {
		return fmt.Errorf("TOP_K_CANDIDATES must be positive")
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("EMBEDDING_DIM must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
