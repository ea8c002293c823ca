// Package config handles loading and validating configuration from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// APIToken is the bearer token for API authentication.
	APIToken string
	// ServerAddr is the HTTP listen address (e.g., :80, :8080).
	ServerAddr string
	// DBPath is the SQLite database file for the model catalog and
	// comparison records.
	DBPath string
	// StreamTimeout bounds each constituent provider stream.
	StreamTimeout time.Duration

	// OpenAIKey enables the OpenAI provider.
	OpenAIKey string
	// Azure enables the Azure OpenAI provider.
	Azure AzureConfig
	// GoogleKey enables the Google Gemini provider.
	GoogleKey string
	// AnthropicKey enables the Anthropic provider.
	AnthropicKey string
	// AWSRegion enables the Amazon Bedrock provider.
	AWSRegion string
	// EnableLorem registers the offline mock provider. Useful for local
	// development without API keys.
	EnableLorem bool
}

// AzureConfig holds Azure OpenAI deployment configuration.
type AzureConfig struct {
	APIKey     string
	BaseURL    string
	APIVersion string
}

// Load reads configuration from environment variables.
// It loads .env file if present, but environment variables take precedence.
func Load() (*Config, error) {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		APIToken:     os.Getenv("AISTUDIO_TOKEN"),
		ServerAddr:   os.Getenv("SERVER_ADDR"),
		DBPath:       os.Getenv("AISTUDIO_DB"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleKey:    os.Getenv("GOOGLE_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		AWSRegion:    strings.TrimSpace(os.Getenv("AWS_REGION")),
		Azure: AzureConfig{
			APIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
			BaseURL:    strings.TrimSpace(os.Getenv("AZURE_OPENAI_ENDPOINT")),
			APIVersion: os.Getenv("AZURE_OPENAI_API_VERSION"),
		},
	}
	cfg.StreamTimeout = parseDurationEnv("STREAM_TIMEOUT", 30*time.Second)
	cfg.EnableLorem = parseBoolEnv("ENABLE_LOREM", false)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return errors.New("AISTUDIO_TOKEN is required")
	}
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "data/aistudio.db"
	}
	if c.Azure.APIKey != "" && c.Azure.BaseURL == "" {
		return errors.New("AZURE_OPENAI_ENDPOINT is required when AZURE_OPENAI_API_KEY is set")
	}
	// Provider keys are optional - each missing key just disables that provider
	return nil
}

// HasAnyProvider reports whether at least one provider is configured.
func (c *Config) HasAnyProvider() bool {
	return c.OpenAIKey != "" || c.Azure.APIKey != "" || c.GoogleKey != "" ||
		c.AnthropicKey != "" || c.AWSRegion != "" || c.EnableLorem
}

func parseBoolEnv(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
