package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

const (
	DefaultPort            = "8000"
	DefaultProviderTimeout = 60 * time.Second
)

// Config holds the configuration for the application.
type Config struct {
	Port string

	// LLM Config
	Provider        string
	GeminiAPIKey    string
	GroqAPIKey      string
	Model           string        // Empty means the provider default
	ProviderTimeout time.Duration // Zero disables the timeout

	CORSAllowedOrigins []string

	// Usage metrics are only recorded when a database path is set
	MetricsDBPath string

	LogLevel  string
	LogFormat string
}

// NewFromEnv creates a new Config object from environment variables.
// Provider credentials are checked separately by ValidateProvider, so commands
// that never call a provider can run without them.
func NewFromEnv() (*Config, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGemini))

	timeout := DefaultProviderTimeout
	if raw := os.Getenv("PROVIDER_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT %q: %w", raw, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT %q: must not be negative", raw)
		}
		timeout = d
	}

	return &Config{
		Port:               getEnvOrDefault("PORT", DefaultPort),
		Provider:           provider,
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		Model:              os.Getenv("LLM_MODEL"),
		ProviderTimeout:    timeout,
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		MetricsDBPath:      os.Getenv("METRICS_DB_PATH"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "text"),
	}, nil
}

// ValidateProvider checks that the selected provider is known and has an API key.
func (c *Config) ValidateProvider() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.Provider)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
