// Package config reads tileadmin settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultAPIBaseURL   = "http://localhost:8000"
	DefaultWorkspace    = ".tileadmin/drafts.yaml"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultMaxDimension = 4096
)

type Config struct {
	APIBaseURL   string
	SellerID     string
	Workspace    string
	HTTPTimeout  time.Duration
	MaxDimension int

	NamingProvider string
	NamingModel    string
	GeminiAPIKey   string
	OllamaURL      string
	OpenAIAPIKey   string
}

// Load builds a Config from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:     getenv("TILEADMIN_API_BASE_URL", DefaultAPIBaseURL),
		SellerID:       os.Getenv("TILEADMIN_SELLER_ID"),
		Workspace:      getenv("TILEADMIN_WORKSPACE", DefaultWorkspace),
		HTTPTimeout:    DefaultHTTPTimeout,
		MaxDimension:   DefaultMaxDimension,
		NamingProvider: getenv("TILEADMIN_NAMING_PROVIDER", "server"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OllamaURL:      os.Getenv("OLLAMA_URL"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
	}

	if v := os.Getenv("TILEADMIN_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TILEADMIN_HTTP_TIMEOUT %q: %w", v, err)
		}
		cfg.HTTPTimeout = d
	}

	if v := os.Getenv("TILEADMIN_MAX_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid TILEADMIN_MAX_DIMENSION %q", v)
		}
		cfg.MaxDimension = n
	}

	switch cfg.NamingProvider {
	case "gemini":
		cfg.NamingModel = os.Getenv("GEMINI_MODEL")
	case "ollama":
		cfg.NamingModel = os.Getenv("OLLAMA_MODEL")
		if cfg.OllamaURL == "" {
			cfg.OllamaURL = os.Getenv("OLLAMA_HOST")
		}
	case "openai":
		cfg.NamingModel = os.Getenv("OPENAI_MODEL")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
