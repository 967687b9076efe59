package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TILEADMIN_API_BASE_URL", "TILEADMIN_SELLER_ID", "TILEADMIN_WORKSPACE",
		"TILEADMIN_HTTP_TIMEOUT", "TILEADMIN_MAX_DIMENSION", "TILEADMIN_NAMING_PROVIDER",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("Expected %s, got %s", DefaultAPIBaseURL, cfg.APIBaseURL)
	}
	if cfg.Workspace != DefaultWorkspace {
		t.Errorf("Expected %s, got %s", DefaultWorkspace, cfg.Workspace)
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout || cfg.MaxDimension != DefaultMaxDimension {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.NamingProvider != "server" {
		t.Errorf("Expected server naming, got %s", cfg.NamingProvider)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TILEADMIN_API_BASE_URL", "https://api.example.com")
	t.Setenv("TILEADMIN_SELLER_ID", "s-42")
	t.Setenv("TILEADMIN_HTTP_TIMEOUT", "90s")
	t.Setenv("TILEADMIN_MAX_DIMENSION", "0")
	t.Setenv("TILEADMIN_NAMING_PROVIDER", "ollama")
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")
	t.Setenv("OLLAMA_MODEL", "llava:13b")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com" || cfg.SellerID != "s-42" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.HTTPTimeout != 90*time.Second || cfg.MaxDimension != 0 {
		t.Errorf("unexpected limits %+v", cfg)
	}
	if cfg.OllamaURL != "http://gpu:11434" || cfg.NamingModel != "llava:13b" {
		t.Errorf("unexpected naming config %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "TILEADMIN_HTTP_TIMEOUT", value: "soon"},
		{key: "TILEADMIN_MAX_DIMENSION", value: "-5"},
		{key: "TILEADMIN_MAX_DIMENSION", value: "big"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
