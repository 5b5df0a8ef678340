package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/brandguard")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("S3_URL", "http://localhost:9000")
	t.Setenv("S3_BUCKET", "designs")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.ModelCallTimeout() != 60*time.Second {
		t.Errorf("expected 60s model timeout, got %s", cfg.ModelCallTimeout())
	}
	if cfg.AssetTaggingQueueName != "asset_tagging_queue" {
		t.Errorf("unexpected tagging queue %q", cfg.AssetTaggingQueueName)
	}
	if cfg.RedisURL != "" {
		t.Errorf("expected redis to be disabled by default, got %q", cfg.RedisURL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	// t.Setenv restores the original value after the test; envconfig only
	// treats an unset variable as missing.
	t.Setenv("DB_URL", "")
	os.Unsetenv("DB_URL")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when required settings are missing")
	}
}
