package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL != "https://generativelanguage.googleapis.com" {
		t.Errorf("Unexpected default base URL: %s", cfg.API.BaseURL)
	}
	if cfg.API.Model != "gemini-2.0-flash" {
		t.Errorf("Unexpected default model: %s", cfg.API.Model)
	}
	if cfg.API.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts by default, got %d", cfg.API.MaxAttempts)
	}
	if cfg.API.ProcessingCeilingDuration() != 300*time.Second {
		t.Errorf("Unexpected processing ceiling: %s", cfg.API.ProcessingCeilingDuration())
	}
	if cfg.API.PollIntervalDuration() != 10*time.Second {
		t.Errorf("Unexpected poll interval: %s", cfg.API.PollIntervalDuration())
	}
	if cfg.Batch.Workers != 1 {
		t.Errorf("Expected sequential mode by default, got %d workers", cfg.Batch.Workers)
	}
	if cfg.Batch.JobPauseDuration() != 5*time.Second {
		t.Errorf("Unexpected job pause: %s", cfg.Batch.JobPauseDuration())
	}
	if cfg.Output.Backend != "local" {
		t.Errorf("Expected local backend by default, got %s", cfg.Output.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
api:
  model: gemini-2.5-pro
  max_attempts: 5
  poll_interval: 15
  processing_ceiling: 600
batch:
  workers: 4
  job_pause: 2
output:
  backend: s3
  access:
    bucket: transcripts
    region: eu-west-1
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.Model != "gemini-2.5-pro" {
		t.Errorf("Unexpected model: %s", cfg.API.Model)
	}
	if cfg.API.MaxAttempts != 5 {
		t.Errorf("Unexpected max attempts: %d", cfg.API.MaxAttempts)
	}
	// Unset fields still get defaults.
	if cfg.API.BaseURL == "" || cfg.API.UploadTimeout != 120 {
		t.Errorf("Defaults not applied: %+v", cfg.API)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("Unexpected workers: %d", cfg.Batch.Workers)
	}
	if cfg.Output.Access["bucket"] != "transcripts" {
		t.Errorf("Access map not parsed: %v", cfg.Output.Access)
	}
}

func TestModelEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_MODEL_NAME", "gemini-exp-override")

	cfg := Default()
	if cfg.API.Model != "gemini-exp-override" {
		t.Errorf("Expected env override to win, got %s", cfg.API.Model)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"too many workers", "batch:\n  workers: 20\n", "workers"},
		{"bad backend", "output:\n  backend: ftp\n", "backend"},
		{"bad log level", "logging:\n  level: loud\n", "level"},
		{"ceiling below poll", "api:\n  poll_interval: 60\n  processing_ceiling: 30\n", "processing_ceiling"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingOrMalformedFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "api: [not a mapping")); err == nil {
		t.Error("Expected error for malformed yaml")
	}
}
