package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataDirEnvOverride(t *testing.T) {
	t.Setenv("AUDIOSCRIBE_DATA_DIR", "/var/lib/audioscribe")

	if got := GetDataDir(); got != "/var/lib/audioscribe" {
		t.Errorf("Expected env override, got %s", got)
	}
	if got := GetFailuresDBPath(); got != filepath.Join("/var/lib/audioscribe", "failures.db") {
		t.Errorf("Unexpected failures path: %s", got)
	}
	if got := GetSuccessDBPath(); got != filepath.Join("/var/lib/audioscribe", "success.db") {
		t.Errorf("Unexpected success path: %s", got)
	}
}

func TestDataDirDefault(t *testing.T) {
	t.Setenv("AUDIOSCRIBE_DATA_DIR", "")
	if got := GetDataDir(); got != "./data" {
		t.Errorf("Expected default data dir, got %s", got)
	}
}

func TestLedgerDir(t *testing.T) {
	t.Setenv("AUDIOSCRIBE_LEDGER_DIR", "/tmp/ledgers")
	if got := GetLedgerDir(); got != "/tmp/ledgers" {
		t.Errorf("Expected env override, got %s", got)
	}

	t.Setenv("AUDIOSCRIBE_LEDGER_DIR", "")
	if got := GetLedgerDir(); got != "./failed_files" {
		t.Errorf("Expected default ledger dir, got %s", got)
	}
}

func TestLoadPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("Transcribe this audio.\n"), 0644); err != nil {
		t.Fatal(err)
	}

	prompt, err := LoadPrompt(path)
	if err != nil {
		t.Fatalf("LoadPrompt failed: %v", err)
	}
	if prompt != "Transcribe this audio." {
		t.Errorf("Expected trimmed prompt, got %q", prompt)
	}
}

func TestLoadPromptErrors(t *testing.T) {
	if _, err := LoadPrompt(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing prompt file")
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	os.WriteFile(empty, []byte("   \n"), 0644)
	if _, err := LoadPrompt(empty); err == nil {
		t.Error("Expected error for empty prompt file")
	}
}
