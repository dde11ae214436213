package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetDataDir returns the directory for local state (pebble stores).
// Priority: AUDIOSCRIBE_DATA_DIR environment variable > "./data" default.
func GetDataDir() string {
	if dir := os.Getenv("AUDIOSCRIBE_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// GetFailuresDBPath returns the full path to the failure store.
// Path: {DATA_DIR}/failures.db
func GetFailuresDBPath() string {
	return filepath.Join(GetDataDir(), "failures.db")
}

// GetSuccessDBPath returns the full path to the success store.
// Path: {DATA_DIR}/success.db
func GetSuccessDBPath() string {
	return filepath.Join(GetDataDir(), "success.db")
}

// GetLedgerDir returns the directory where failure ledger files are written.
// Configurable via AUDIOSCRIBE_LEDGER_DIR; defaults to "./failed_files"
// next to the executable so the files are easy to find after a run.
func GetLedgerDir() string {
	if dir := os.Getenv("AUDIOSCRIBE_LEDGER_DIR"); dir != "" {
		return dir
	}
	return "./failed_files"
}

// LoadPrompt reads the instruction prompt that every generate request
// carries. A missing or empty prompt file is a startup error, not a per-job
// one.
func LoadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return prompt, nil
}
