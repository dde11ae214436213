package failures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"audioscribe/logger"
)

// Ledger is the persisted record of one batch run's failures. The JSON form
// is machine-readable and feeds the retry pass; a plain-text mirror is
// written alongside it for humans.
type Ledger struct {
	ProcessingTime string          `json:"processing_time"`
	SourceFolder   string          `json:"source_folder"`
	TotalFailed    int             `json:"total_failed"`
	FailedFiles    []FailureRecord `json:"failed_files"`
}

// WriteLedger persists the failures of a run into a timestamp-named pair of
// files under dir and returns the JSON path. Nothing is written when there
// are no failures.
func WriteLedger(records []FailureRecord, sourceFolder, dir string) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create ledger directory %s: %w", dir, err)
	}

	now := time.Now()
	stamp := now.Format("20060102_150405")
	jsonPath := filepath.Join(dir, fmt.Sprintf("failed_files_%s.json", stamp))
	listPath := filepath.Join(dir, fmt.Sprintf("failed_list_%s.txt", stamp))

	ledger := Ledger{
		ProcessingTime: now.Format(time.RFC3339),
		SourceFolder:   sourceFolder,
		TotalFailed:    len(records),
		FailedFiles:    records,
	}

	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal ledger: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write ledger %s: %w", jsonPath, err)
	}

	var text strings.Builder
	text.WriteString("Failed transcription files\n")
	text.WriteString(fmt.Sprintf("Processing time: %s\n", now.Format("2006-01-02 15:04:05")))
	text.WriteString(fmt.Sprintf("Source folder: %s\n", sourceFolder))
	text.WriteString(fmt.Sprintf("Failed files: %d\n", len(records)))
	text.WriteString(strings.Repeat("=", 50) + "\n\n")
	for i, record := range records {
		text.WriteString(fmt.Sprintf("%d. File path: %s\n", i+1, record.FilePath))
		text.WriteString(fmt.Sprintf("   Full path: %s\n", record.FullPath))
		text.WriteString(fmt.Sprintf("   Failed at: %s\n", record.Timestamp.Format("2006-01-02 15:04:05")))
		text.WriteString(fmt.Sprintf("   Error: %s\n", record.Error))
		text.WriteString(strings.Repeat("-", 30) + "\n")
	}
	if err := os.WriteFile(listPath, []byte(text.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write ledger list %s: %w", listPath, err)
	}

	logger.Infof("Failure ledger written: %s", jsonPath)
	logger.Infof("Failure list written: %s", listPath)
	return jsonPath, nil
}

// LoadLedger reads a ledger JSON file back for a retry pass.
func LoadLedger(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}

	var ledger Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	return &ledger, nil
}

// ListLedgers returns the ledger JSON files under dir, newest last.
func ListLedgers(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "failed_files_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
