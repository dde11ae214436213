package failures

import (
	"encoding/json"
	"fmt"
	"time"

	"audioscribe/store"
)

// FailureRecord is one failed transcription job, kept with enough path and
// error detail to drive a later retry pass.
type FailureRecord struct {
	FilePath  string    `json:"file_path"` // relative to the scan root
	FullPath  string    `json:"full_path"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

var db *store.Store

// Init initializes the failure store
func Init(dbPath string) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open failure store: %w", err)
	}
	db = s
	return nil
}

// Close closes the failure store
func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// StoreFailure records a failed job, keyed by its full path so a later
// failure for the same file overwrites the stale record.
func StoreFailure(record FailureRecord) error {
	if db == nil {
		return fmt.Errorf("failure store not initialized")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal failure record: %w", err)
	}

	return db.Put(record.FullPath, data)
}

// GetFailure retrieves a failure record by full path, or nil when the file
// has no recorded failure.
func GetFailure(fullPath string) (*FailureRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("failure store not initialized")
	}

	data, err := db.Get(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get failure: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var record FailureRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failure record: %w", err)
	}
	return &record, nil
}

// DeleteFailure removes a failure record, typically after a retry pass
// succeeds for the file.
func DeleteFailure(fullPath string) error {
	if db == nil {
		return fmt.Errorf("failure store not initialized")
	}
	return db.Delete(fullPath)
}

// ListFailures returns all failure records
func ListFailures() ([]FailureRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("failure store not initialized")
	}

	var records []FailureRecord
	err := db.Each(func(_, value []byte) error {
		var record FailureRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return nil // Skip invalid records
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	return records, nil
}

// CleanupOldRecords removes failure records older than the specified duration
func CleanupOldRecords(maxAge time.Duration) error {
	if db == nil {
		return fmt.Errorf("failure store not initialized")
	}

	cutoff := time.Now().Add(-maxAge)
	var stale []string
	err := db.Each(func(key, value []byte) error {
		var record FailureRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return nil
		}
		if record.Timestamp.Before(cutoff) {
			stale = append(stale, string(key))
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range stale {
		if err := db.Delete(key); err != nil {
			return fmt.Errorf("failed to delete old failure record: %w", err)
		}
	}
	return nil
}
