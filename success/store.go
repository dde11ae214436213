package success

import (
	"encoding/json"
	"fmt"
	"time"

	"audioscribe/store"
)

// SuccessRecord marks one audio file as transcribed. A retry pass consults
// these records so it never re-touches files that already completed.
type SuccessRecord struct {
	FullPath   string    `json:"full_path"`
	OutputPath string    `json:"output_path"`
	Worker     int       `json:"worker"`
	Timestamp  time.Time `json:"timestamp"`
}

var db *store.Store

// Init initializes the success store
func Init(dbPath string) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open success store: %w", err)
	}
	db = s
	return nil
}

// Close closes the success store
func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// StoreSuccess records a completed job, keyed by the audio file's full path.
func StoreSuccess(record SuccessRecord) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal success record: %w", err)
	}
	return db.Put(record.FullPath, data)
}

// GetSuccess retrieves a success record by full path, or nil when the file
// has never completed.
func GetSuccess(fullPath string) (*SuccessRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("success store not initialized")
	}

	data, err := db.Get(fullPath)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var record SuccessRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal success record: %w", err)
	}
	return &record, nil
}

// DeleteSuccess removes a success record
func DeleteSuccess(fullPath string) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}
	return db.Delete(fullPath)
}

// ListSuccessRecords returns all success records
func ListSuccessRecords() ([]SuccessRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("success store not initialized")
	}

	var records []SuccessRecord
	err := db.Each(func(_, value []byte) error {
		var record SuccessRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return nil // Skip invalid records
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CleanupOldRecords removes success records older than the specified duration
func CleanupOldRecords(maxAge time.Duration) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}

	cutoff := time.Now().Add(-maxAge)
	var stale []string
	err := db.Each(func(key, value []byte) error {
		var record SuccessRecord
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
			return fmt.Errorf("failed to delete old success record: %w", err)
		}
	}
	return nil
}
