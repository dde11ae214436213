package writers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"audioscribe/logger"
)

// writeToLocal saves the transcript to the local filesystem under the base
// directory, preserving the source tree's relative layout.
func writeToLocal(_ context.Context, accessInfo map[string]string, reader io.Reader) error {
	baseDir := accessInfo["baseDir"]
	relPath := accessInfo["relPath"]
	if relPath == "" {
		return fmt.Errorf("missing required accessInfo key: relPath")
	}

	fullPath := filepath.Join(baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}

	logger.Infof("Transcript saved to %s", fullPath)
	return nil
}
