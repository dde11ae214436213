package writers

import (
	"context"
	"fmt"
	"io"
)

// WriteTranscript sends a finished transcript to the configured storage
// backend. accessInfo carries backend-specific settings and credentials
// plus the relative destination path under the key "relPath".
func WriteTranscript(ctx context.Context, accessInfo map[string]string, reader io.Reader, backendType string) error {
	switch backendType {
	case "local":
		if err := writeToLocal(ctx, accessInfo, reader); err != nil {
			return fmt.Errorf("failed to write transcript locally: %w", err)
		}
	case "s3":
		if err := writeToS3(ctx, accessInfo, reader); err != nil {
			return fmt.Errorf("failed to write transcript to S3: %w", err)
		}
	case "gcs":
		if err := writeToGCS(ctx, accessInfo, reader); err != nil {
			return fmt.Errorf("failed to write transcript to GCS: %w", err)
		}
	case "sftp":
		if err := writeToSFTP(ctx, accessInfo, reader); err != nil {
			return fmt.Errorf("failed to write transcript to SFTP: %w", err)
		}
	default:
		return fmt.Errorf("unknown output backend: %s", backendType)
	}
	return nil
}
