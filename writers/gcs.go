package writers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"

	"audioscribe/logger"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// writeToGCS uploads the transcript to a Google Cloud Storage object, using
// a base64-encoded service account key carried in accessInfo.
func writeToGCS(ctx context.Context, accessInfo map[string]string, reader io.Reader) error {
	credentialsJSON, err := base64.StdEncoding.DecodeString(accessInfo["credentialsJSON"])
	if err != nil {
		return fmt.Errorf("failed to decode service account key: %w", err)
	}
	bucketName := accessInfo["bucket"]
	objectName := path.Join(accessInfo["prefix"], accessInfo["relPath"])

	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return fmt.Errorf("storage.NewClient: %w", err)
	}
	defer client.Close()

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "text/plain; charset=utf-8"

	if _, err = io.Copy(wc, reader); err != nil {
		return fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %w", err)
	}

	logger.Infof("Transcript uploaded as '%s' to bucket '%s'", objectName, bucketName)
	return nil
}
