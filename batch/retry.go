package batch

import (
	"os"
	"path/filepath"
	"strings"

	"audioscribe/discover"
	"audioscribe/failures"
	"audioscribe/logger"
	"audioscribe/models"
	"audioscribe/success"

	"github.com/google/uuid"
)

// RetryOptions controls how ledger entries are rebuilt into jobs.
type RetryOptions struct {
	OutputRoot  string // empty: transcript next to the audio file
	ContextRoot string // root holding paired .srt files; empty disables pairing
}

// RetryJobs rebuilds jobs from a failure ledger. Files that already have a
// success record are skipped so a re-run never touches completed work.
// Files that have vanished are still returned; they fail at upload and land
// in the fresh ledger with the read error.
func RetryJobs(ledger *failures.Ledger, opts RetryOptions) []models.Job {
	var jobs []models.Job

	for _, entry := range ledger.FailedFiles {
		if record, err := success.GetSuccess(entry.FullPath); err == nil && record != nil {
			logger.Infof("Skipping %s: already transcribed to %s", entry.FilePath, record.OutputPath)
			continue
		}

		job := models.Job{
			ID:         uuid.New().String(),
			AudioPath:  entry.FullPath,
			RelPath:    entry.FilePath,
			OutputPath: discover.OutputPath(opts.OutputRoot, entry.FullPath, entry.FilePath),
			MimeType:   discover.MimeTypeFor(entry.FullPath),
		}
		if opts.ContextRoot != "" {
			candidate := filepath.Join(opts.ContextRoot, replaceExtSRT(entry.FilePath))
			if _, err := os.Stat(candidate); err == nil {
				job.ContextPath = candidate
			}
		}
		jobs = append(jobs, job)
	}

	logger.Infof("Rebuilt %d jobs from ledger of %d entries", len(jobs), len(ledger.FailedFiles))
	return jobs
}

func replaceExtSRT(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".srt"
}
