package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"audioscribe/logger"
	"audioscribe/models"

	"github.com/google/uuid"
)

// audio extensions we pick up, with the mime type sent to the remote store
var audioMimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

// Options controls a discovery pass.
type Options struct {
	InputRoot   string // root folder scanned recursively for audio files
	OutputRoot  string // transcript root; empty means next to the audio file
	ContextRoot string // root holding paired .srt files; empty disables pairing
}

// Jobs scans the input root recursively and builds one job per audio file,
// sorted by path. Paired subtitle context files are looked up under the
// context root at the mirrored relative path.
func Jobs(opts Options) ([]models.Job, error) {
	info, err := os.Stat(opts.InputRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot access input folder %s: %w", opts.InputRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a folder", opts.InputRoot)
	}

	var paths []string
	err = filepath.WalkDir(opts.InputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := audioMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", opts.InputRoot, err)
	}
	sort.Strings(paths)

	jobs := make([]models.Job, 0, len(paths))
	for _, path := range paths {
		job, err := buildJob(opts, path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	logger.Infof("Found %d audio files under %s", len(jobs), opts.InputRoot)
	return jobs, nil
}

func buildJob(opts Options, audioPath string) (models.Job, error) {
	rel, err := filepath.Rel(opts.InputRoot, audioPath)
	if err != nil {
		return models.Job{}, fmt.Errorf("failed to derive relative path for %s: %w", audioPath, err)
	}

	job := models.Job{
		ID:         uuid.New().String(),
		AudioPath:  audioPath,
		RelPath:    rel,
		OutputPath: OutputPath(opts.OutputRoot, audioPath, rel),
		MimeType:   audioMimeTypes[strings.ToLower(filepath.Ext(audioPath))],
	}

	if opts.ContextRoot != "" {
		candidate := filepath.Join(opts.ContextRoot, replaceExt(rel, ".srt"))
		if _, err := os.Stat(candidate); err == nil {
			job.ContextPath = candidate
			logger.Debugf("Paired %s with context %s", rel, candidate)
		}
	}

	return job, nil
}

// OutputPath derives where the transcript for an audio file goes: under the
// output root at the mirrored relative path, or next to the audio file when
// no output root is set. The transcript keeps the audio file's name with an
// .srt extension.
func OutputPath(outputRoot, audioPath, rel string) string {
	if outputRoot == "" {
		return replaceExt(audioPath, ".srt")
	}
	return filepath.Join(outputRoot, replaceExt(rel, ".srt"))
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// MimeTypeFor returns the upload mime type for an audio path, defaulting to
// audio/mpeg for unknown extensions so a retry of an old ledger entry still
// uploads.
func MimeTypeFor(path string) string {
	if mime, ok := audioMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "audio/mpeg"
}
