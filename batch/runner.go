package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"audioscribe/config"
	"audioscribe/failures"
	"audioscribe/keys"
	"audioscribe/logger"
	"audioscribe/models"
	"audioscribe/success"
	"audioscribe/writers"
)

// Transcriber is the per-job remote workflow. Satisfied by *gemini.Client.
type Transcriber interface {
	Transcribe(ctx context.Context, key keys.Key, job models.Job) (string, error)
}

// Summary aggregates one batch run.
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	Results    []models.Result
	LedgerPath string
}

// Runner fans jobs out across a bounded worker pool. Each job checks out
// its own key session from the shared pool, runs the full remote workflow,
// and reports exactly one Result; a worker crash becomes a failed Result
// instead of taking the run down. With one worker, jobs run strictly in
// input order with a pause between them to soften burst load.
type Runner struct {
	Pool           *keys.Pool
	Client         Transcriber
	Workers        int
	JobPause       time.Duration
	AcquireTimeout time.Duration // 0 means the pool default
	Output         config.OutputConfig

	// SkipStores disables the pebble store and ledger writes, for callers
	// that only want Results (tests).
	SkipStores bool

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner wires a runner from configuration.
func NewRunner(pool *keys.Pool, client Transcriber, cfg *config.Config) *Runner {
	return &Runner{
		Pool:     pool,
		Client:   client,
		Workers:  cfg.Batch.Workers,
		JobPause: cfg.Batch.JobPauseDuration(),
		Output:   cfg.Output,
	}
}

// Run processes every job and returns the reconciled summary. sourceFolder
// is recorded in the failure ledger so a retry pass knows where the batch
// came from.
func (r *Runner) Run(ctx context.Context, jobs []models.Job, sourceFolder string) Summary {
	summary := Summary{Total: len(jobs)}
	if len(jobs) == 0 {
		logger.Warn("No jobs to process")
		return summary
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	if workers == 1 {
		summary.Results = r.runSequential(ctx, jobs)
	} else {
		summary.Results = r.runParallel(ctx, jobs, workers)
	}

	for _, res := range summary.Results {
		if res.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	logger.Infof("Batch complete: %d total, %d succeeded, %d failed",
		summary.Total, summary.Succeeded, summary.Failed)

	if !r.SkipStores {
		summary.LedgerPath = r.recordOutcomes(summary.Results, sourceFolder)
	}
	return summary
}

func (r *Runner) runSequential(ctx context.Context, jobs []models.Job) []models.Result {
	results := make([]models.Result, 0, len(jobs))
	for i, job := range jobs {
		logger.Infof("[%d/%d] Processing %s", i+1, len(jobs), job.RelPath)
		results = append(results, r.runJob(ctx, 0, job))

		if i < len(jobs)-1 && r.JobPause > 0 {
			logger.Debugf("Pausing %s before the next file", r.JobPause)
			if err := r.sleepFn()(ctx, r.JobPause); err != nil {
				// Context gone; remaining jobs fail fast with its error.
				for _, rest := range jobs[i+1:] {
					results = append(results, models.Result{
						Job: rest, Error: err.Error(), Timestamp: time.Now(),
					})
				}
				break
			}
		}
	}
	return results
}

func (r *Runner) runParallel(ctx context.Context, jobs []models.Job, workers int) []models.Result {
	logger.Infof("Processing %d files with %d workers", len(jobs), workers)

	jobCh := make(chan models.Job)
	resultCh := make(chan models.Result)

	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for job := range jobCh {
				resultCh <- r.runJob(ctx, worker, job)
			}
		}(w)
	}

	go func() {
		for _, job := range jobs {
			jobCh <- job
		}
		close(jobCh)
		wg.Wait()
		close(resultCh)
	}()

	results := make([]models.Result, 0, len(jobs))
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

// runJob executes one job to a terminal Result. The key session spans the
// whole remote workflow; the transcript write happens after the key is back
// in the pool since it needs no credential.
func (r *Runner) runJob(ctx context.Context, worker int, job models.Job) (res models.Result) {
	res = models.Result{Job: job, Worker: worker, Timestamp: time.Now()}

	defer func() {
		if p := recover(); p != nil {
			res.Success = false
			res.Error = fmt.Sprintf("worker panic: %v", p)
			res.Timestamp = time.Now()
			logger.Errorf("Worker %d panicked on %s: %v", worker, job.RelPath, p)
		}
	}()

	var text string
	err := keys.WithSession(r.Pool, r.AcquireTimeout, func(k keys.Key) error {
		t, err := r.Client.Transcribe(ctx, k, job)
		if err != nil {
			return err
		}
		text = t
		return nil
	})
	if err != nil {
		logger.Errorf("Worker %d failed on %s: %v", worker, job.RelPath, err)
		res.Error = err.Error()
		res.Timestamp = time.Now()
		return res
	}

	if err := r.writeOutput(ctx, job, text); err != nil {
		logger.Errorf("Worker %d could not store transcript for %s: %v", worker, job.RelPath, err)
		res.Error = err.Error()
		res.Timestamp = time.Now()
		return res
	}

	logger.Infof("Worker %d finished %s -> %s", worker, job.RelPath, job.OutputPath)
	res.Success = true
	res.Timestamp = time.Now()
	return res
}

func (r *Runner) writeOutput(ctx context.Context, job models.Job, text string) error {
	accessInfo := make(map[string]string, len(r.Output.Access)+2)
	for k, v := range r.Output.Access {
		accessInfo[k] = v
	}

	backend := r.Output.Backend
	if backend == "" {
		backend = "local"
	}
	if backend == "local" {
		// The job already carries its fully derived destination path.
		accessInfo["baseDir"] = ""
		accessInfo["relPath"] = job.OutputPath
	} else {
		accessInfo["relPath"] = relTranscriptPath(job)
	}

	return writers.WriteTranscript(ctx, accessInfo, strings.NewReader(text), backend)
}

// relTranscriptPath is the forward-slash relative destination used by the
// remote output backends.
func relTranscriptPath(job models.Job) string {
	rel := strings.TrimSuffix(job.RelPath, filepath.Ext(job.RelPath)) + ".srt"
	return filepath.ToSlash(rel)
}

// recordOutcomes updates the pebble stores and writes the failure ledger.
// Returns the ledger path, empty when every job succeeded.
func (r *Runner) recordOutcomes(results []models.Result, sourceFolder string) string {
	var failed []failures.FailureRecord
	for _, res := range results {
		if res.Success {
			record := success.SuccessRecord{
				FullPath:   res.Job.AudioPath,
				OutputPath: res.Job.OutputPath,
				Worker:     res.Worker,
				Timestamp:  res.Timestamp,
			}
			if err := success.StoreSuccess(record); err != nil {
				logger.Errorf("Failed to store success record for %s: %v", res.Job.RelPath, err)
			}
			// A success clears any stale failure from an earlier run.
			if err := failures.DeleteFailure(res.Job.AudioPath); err != nil {
				logger.Errorf("Failed to clear failure record for %s: %v", res.Job.RelPath, err)
			}
			continue
		}

		record := failures.FailureRecord{
			FilePath:  res.Job.RelPath,
			FullPath:  res.Job.AudioPath,
			Error:     res.Error,
			Timestamp: res.Timestamp,
		}
		if err := failures.StoreFailure(record); err != nil {
			logger.Errorf("Failed to store failure record for %s: %v", res.Job.RelPath, err)
		}
		failed = append(failed, record)
	}

	if len(failed) == 0 {
		return ""
	}

	ledgerPath, err := failures.WriteLedger(failed, sourceFolder, config.GetLedgerDir())
	if err != nil {
		logger.Errorf("Failed to write failure ledger: %v", err)
		return ""
	}
	return ledgerPath
}

func (r *Runner) sleepFn() func(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep
	}
	return func(ctx context.Context, d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
