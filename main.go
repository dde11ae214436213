package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"audioscribe/batch"
	"audioscribe/config"
	"audioscribe/discover"
	"audioscribe/failures"
	"audioscribe/gemini"
	"audioscribe/keys"
	"audioscribe/logger"
	"audioscribe/models"
	"audioscribe/success"
)

func main() {
	inputDir := flag.String("input", "", "root folder scanned recursively for audio files")
	outputDir := flag.String("output", "", "transcript root folder (default: next to each audio file)")
	srtDir := flag.String("srt", "", "folder holding paired .srt context files")
	workers := flag.Int("workers", 0, "concurrent workers, 1 runs sequentially (default from config)")
	configPath := flag.String("config", "", "path to a yaml config file")
	retryPath := flag.String("retry", "", "failure ledger JSON to re-run instead of scanning")
	listFailures := flag.Bool("list-failures", false, "list recorded failures and exit")
	flag.Parse()

	cfg := loadConfig(*configPath)

	if err := logger.Init(cfg.Logging.File, true); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.SetLevel(logLevel(cfg.Logging.Level))

	logger.Debug("Initializing failures database")
	if err := failures.Init(config.GetFailuresDBPath()); err != nil {
		logger.Fatalf("Failed to initialize failure store: %v", err)
	}
	defer failures.Close()

	logger.Debug("Initializing success database")
	if err := success.Init(config.GetSuccessDBPath()); err != nil {
		logger.Fatalf("Failed to initialize success store: %v", err)
	}
	defer success.Close()

	if *listFailures {
		printFailures()
		return
	}

	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if err := cfg.Batch.Validate(); err != nil {
		logger.Fatalf("Invalid worker setting: %v", err)
	}

	pool := buildPool(cfg)
	logger.Infof("Loaded %d API keys", pool.Size())
	logger.Infof("Using model %s", cfg.API.Model)

	prompt, err := config.LoadPrompt(cfg.API.PromptPath)
	if err != nil {
		logger.Fatalf("Failed to load instruction prompt: %v", err)
	}

	client := gemini.NewClient(cfg.API, prompt)
	runner := batch.NewRunner(pool, client, cfg)

	jobs, sourceFolder := buildJobs(cfg, *inputDir, *outputDir, *srtDir, *retryPath)
	if len(jobs) == 0 {
		logger.Warn("Nothing to process")
		return
	}

	summary := runner.Run(context.Background(), jobs, sourceFolder)

	logger.Infof("Total files: %d", summary.Total)
	logger.Infof("Succeeded:   %d", summary.Succeeded)
	logger.Infof("Failed:      %d", summary.Failed)
	if summary.LedgerPath != "" {
		logger.Infof("Retry the failed subset with: -retry %s", summary.LedgerPath)
	}
	if summary.Succeeded == 0 {
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func logLevel(name string) logger.LogLevel {
	switch name {
	case "debug":
		return logger.DEBUG
	case "warn":
		return logger.WARN
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

// buildPool assembles the shared key pool from the configured source:
// a signed keyfile when one is set, API_KEY_* environment variables
// otherwise. Zero keys is fatal before any job is attempted.
func buildPool(cfg *config.Config) *keys.Pool {
	var values []string
	if cfg.Keyfile.Path != "" {
		secret := os.Getenv("AUDIOSCRIBE_KEYFILE_SECRET")
		if secret == "" {
			logger.Fatal("Keyfile configured but AUDIOSCRIBE_KEYFILE_SECRET is not set")
		}
		loaded, err := keys.FromKeyfile(cfg.Keyfile.Path, []byte(secret), cfg.Keyfile.Issuer)
		if err != nil {
			logger.Fatalf("Failed to load keyfile: %v", err)
		}
		values = loaded
	} else {
		values = keys.FromEnv(keys.EnvPrefix)
	}

	pool, err := keys.NewPool(values)
	if err != nil {
		logger.Fatalf("Cannot start without API keys: set %s1, %s2, ... or configure a keyfile (%v)",
			keys.EnvPrefix, keys.EnvPrefix, err)
	}
	return pool
}

func buildJobs(cfg *config.Config, inputDir, outputDir, srtDir, retryPath string) ([]models.Job, string) {
	if retryPath != "" {
		ledger, err := failures.LoadLedger(retryPath)
		if err != nil {
			logger.Fatalf("Failed to load failure ledger: %v", err)
		}
		logger.Infof("Retrying %d failed files from %s (source folder %s)",
			ledger.TotalFailed, retryPath, ledger.SourceFolder)
		jobs := batch.RetryJobs(ledger, batch.RetryOptions{
			OutputRoot:  outputDir,
			ContextRoot: srtDir,
		})
		return jobs, ledger.SourceFolder
	}

	if inputDir == "" {
		logger.Fatal("No input folder given: pass -input <folder> or -retry <ledger.json>")
	}

	jobs, err := discover.Jobs(discover.Options{
		InputRoot:   inputDir,
		OutputRoot:  outputDir,
		ContextRoot: srtDir,
	})
	if err != nil {
		logger.Fatalf("Discovery failed: %v", err)
	}
	return jobs, inputDir
}

func printFailures() {
	records, err := failures.ListFailures()
	if err != nil {
		logger.Fatalf("Failed to list failures: %v", err)
	}
	if len(records) == 0 {
		logger.Info("No recorded failures")
		return
	}
	for i, record := range records {
		logger.Infof("%d. %s", i+1, record.FilePath)
		logger.Infof("   full path: %s", record.FullPath)
		logger.Infof("   failed at: %s", record.Timestamp.Format("2006-01-02 15:04:05"))
		logger.Infof("   error: %s", record.Error)
	}
	logger.Infof("%d recorded failures", len(records))
}
