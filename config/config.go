package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full tool configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Keyfile KeyfileConfig `yaml:"keyfile"`
	Batch   BatchConfig   `yaml:"batch"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the remote transcription endpoint
type APIConfig struct {
	BaseURL           string `yaml:"base_url"`
	Model             string `yaml:"model"`
	PromptPath        string `yaml:"prompt_path"`
	MaxAttempts       int    `yaml:"max_attempts"`
	UploadTimeout     int    `yaml:"upload_timeout"`     // seconds
	StatusTimeout     int    `yaml:"status_timeout"`     // seconds, per poll call
	GenerateTimeout   int    `yaml:"generate_timeout"`   // seconds
	PollInterval      int    `yaml:"poll_interval"`      // seconds
	ProcessingCeiling int    `yaml:"processing_ceiling"` // seconds, wall clock per asset
}

// KeyfileConfig points at an optional signed keyfile carrying the API key
// pool. When Path is empty, keys come from API_KEY_* environment variables.
type KeyfileConfig struct {
	Path   string `yaml:"path"`
	Issuer string `yaml:"issuer"`
}

// BatchConfig configures the worker pool
type BatchConfig struct {
	Workers  int `yaml:"workers"`
	JobPause int `yaml:"job_pause"` // seconds between jobs in sequential mode
}

// OutputConfig selects where transcripts are written
type OutputConfig struct {
	Backend string            `yaml:"backend"` // local, s3, gcs, sftp
	BaseDir string            `yaml:"base_dir"`
	Access  map[string]string `yaml:"access"` // backend-specific credentials
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no config file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file, fills defaults and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.API.Model == "" {
		c.API.Model = "gemini-2.0-flash"
	}
	// GEMINI_MODEL_NAME wins over the config file, matching how deployments
	// already select models.
	if m := os.Getenv("GEMINI_MODEL_NAME"); m != "" {
		c.API.Model = m
	}
	if c.API.PromptPath == "" {
		c.API.PromptPath = "config/default_prompt.txt"
	}
	if c.API.MaxAttempts == 0 {
		c.API.MaxAttempts = 3
	}
	if c.API.UploadTimeout == 0 {
		c.API.UploadTimeout = 120
	}
	if c.API.StatusTimeout == 0 {
		c.API.StatusTimeout = 30
	}
	if c.API.GenerateTimeout == 0 {
		c.API.GenerateTimeout = 300
	}
	if c.API.PollInterval == 0 {
		c.API.PollInterval = 10
	}
	if c.API.ProcessingCeiling == 0 {
		c.API.ProcessingCeiling = 300
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = 1
	}
	if c.Batch.JobPause == 0 {
		c.Batch.JobPause = 5
	}
	if c.Output.Backend == "" {
		c.Output.Backend = "local"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api config: %w", err)
	}
	if err := c.Batch.Validate(); err != nil {
		return fmt.Errorf("batch config: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates API configuration
func (a *APIConfig) Validate() error {
	if a.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	if a.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if a.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", a.MaxAttempts)
	}
	if a.PollInterval < 1 {
		return fmt.Errorf("poll_interval must be at least 1 second, got %d", a.PollInterval)
	}
	if a.ProcessingCeiling < a.PollInterval {
		return fmt.Errorf("processing_ceiling (%ds) must not be shorter than poll_interval (%ds)",
			a.ProcessingCeiling, a.PollInterval)
	}
	return nil
}

// Validate validates batch configuration
func (b *BatchConfig) Validate() error {
	if b.Workers < 1 || b.Workers > 8 {
		return fmt.Errorf("workers must be between 1 and 8, got %d", b.Workers)
	}
	if b.JobPause < 0 {
		return fmt.Errorf("job_pause cannot be negative, got %d", b.JobPause)
	}
	return nil
}

// Validate validates output configuration
func (o *OutputConfig) Validate() error {
	switch o.Backend {
	case "local", "s3", "gcs", "sftp":
	default:
		return fmt.Errorf("unknown output backend %q", o.Backend)
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", l.Level)
	}
	return nil
}

// UploadTimeoutDuration returns the upload timeout as a duration.
func (a *APIConfig) UploadTimeoutDuration() time.Duration {
	return time.Duration(a.UploadTimeout) * time.Second
}

// StatusTimeoutDuration returns the per-call status timeout as a duration.
func (a *APIConfig) StatusTimeoutDuration() time.Duration {
	return time.Duration(a.StatusTimeout) * time.Second
}

// GenerateTimeoutDuration returns the generate timeout as a duration.
func (a *APIConfig) GenerateTimeoutDuration() time.Duration {
	return time.Duration(a.GenerateTimeout) * time.Second
}

// PollIntervalDuration returns the poll interval as a duration.
func (a *APIConfig) PollIntervalDuration() time.Duration {
	return time.Duration(a.PollInterval) * time.Second
}

// ProcessingCeilingDuration returns the per-asset wall clock ceiling.
func (a *APIConfig) ProcessingCeilingDuration() time.Duration {
	return time.Duration(a.ProcessingCeiling) * time.Second
}

// JobPauseDuration returns the sequential-mode inter-job pause.
func (b *BatchConfig) JobPauseDuration() time.Duration {
	return time.Duration(b.JobPause) * time.Second
}
