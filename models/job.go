package models

import "time"

// Job represents one audio file to transcribe
type Job struct {
	ID          string `json:"id"`                     // assigned at discovery
	AudioPath   string `json:"audio_path"`             // absolute path to the audio file
	RelPath     string `json:"rel_path"`               // path relative to the scan root
	ContextPath string `json:"context_path,omitempty"` // paired subtitle file, empty if none
	OutputPath  string `json:"output_path"`            // where the transcript goes
	MimeType    string `json:"mime_type"`              // e.g. audio/mpeg
}

// Result is the terminal outcome of one Job
type Result struct {
	Job       Job       `json:"job"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Worker    int       `json:"worker"` // worker that ran the job (0 in sequential mode)
	Timestamp time.Time `json:"timestamp"`
}
