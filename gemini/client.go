package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audioscribe/config"
	"audioscribe/keys"
	"audioscribe/logger"
	"audioscribe/models"
)

// Remote processing states of an uploaded file
const (
	StatePending = "PENDING"
	StateActive  = "ACTIVE"
	StateFailed  = "FAILED"
)

// Asset is the remote handle for an uploaded file. It is created by Upload,
// becomes usable once WaitForActive sees the ACTIVE state, and is then
// consumed read-only by Generate.
type Asset struct {
	URI      string
	Name     string
	MimeType string
}

// Client drives the upload, poll and generate steps of the remote
// transcription workflow. It is stateless beyond configuration: one client
// per worker, constructed once per worker lifetime. Every call takes the
// session key as a parameter so all three steps of a job ride the same
// credential.
type Client struct {
	cfg    config.APIConfig
	exec   *Executor
	prompt string

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a workflow client. prompt is the fixed instruction text
// sent with every generate request.
func NewClient(cfg config.APIConfig, prompt string) *Client {
	return &Client{
		cfg:    cfg,
		exec:   NewExecutor(cfg.MaxAttempts),
		prompt: prompt,
		sleep:  sleepContext,
	}
}

// Transcribe runs the full workflow for one job bound to one key: upload
// the audio (and the paired context file when present), wait for the remote
// side to finish processing, then generate the transcription text. A failed
// job keeps no remote state; a retry starts again at upload.
func (c *Client) Transcribe(ctx context.Context, key keys.Key, job models.Job) (string, error) {
	assets := make([]Asset, 0, 2)

	audio, err := c.Upload(ctx, key, job.AudioPath, job.MimeType)
	if err != nil {
		return "", err
	}
	assets = append(assets, audio)

	if job.ContextPath != "" {
		contextAsset, err := c.Upload(ctx, key, job.ContextPath, "text/plain")
		if err != nil {
			return "", err
		}
		assets = append(assets, contextAsset)
	}

	for _, asset := range assets {
		if err := c.WaitForActive(ctx, key, asset); err != nil {
			return "", err
		}
	}

	return c.Generate(ctx, key, assets)
}

// Upload pushes one local file to the remote file store and returns its
// handle.
func (c *Client) Upload(ctx context.Context, key keys.Key, path, mimeType string) (Asset, error) {
	name := filepath.Base(path)
	logger.Infof("Uploading %s (key ...%s)", name, key.Suffix())

	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	body, contentType, err := buildUploadBody(name, mimeType, data)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to build upload request for %s: %w", name, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeoutDuration())
	defer cancel()

	respBody, err := c.exec.Do(callCtx, key, http.MethodPost,
		c.cfg.BaseURL+"/upload/v1beta/files", contentType, body, 0)
	if err != nil {
		return Asset{}, fmt.Errorf("upload of %s failed: %w", name, err)
	}

	var parsed struct {
		File struct {
			URI  string `json:"uri"`
			Name string `json:"name"`
		} `json:"file"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Asset{}, fmt.Errorf("failed to parse upload response for %s: %w", name, err)
	}
	if parsed.File.URI == "" || parsed.File.Name == "" {
		return Asset{}, fmt.Errorf("upload response for %s is missing the file handle", name)
	}

	logger.Infof("Uploaded %s as %s", name, parsed.File.Name)
	return Asset{URI: parsed.File.URI, Name: parsed.File.Name, MimeType: mimeType}, nil
}

// buildUploadBody assembles the two-part multipart payload the file store
// expects: a JSON metadata part and the raw file data.
func buildUploadBody(displayName, mimeType string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metadata, err := json.Marshal(map[string]any{
		"file": map[string]string{"display_name": displayName},
	})
	if err != nil {
		return nil, "", err
	}

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Disposition", `form-data; name="metadata"`)
	metaHeader.Set("Content-Type", "application/json")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := metaPart.Write(metadata); err != nil {
		return nil, "", err
	}

	dataHeader := textproto.MIMEHeader{}
	dataHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="data"; filename="%s"`, displayName))
	dataHeader.Set("Content-Type", mimeType)
	dataPart, err := writer.CreatePart(dataHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := dataPart.Write(data); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// WaitForActive polls the asset state until it becomes ACTIVE, fails, or
// the processing ceiling elapses. A failed status check does not count
// against any attempt budget; it is retried on the poll cadence for as long
// as the ceiling allows, so a flaky status endpoint cannot fail a job that
// the remote side is still processing.
func (c *Client) WaitForActive(ctx context.Context, key keys.Key, asset Asset) error {
	logger.Infof("Waiting for %s to become active (key ...%s)", asset.Name, key.Suffix())
	deadline := time.Now().Add(c.cfg.ProcessingCeilingDuration())
	url := c.cfg.BaseURL + "/v1beta/" + asset.Name

	for time.Now().Before(deadline) {
		state, err := c.checkState(ctx, key, url)
		switch {
		case err != nil:
			logger.Warnf("Status check for %s failed: %v", asset.Name, err)
		case state == StateActive:
			logger.Infof("File %s is active", asset.Name)
			return nil
		case state == StateFailed:
			return fmt.Errorf("%w: %s", ErrRemoteProcessingFailed, asset.Name)
		default:
			logger.Debugf("File %s state: %s", asset.Name, state)
		}

		if err := c.sleep(ctx, c.cfg.PollIntervalDuration()); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %s not active after %s",
		ErrProcessingTimeout, asset.Name, c.cfg.ProcessingCeilingDuration())
}

func (c *Client) checkState(ctx context.Context, key keys.Key, url string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeoutDuration())
	defer cancel()

	respBody, err := c.exec.Do(callCtx, key, http.MethodGet, url, "", nil, 1)
	if err != nil {
		return "", err
	}

	var parsed struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse file status: %w", err)
	}
	if parsed.State == "" {
		return "UNKNOWN", nil
	}
	return parsed.State, nil
}

// Generate issues the transcription request referencing the active assets
// and returns the single candidate text.
func (c *Client) Generate(ctx context.Context, key keys.Key, assets []Asset) (string, error) {
	logger.Infof("Requesting transcription (key ...%s)", key.Suffix())

	parts := []map[string]any{{"text": c.prompt}}
	for _, asset := range assets {
		parts = append(parts, map[string]any{
			"file_data": map[string]string{
				"file_uri":  asset.URI,
				"mime_type": asset.MimeType,
			},
		})
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{{"parts": parts}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.GenerateTimeoutDuration())
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	respBody, err := c.exec.Do(callCtx, key, http.MethodPost, url, "application/json", body, 0)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse generate response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &EmptyResultError{BlockReason: parsed.PromptFeedback.BlockReason}
	}
	if fr := parsed.Candidates[0].FinishReason; fr != "" && fr != "STOP" {
		logger.Warnf("Generation finished with reason %s", fr)
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", &EmptyResultError{BlockReason: parsed.PromptFeedback.BlockReason}
	}

	logger.Infof("Transcription complete, %d characters", len(text))
	return text, nil
}
