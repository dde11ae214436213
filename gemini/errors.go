package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrRemoteProcessingFailed means the uploaded file reached the FAILED
	// state on the remote side. Not retried within the job.
	ErrRemoteProcessingFailed = errors.New("remote file processing failed")

	// ErrProcessingTimeout means the uploaded file never became ACTIVE
	// within the processing ceiling.
	ErrProcessingTimeout = errors.New("remote file processing timed out")
)

// RequestError is a permanently rejected request (bad request, auth,
// not-found, or any other non-transient status). Never retried.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request rejected with status %d: %s", e.Status, e.Message)
}

// RetriesExhaustedError reports that every attempt failed transiently.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// EmptyResultError means the generate call succeeded at the transport level
// but produced no usable text. BlockReason distinguishes a safety block
// from a plain empty response.
type EmptyResultError struct {
	BlockReason string
}

func (e *EmptyResultError) Error() string {
	if e.BlockReason != "" {
		return fmt.Sprintf("generation blocked by safety filter: %s", e.BlockReason)
	}
	return "generation returned no candidates"
}

// apiErrorMessage extracts the human message from an API error body,
// falling back to the raw body when it is not the expected JSON shape.
func apiErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	const maxRaw = 512
	if len(body) > maxRaw {
		body = body[:maxRaw]
	}
	return string(body)
}
