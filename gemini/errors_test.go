package gemini

import (
	"errors"
	"strings"
	"testing"
)

func TestRetriesExhaustedUnwrap(t *testing.T) {
	cause := errors.New("transient HTTP 503")
	err := &RetriesExhaustedError{Attempts: 3, Last: cause}

	if !errors.Is(err, cause) {
		t.Error("Expected the last transient cause to be reachable via Unwrap")
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestEmptyResultErrorMessages(t *testing.T) {
	blocked := &EmptyResultError{BlockReason: "SAFETY"}
	if !strings.Contains(blocked.Error(), "SAFETY") {
		t.Errorf("Expected block reason in message: %s", blocked.Error())
	}

	plain := &EmptyResultError{}
	if !strings.Contains(plain.Error(), "no candidates") {
		t.Errorf("Unexpected message: %s", plain.Error())
	}
}

func TestAPIErrorMessage(t *testing.T) {
	msg := apiErrorMessage([]byte(`{"error":{"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	if msg != "API key not valid" {
		t.Errorf("Expected parsed message, got %q", msg)
	}

	// Non-JSON bodies come back raw, truncated.
	raw := apiErrorMessage([]byte("<html>gateway error</html>"))
	if raw != "<html>gateway error</html>" {
		t.Errorf("Expected raw fallback, got %q", raw)
	}

	long := apiErrorMessage([]byte(strings.Repeat("x", 2048)))
	if len(long) != 512 {
		t.Errorf("Expected 512-byte truncation, got %d bytes", len(long))
	}
}
