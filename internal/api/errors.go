package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// genericErrorMessage is the display fallback when the error envelope carries
// no usable message.
const genericErrorMessage = "Erreur réseau ou serveur"

// Error captures a non-2xx API response.
type Error struct {
	Status     int
	Body       []byte
	RetryAfter string // raw Retry-After header, if present
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message())
}

// Message extracts the human-readable message from the error envelope. The
// envelope optionally carries {error|message}; absence of both degrades to a
// generic message, never a crash.
func (e *Error) Message() string {
	var envelope struct {
		Err     string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &envelope); err == nil {
		if envelope.Err != "" {
			return envelope.Err
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return genericErrorMessage
}

// StatusOf returns the HTTP status of an API error, or 0 for transport-level
// failures.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsAuthError reports whether err is a 401 or 403 response. Auth errors are
// never retried; the caller clears the session instead.
func IsAuthError(err error) bool {
	status := StatusOf(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	return StatusOf(err) == http.StatusTooManyRequests
}

// RetryAfterValue extracts the raw retryAfter value from a rate-limit error:
// the response body's retry_after/retryAfter field when present, else the
// Retry-After header, else nil.
func RetryAfterValue(err error) any {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return nil
	}

	var envelope map[string]any
	if jsonErr := json.Unmarshal(apiErr.Body, &envelope); jsonErr == nil {
		for _, key := range []string{"retry_after", "retryAfter", "retry_after_ms"} {
			if v, ok := envelope[key]; ok && v != nil {
				return v
			}
		}
	}
	if apiErr.RetryAfter != "" {
		return apiErr.RetryAfter
	}
	return nil
}
