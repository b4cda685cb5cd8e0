package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation = errors.New("validation: malformed input")
	ErrExhausted  = errors.New("request: all candidates failed")
	ErrDecode     = errors.New("decode: body is not valid json")
	ErrNotFound   = errors.New("lookup: not found")
)

// ValidationError is raised for malformed local input. It never reaches the network layer.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RequestExhausted is returned when every candidate URL failed.
// Last holds the error observed on the final candidate.
type RequestExhausted struct {
	Attempts int
	Last     error
}

func (e *RequestExhausted) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("request exhausted after %d attempt(s)", e.Attempts)
	}
	return fmt.Sprintf("request exhausted after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *RequestExhausted) Unwrap() error { return e.Last }

func (e *RequestExhausted) Is(target error) bool { return target == ErrExhausted }

// DecodeError marks a response body that could not be decoded as JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// NotFoundError is returned when an identifier is absent from an index.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// HTTPError is a non-2xx response observed on a single candidate.
type HTTPError struct {
	URL        string
	StatusCode int
	Message    string
}

// NewHTTPError builds an HTTPError whose message prefers the server supplied
// "error" or "message" field and falls back to the status text.
func NewHTTPError(url string, statusCode int, body []byte) *HTTPError {
	return &HTTPError{
		URL:        url,
		StatusCode: statusCode,
		Message:    serverMessage(statusCode, body),
	}
}

func (e *HTTPError) Error() string {
	return e.Message
}

func serverMessage(statusCode int, body []byte) string {
	var reply struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &reply) == nil {
		switch v := reply.Error.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case map[string]any:
			if msg, ok := v["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if strings.TrimSpace(reply.Message) != "" {
			return reply.Message
		}
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
