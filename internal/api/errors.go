package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized indicates the token is expired or invalid.
	ErrUnauthorized = errors.New("api: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the backend rejected the request with 429.
	ErrRateLimited = errors.New("api: rate limited")
	// ErrNotFound indicates the resource does not exist or is not ours.
	ErrNotFound = errors.New("api: not found")
	// ErrNoToken is returned for authenticated calls made while logged out.
	ErrNoToken = errors.New("api: not logged in")
	// ErrInvalidInput wraps client-side validation failures. No request is sent.
	ErrInvalidInput = errors.New("api: invalid input")
)

// APIError is a non-2xx response. Detail carries the backend's "detail"
// message when one was returned.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api: unexpected status %d", e.Status)
}

// Is maps status codes onto the package sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Detail returns the backend's message for err, or "" if err carries none.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// parseDetail extracts {"detail": ...}. FastAPI sends a string for
// HTTPException and a list of {msg} objects for request validation errors.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
