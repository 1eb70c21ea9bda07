package hh

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
)

// ErrorItem is one entry of the "errors" array in an hh.ru error body.
type ErrorItem struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// APIError is a non-2xx response from the hh.ru API.
type APIError struct {
	StatusCode int
	RequestID  string
	Errors     []ErrorItem
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("hh api: status %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Value != "" {
			parts = append(parts, item.Type+"/"+item.Value)
		} else {
			parts = append(parts, item.Type)
		}
	}
	return fmt.Sprintf("hh api: status %d: %s", e.StatusCode, strings.Join(parts, ", "))
}

// Unwrap maps the status to a domain sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return nil
	}
}

// parseAPIError builds an APIError from a response body.
// Bodies that are not hh.ru error JSON still yield an error with the status.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var payload struct {
		RequestID string      `json:"request_id"`
		Errors    []ErrorItem `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.RequestID = payload.RequestID
		apiErr.Errors = payload.Errors
	}
	return apiErr
}
