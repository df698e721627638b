// ABOUTME: Error taxonomy for clinic API calls
// ABOUTME: Separates backend rejections, permission errors and transport failures

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// PermissionDeniedMessage replaces the backend message on every 403
const PermissionDeniedMessage = "You do not have permission to perform this action"

var (
	// ErrUnauthorized matches any APIError with status 401
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches any APIError with status 403
	ErrForbidden = errors.New(PermissionDeniedMessage)
	// ErrSessionExpired is returned when a 401 could not be recovered by a token refresh
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Message    string
	// Body is the raw response payload, kept verbatim for validation errors
	Body []byte
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is match the status sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// FieldErrors decodes a validation payload of the form {"field": ["msg", ...]}.
// Returns nil when the body has another shape.
func (e *APIError) FieldErrors() map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &raw); err != nil {
		return nil
	}
	fields := make(map[string][]string)
	for k, v := range raw {
		var msgs []string
		if err := json.Unmarshal(v, &msgs); err == nil {
			fields[k] = msgs
			continue
		}
		var msg string
		if err := json.Unmarshal(v, &msg); err == nil && k != "detail" {
			fields[k] = []string{msg}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// TransportError is a failure to get any response from the backend
type TransportError struct {
	msg string
	Err error
}

func (e *TransportError) Error() string {
	return e.msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a network-level failure
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// newAPIError builds an APIError from a response status and body
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}
	if status == http.StatusForbidden {
		apiErr.Message = PermissionDeniedMessage
		return apiErr
	}
	apiErr.Message = errorMessage(status, body)
	return apiErr
}

// errorMessage picks the most useful text out of an error payload
func errorMessage(status int, body []byte) string {
	var detail struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		if detail.Detail != "" {
			return detail.Detail
		}
		if detail.Error != "" {
			return detail.Error
		}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '<' {
		return fmt.Sprintf("backend returned status %d", status)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err == nil {
		return compact.String()
	}
	return strings.TrimSpace(string(trimmed))
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &TransportError{msg: "request canceled", Err: err}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TransportError{msg: "request timed out", Err: err}
	}
	return &TransportError{msg: fmt.Sprintf("cannot connect to backend at %s: %v", c.baseURL, err), Err: err}
}
