// Package inference holds the shared error model and retry policy for the remote
// classification and extraction services.
package inference

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"claimintake/internal/domain"
)

// RemoteError is a failed call to a remote inference service.
type RemoteError struct {
	Service    string
	StatusCode int
	Retryable  bool
	RetryAfter time.Duration
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewTransportError classifies an error returned by http.Client.Do.
// Timeouts and connection failures are retryable; caller cancellation is not.
func NewTransportError(service string, err error) *RemoteError {
	retryable := true
	if errors.Is(err, context.Canceled) {
		retryable = false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		retryable = true
	}
	return &RemoteError{Service: service, Retryable: retryable, Err: err}
}

// NewStatusError classifies a non-2xx response. 429 and 5xx are retryable; 415
// maps to ErrUnsupportedArtifact.
func NewStatusError(service string, status int, body []byte, retryAfterHeader string) *RemoteError {
	e := &RemoteError{
		Service:    service,
		StatusCode: status,
		Err:        fmt.Errorf("unexpected response: %s", truncate(string(body), 300)),
	}
	switch {
	case status == http.StatusUnsupportedMediaType:
		e.Err = fmt.Errorf("%w: %s", domain.ErrUnsupportedArtifact, truncate(string(body), 300))
	case status == http.StatusTooManyRequests:
		e.Retryable = true
		e.RetryAfter = time.Duration(ParseRetryAfterHeader(retryAfterHeader)) * time.Second
	case status >= 500:
		e.Retryable = true
	}
	return e
}

// NewMalformedError reports a response body that could not be interpreted.
func NewMalformedError(service string, err error) *RemoteError {
	return &RemoteError{Service: service, Err: fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
