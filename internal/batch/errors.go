package batch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ValidationError is a caller mistake: a missing or malformed argument.
// It is terminal and never retried.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// retryable is implemented by upstream errors that know whether a repeat
// call can succeed (5xx, 429).
type retryable interface {
	Retryable() bool
}

// DefaultShouldRetry retries connection resets, timeouts and errors that
// report themselves retryable. Validation errors, client errors and
// cancellation are never retried.
func DefaultShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || IsValidation(err) {
		return false
	}

	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	return IsNetworkError(err)
}

// IsNetworkError checks if an error is likely due to a transient network
// failure.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	if errors.As(err, &netErr) || errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	networkIndicators := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"i/o timeout",
		"network is unreachable",
		"no route to host",
		"broken pipe",
		"unexpected eof",
		"temporary failure in name resolution",
	}
	for _, indicator := range networkIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
