package scheduler

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the scheduler.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrClosed is returned for requests submitted to or pending on a
	// closed scheduler.
	ErrClosed = errors.New("scheduler closed")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents non-retryable 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents retryable 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses. Never terminal: the
	// worker cools down and retries without spending the retry budget.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents connection resets, timeouts, and other
	// transport failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassAuth represents 401 responses (invalid token).
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassNotFound represents 404 responses (unknown user or
	// private collection).
	ErrorClassNotFound ErrorClass = "not_found"
)

// Classify categorizes a request outcome. err is any transport-level
// failure; statusCode is consulted only when err is nil.
func Classify(statusCode int, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode == http.StatusUnauthorized:
		return ErrorClassAuth
	case statusCode == http.StatusNotFound:
		return ErrorClassNotFound
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry reports whether a failure class spends the retry budget.
// Rate limits are handled by the cooldown path and never reach this.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// APIError is a terminally rejected request with enough context for the
// caller to log a precise diagnostic.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Endpoint   string
	RecordID   string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var detail string
	if e.StatusCode > 0 {
		detail = fmt.Sprintf("status %d", e.StatusCode)
	} else {
		detail = "transport failure"
	}
	msg := fmt.Sprintf("discogs %s error (%s) on %s", e.Class, detail, e.Endpoint)
	if e.RecordID != "" {
		msg += fmt.Sprintf(" [record %s]", e.RecordID)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether err is a terminal 401 rejection.
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ErrorClassAuth
}

// IsNotFound reports whether err is a terminal 404 rejection.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ErrorClassNotFound
}
