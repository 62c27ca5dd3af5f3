// Package errors defines custom error types for better error handling and debugging.
// StreamError provides context-aware error reporting with type classification.
package errors

import (
	stderrors "errors"
	"fmt"
)

// StreamError represents errors that occur while fetching catalog data or resolving stream links
type StreamError struct {
	Type    string
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// Error type constants
const (
	ErrorTypeProbeTimeout           = "PROBE_TIMEOUT"
	ErrorTypeProbeNetwork           = "PROBE_NETWORK_ERROR"
	ErrorTypeProbeRejected          = "PROBE_REJECTED"
	ErrorTypeAllCandidatesExhausted = "ALL_CANDIDATES_EXHAUSTED"
	ErrorTypeUpstreamFailure        = "UPSTREAM_FAILURE"
	ErrorTypeNotFound               = "NOT_FOUND"
	ErrorTypeInvalidParameter       = "INVALID_PARAMETER"
	ErrorTypeConfigurationInvalid   = "CONFIGURATION_INVALID"
)

// NewStreamError creates a new StreamError
func NewStreamError(errorType, message string, cause error) *StreamError {
	return &StreamError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewProbeTimeoutError reports a probe that did not answer within its deadline
func NewProbeTimeoutError(target string, cause error) *StreamError {
	return NewStreamError(ErrorTypeProbeTimeout, fmt.Sprintf("probe timed out: %s", target), cause)
}

// NewProbeNetworkError reports a probe that failed before a response arrived
func NewProbeNetworkError(target string, cause error) *StreamError {
	return NewStreamError(ErrorTypeProbeNetwork, fmt.Sprintf("probe failed: %s", target), cause)
}

// NewProbeRejectedError reports a probe that answered with an unusable status or content type
func NewProbeRejectedError(target string, status int, contentType string) *StreamError {
	return NewStreamError(ErrorTypeProbeRejected,
		fmt.Sprintf("probe rejected: %s (status %d, content-type %q)", target, status, contentType), nil)
}

// NewCandidatesExhaustedError reports that no candidate nor the original link could be used
func NewCandidatesExhaustedError(rawURL string, tried int) *StreamError {
	return NewStreamError(ErrorTypeAllCandidatesExhausted,
		fmt.Sprintf("no playable link for %s after %d candidates and fallback", rawURL, tried), nil)
}

// NewUpstreamError creates an upstream catalog error
func NewUpstreamError(message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeUpstreamFailure, message, cause)
}

// NewNotFoundError creates a not-found error for the named resource
func NewNotFoundError(resource string) *StreamError {
	return NewStreamError(ErrorTypeNotFound, fmt.Sprintf("not found: %s", resource), nil)
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(name string) *StreamError {
	return NewStreamError(ErrorTypeInvalidParameter, fmt.Sprintf("missing or invalid parameter: %s", name), nil)
}

// NewConfigurationError creates a configuration-related error
func NewConfigurationError(message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeConfigurationInvalid, message, cause)
}

// IsType reports whether err, or any error it wraps, is a StreamError of the given type.
func IsType(err error, errorType string) bool {
	var se *StreamError
	if stderrors.As(err, &se) {
		return se.Type == errorType
	}
	return false
}
