package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by providers and the dispatcher.
var (
	// ErrEmptyCredential indicates that a credential was required but
	// not provided.
	ErrEmptyCredential = errors.New("credential cannot be empty")
	// ErrEmptyResponse indicates that the provider's API returned an
	// empty or nil response body.
	ErrEmptyResponse = errors.New("empty response from API")
	// ErrNoCredentials indicates that the dispatcher was constructed
	// without any credentials to try.
	ErrNoCredentials = errors.New("no credentials configured")
)

// ErrorType represents the category of an error returned by the
// generative-content service. It classifies errors for standardized
// handling, such as determining whether failover should continue.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an error of an undetermined category.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication indicates a problem with authentication or
	// authorization, e.g. an invalid credential.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit indicates that a rate or quota limit has been
	// exceeded.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest indicates a malformed request or invalid
	// parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates that a requested resource, e.g. a
	// model, could not be found.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a problem on the provider's end.
	ErrorTypeServerError
	// ErrorTypeContentPolicy indicates that the request was blocked by a
	// content policy.
	ErrorTypeContentPolicy
	// ErrorTypeNetwork indicates a client-side network problem.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates that the request timed out.
	ErrorTypeTimeout
)

// ProviderError represents a structured error from the provider.
// It normalizes provider-specific errors into a common format,
// including a classified error type and relevant metadata.
type ProviderError struct {
	// Type classifies the error into a standard category.
	Type ErrorType
	// Provider identifies the backend that produced the error.
	Provider string
	// StatusCode holds the HTTP status code from the provider's
	// response, if applicable.
	StatusCode int
	// Message contains the user-facing error message.
	Message string
	// WrappedError holds the original underlying error.
	WrappedError error
}

// Error returns a string representation of the ProviderError,
// satisfying the standard error interface.
func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}

	if typeStr := e.typeString(); typeStr != "" {
		base += fmt.Sprintf(" [%s]", typeStr)
	}

	if e.Message != "" {
		base += ": " + e.Message
	}

	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}

	return base
}

// Unwrap returns the underlying wrapped error, allowing inspection with
// errors.Is and errors.As.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// typeString returns a human-readable error type.
func (e *ProviderError) typeString() string {
	switch e.Type {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeContentPolicy:
		return "content_policy"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return ""
	}
}

// NewProviderError creates a new ProviderError from a provider-specific
// response.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// quotaMarkers are the case-insensitive substrings that identify a
// quota or rate exhaustion condition in an error's text. A match means
// the credential is spent for now and failover should move on to the
// next one; anything else aborts the pass.
var quotaMarkers = []string{"429", "quota", "limit"}

// IsQuotaExhausted reports whether the error looks like a quota or rate
// exhaustion condition. Classified ProviderErrors are checked by type
// first; all errors additionally fall back to the substring heuristic
// so unclassified provider text is still recognized.
func IsQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) && pe.Type == ErrorTypeRateLimit {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ErrorClassifier standardizes provider-specific errors into
// ProviderError instances, using context such as HTTP status codes to
// determine the appropriate ErrorType.
type ErrorClassifier struct {
	// Provider is the backend name this classifier reports.
	Provider string
}

// ClassifyHTTPError creates a ProviderError by classifying an error
// based on its HTTP status code.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	var userMessage string

	switch statusCode {
	case 401, 403:
		errType = ErrorTypeAuthentication
		userMessage = fmt.Sprintf("%s authentication failed", ec.Provider)
	case 429:
		errType = ErrorTypeRateLimit
		userMessage = fmt.Sprintf("%s rate limit exceeded", ec.Provider)
	case 400:
		errType = ErrorTypeBadRequest
		userMessage = message
	case 404:
		errType = ErrorTypeNotFound
		userMessage = message
	case 500, 502, 503, 504:
		errType = ErrorTypeServerError
		userMessage = message
	default:
		if statusCode >= 400 && statusCode < 500 {
			errType = ErrorTypeBadRequest
		} else if statusCode >= 500 {
			errType = ErrorTypeServerError
		} else {
			errType = ErrorTypeUnknown
		}
		userMessage = message
	}

	return NewProviderError(ec.Provider, errType, statusCode, userMessage, err)
}

// ClassifyContextError creates a ProviderError by classifying a
// context-related error, such as context.DeadlineExceeded or
// context.Canceled.
func (ec *ErrorClassifier) ClassifyContextError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, ErrorTypeTimeout, 0, "context deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, ErrorTypeNetwork, 0, "request canceled", err)
	default:
		return NewProviderError(ec.Provider, ErrorTypeUnknown, 0, "", err)
	}
}
