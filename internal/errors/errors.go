// Package errors provides the error taxonomy for Touchline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ============================================================
// Error Kinds
// ============================================================

// Kind classifies an error for handling decisions.
type Kind int

const (
	// KindUnconfigured means required credentials are missing. Fatal, never retried.
	KindUnconfigured Kind = iota

	// KindTimeout means a call exceeded its deadline. Retried once per top-level call.
	KindTimeout

	// KindRateLimited means the upstream signalled a rate limit. Retried with backoff.
	KindRateLimited

	// KindRequestFailed means a network or transport failure. Not retried.
	KindRequestFailed

	// KindMalformedResponse means the upstream reply could not be parsed. Not retried.
	KindMalformedResponse

	// KindEmptyResult means the call succeeded but returned no usable data.
	// Callers treat this as "no augmentation available", not a failure.
	KindEmptyResult

	// KindValidation means bad client input (empty or oversized message).
	KindValidation

	// KindStorage means the conversation store failed.
	KindStorage

	// KindNotFound means a lookup target is absent. A distinct outcome, not a failure.
	KindNotFound
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnconfigured:
		return "unconfigured"
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindRequestFailed:
		return "request_failed"
	case KindMalformedResponse:
		return "malformed_response"
	case KindEmptyResult:
		return "empty_result"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ============================================================
// Error - Main Error Type
// ============================================================

// Error is the main error type for all Touchline errors.
type Error struct {
	// Code is a unique error code for programmatic handling
	Code string

	// Message is a user-friendly error message
	Message string

	// Kind determines how the error should be handled
	Kind Kind

	// Inner is the underlying error
	Inner error

	// Retryable indicates if the operation can be retried
	Retryable bool

	// RetryAfter is the suggested delay before retry
	RetryAfter time.Duration

	// Attempts is the number of attempts made before the error was surfaced
	Attempts int
}

// Error returns the error message.
func (e *Error) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}

	sb.WriteString(e.Message)

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is checks if the target error is contained in this error.
func (e *Error) Is(target error) bool {
	if other, ok := target.(*Error); ok {
		return e.Kind == other.Kind && (other.Code == "" || e.Code == other.Code)
	}
	return errors.Is(e.Inner, target)
}

// ============================================================
// Error Constructors
// ============================================================

// New creates a new Error.
func New(code, message string, kind Kind) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Kind:      kind,
		Retryable: kind == KindRateLimited,
	}
}

// Wrap wraps an existing error with code, message and kind.
func Wrap(err error, code, message string, kind Kind) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:      code,
		Message:   message,
		Kind:      kind,
		Inner:     err,
		Retryable: kind == KindRateLimited,
	}
}

// Unconfigured creates a missing-credentials error.
func Unconfigured(code, message string) *Error {
	return New(code, message, KindUnconfigured)
}

// Timeout creates a deadline-exceeded error.
func Timeout(code, message string) *Error {
	return New(code, message, KindTimeout)
}

// RateLimited creates a rate limit error with a retry-after hint.
func RateLimited(code, message string, retryAfter time.Duration) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Kind:       KindRateLimited,
		Retryable:  true,
		RetryAfter: retryAfter,
	}
}

// RequestFailed creates a network/transport error.
func RequestFailed(code, message string, inner error) *Error {
	return Wrap(inner, code, message, KindRequestFailed)
}

// MalformedResponse creates a parse-failure error.
func MalformedResponse(code, message string, inner error) *Error {
	return Wrap(inner, code, message, KindMalformedResponse)
}

// EmptyResult marks a call that succeeded with no usable data.
func EmptyResult(code, message string) *Error {
	return New(code, message, KindEmptyResult)
}

// Validation creates a client input error.
func Validation(code, message string) *Error {
	return New(code, message, KindValidation)
}

// Storage creates a conversation store error.
func Storage(code, message string, inner error) *Error {
	return Wrap(inner, code, message, KindStorage)
}

// NotFound marks an absent lookup target.
func NotFound(code, message string) *Error {
	return New(code, message, KindNotFound)
}

// ============================================================
// Error Codes
// ============================================================

const (
	// Generate errors
	CodeGenerateUnconfigured = "GENERATE_UNCONFIGURED"
	CodeGenerateTimeout      = "GENERATE_TIMEOUT"
	CodeGenerateRateLimit    = "GENERATE_RATE_LIMIT"
	CodeGenerateFailed       = "GENERATE_FAILED"
	CodeGenerateParseError   = "GENERATE_PARSE_ERROR"
	CodeGenerateEmpty        = "GENERATE_EMPTY"

	// Search errors
	CodeSearchUnconfigured = "SEARCH_UNCONFIGURED"
	CodeSearchTimeout      = "SEARCH_TIMEOUT"
	CodeSearchRateLimit    = "SEARCH_RATE_LIMIT"
	CodeSearchFailed       = "SEARCH_FAILED"
	CodeSearchParseError   = "SEARCH_PARSE_ERROR"
	CodeSearchEmpty        = "SEARCH_EMPTY"

	// Store errors
	CodeStoreFailed   = "STORE_FAILED"
	CodeStoreNotFound = "STORE_NOT_FOUND"

	// Validation errors
	CodeEmptyMessage    = "EMPTY_MESSAGE"
	CodeOversizeMessage = "OVERSIZE_MESSAGE"
)

// ============================================================
// Helpers
// ============================================================

// GetKind extracts the kind from an error.
// Returns KindRequestFailed for non-Touchline errors.
func GetKind(err error) Kind {
	if err == nil {
		return KindRequestFailed
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindRequestFailed
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}

	// Unknown errors are not retried.
	return false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// WithAttempts annotates err with the attempt count, if it is an *Error.
func WithAttempts(err error, attempts int) error {
	var e *Error
	if errors.As(err, &e) {
		e.Attempts = attempts
	}
	return err
}

// FormatUserMessage produces a user-facing description of a failure.
// Never includes wire-level detail.
func FormatUserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch GetKind(err) {
	case KindUnconfigured:
		return "The service is not fully configured right now. Please try again later."
	case KindTimeout:
		return "That took longer than expected. Please try again in a moment."
	case KindRateLimited:
		return "I'm handling a lot of requests right now. Please try again shortly."
	default:
		return fmt.Sprintf("I'm experiencing some technical difficulties right now (%s). Please try again.", GetKind(err))
	}
}
