package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrNotInstalled is returned when no wallet provider is present.
	ErrNotInstalled = errors.New("wallet not installed")

	// ErrUserRejected is returned when the user declines a prompt.
	ErrUserRejected = errors.New("user rejected request")

	// ErrUnsupportedNetwork is returned when the active network has no
	// contract deployment.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrStaleHandle is returned when a contract handle outlives the
	// network it was resolved for.
	ErrStaleHandle = errors.New("stale contract handle")

	// ErrTimeout is returned when a fetch exceeds its deadline.
	ErrTimeout = errors.New("operation timeout")
)

// Error is the base interface for all typed errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// WalletError represents a wallet provider failure.
type WalletError struct {
	*BaseError
}

// NewWalletError creates a wallet error with the given code.
// Codes: CodeWalletNotInstalled, CodeUserRejected, CodeUnknown.
func NewWalletError(code, message string, cause error) *WalletError {
	if message == "" {
		message = "wallet error"
	}
	return &WalletError{
		BaseError: &BaseError{
			code:    code,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// BindingError represents a contract address resolution failure.
type BindingError struct {
	*BaseError
	NetworkID uint64
}

// NewBindingError creates an unsupported-network binding error.
func NewBindingError(networkID uint64) *BindingError {
	return &BindingError{
		BaseError: &BaseError{
			code:    CodeUnsupportedNetwork,
			message: fmt.Sprintf("no contract deployment for network %d", networkID),
			stack:   captureStack(1),
		},
		NetworkID: networkID,
	}
}

// CallError represents a contract read or write failure.
type CallError struct {
	*BaseError
	Method string
}

// NewCallError creates a call error with the given code.
// Codes: CodeRPCError, CodeUserRejected, CodeInsufficientFunds,
// CodeStaleHandle.
func NewCallError(code, method string, cause error) *CallError {
	return &CallError{
		BaseError: &BaseError{
			code:    code,
			message: fmt.Sprintf("contract %s failed", method),
			cause:   cause,
			stack:   captureStack(1),
		},
		Method: method,
	}
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("contract %s failed [%s]: %v", e.Method, e.code, e.cause)
	}
	return fmt.Sprintf("contract %s failed [%s]", e.Method, e.code)
}

// FetchError represents a gateway metadata fetch failure.
type FetchError struct {
	*BaseError
	URL        string
	StatusCode int
}

// NewFetchError creates a fetch error with the given code.
// Codes: CodeTimeout, CodeHTTPStatus, CodeParseError.
func NewFetchError(code, url string, cause error) *FetchError {
	return &FetchError{
		BaseError: &BaseError{
			code:    code,
			message: fmt.Sprintf("gateway fetch failed for %s", url),
			cause:   cause,
			stack:   captureStack(1),
		},
		URL: url,
	}
}

// WithStatus attaches the HTTP status code that triggered the error.
func (e *FetchError) WithStatus(status int) *FetchError {
	e.StatusCode = status
	return e
}

// ConfigError represents invalid configuration.
type ConfigError struct {
	*BaseError
	Field string
}

// NewConfigError creates a config error for a specific field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		BaseError: &BaseError{
			code:    CodeConfigError,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("config error: %s", e.message)
}
