package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeSessionExpired ErrorCode = "AUTH-001"
	ErrCodeNotLoggedIn    ErrorCode = "AUTH-002"
	ErrCodeLoginFailed    ErrorCode = "AUTH-003"
	ErrCodeLoginResponse  ErrorCode = "AUTH-004"
	ErrCodeRouteDenied    ErrorCode = "AUTH-005"

	// API errors (API-001 to API-099)
	ErrCodeAPIRequest   ErrorCode = "API-001"
	ErrCodeAPITransport ErrorCode = "API-002"
	ErrCodeAPIDecode    ErrorCode = "API-003"
	ErrCodeAPIEncode    ErrorCode = "API-004"

	// Session store errors (STORE-001 to STORE-099)
	ErrCodeStoreRead    ErrorCode = "STORE-001"
	ErrCodeStoreWrite   ErrorCode = "STORE-002"
	ErrCodeStoreDecode  ErrorCode = "STORE-003"
	ErrCodeStoreBackend ErrorCode = "STORE-004"

	// Routing errors (ROUTE-001 to ROUTE-099)
	ErrCodeRouteNotFound ErrorCode = "ROUTE-001"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigLoad    ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid ErrorCode = "CONFIG-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound   ErrorCode = "IO-001"
	ErrCodeFileReadFailed ErrorCode = "IO-002"
	ErrCodeFileUnmarshal  ErrorCode = "IO-005"
)

// JournalError represents an enhanced error with code, suggestions, and documentation
type JournalError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *JournalError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *JournalError) Unwrap() error {
	return e.Cause
}

// New creates a new JournalError
func New(code ErrorCode, message string) *JournalError {
	return &JournalError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new JournalError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *JournalError {
	return &JournalError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *JournalError) WithSuggestion(suggestion string) *JournalError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *JournalError) WithSuggestions(suggestions ...string) *JournalError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// Common error constructors for frequently used errors

// NewSessionExpiredError is returned after the server rejected the stored token
func NewSessionExpiredError(cause error) *JournalError {
	return Wrap(ErrCodeSessionExpired, "session expired, stored credentials were cleared", cause).
		WithSuggestion("Run 'journal auth login' to sign in again")
}

// NewNotLoggedInError is returned when a command needs a stored token and there is none
func NewNotLoggedInError() *JournalError {
	return New(ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("Run 'journal auth login' to sign in").
		WithSuggestion("Use 'journal auth status' to inspect the stored session")
}

// NewLoginFailedError wraps a failed login call
func NewLoginFailedError(username string, cause error) *JournalError {
	return Wrap(ErrCodeLoginFailed, fmt.Sprintf("login failed for user: %s", username), cause).
		WithSuggestion("Check the username and password").
		WithSuggestion("Verify the API URL with 'journal config view'")
}

// NewRouteDeniedError is returned when the route guard redirected a navigation to the login page
func NewRouteDeniedError(path string) *JournalError {
	return New(ErrCodeRouteDenied, fmt.Sprintf("authentication required for route: %s", path)).
		WithSuggestion("Run 'journal auth login' first")
}

// NewStoreDecodeError creates an error for stored session data that cannot be decoded
func NewStoreDecodeError(key string, cause error) *JournalError {
	return Wrap(ErrCodeStoreDecode, fmt.Sprintf("stored value for %q is not valid JSON", key), cause).
		WithSuggestion("Run 'journal auth logout' to reset the stored session")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *JournalError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'journal config view' to inspect the effective configuration").
		WithSuggestion("Check ~/.journal/config.yaml and JOURNAL_* environment variables")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *JournalError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *JournalError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
