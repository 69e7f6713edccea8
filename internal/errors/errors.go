package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodeAuthRefreshFailed      ErrorCode = "AUTH-002"
	ErrCodeAuthRefreshExpired     ErrorCode = "AUTH-003"
	ErrCodeAuthUnauthorized       ErrorCode = "AUTH-004"
	ErrCodeAuthIncompleteResponse ErrorCode = "AUTH-005"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionCacheRead    ErrorCode = "SESSION-001"
	ErrCodeSessionCacheWrite   ErrorCode = "SESSION-002"
	ErrCodeSessionCacheCorrupt ErrorCode = "SESSION-003"

	// API errors (API-001 to API-099)
	ErrCodeAPIRequest   ErrorCode = "API-001"
	ErrCodeAPIDecode    ErrorCode = "API-002"
	ErrCodeAPIStatus    ErrorCode = "API-003"
	ErrCodeAPINotFound  ErrorCode = "API-004"
	ErrCodeAPIForbidden ErrorCode = "API-005"

	// Viewer errors (VIEWER-001 to VIEWER-099)
	ErrCodeViewerFetch  ErrorCode = "VIEWER-001"
	ErrCodeViewerDecode ErrorCode = "VIEWER-002"
	ErrCodeViewerClosed ErrorCode = "VIEWER-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
)

// WorkbenchError represents an enhanced error with code, suggestions, and documentation
type WorkbenchError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *WorkbenchError) Error() string {
	var b strings.Builder

	// Error code and message
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	// Add cause if present
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	// Add suggestions
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	// Add documentation link
	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *WorkbenchError) Unwrap() error {
	return e.Cause
}

// New creates a new WorkbenchError
func New(code ErrorCode, message string) *WorkbenchError {
	return &WorkbenchError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new WorkbenchError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *WorkbenchError {
	return &WorkbenchError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *WorkbenchError) WithSuggestion(suggestion string) *WorkbenchError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *WorkbenchError) WithSuggestions(suggestions ...string) *WorkbenchError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *WorkbenchError) WithDocs(url string) *WorkbenchError {
	e.DocsURL = url
	return e
}

// CodeOf returns the error code carried by err, unwrapping as needed.
// Returns an empty code when err carries no WorkbenchError.
func CodeOf(err error) ErrorCode {
	var werr *WorkbenchError
	if errors.As(err, &werr) {
		return werr.Code
	}
	return ""
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Common error constructors for frequently used errors

// NewInvalidCredentialsError creates a failed-login error carrying the
// server's user-displayable message.
func NewInvalidCredentialsError(serverMessage string) *WorkbenchError {
	if serverMessage == "" {
		serverMessage = "invalid ID or password"
	}
	return New(ErrCodeAuthInvalidCredentials, serverMessage).
		WithSuggestion("Check your user ID and password").
		WithSuggestion("Contact the workspace administrator if your account is locked")
}

// NewRefreshFailedError creates a token refresh failure error
func NewRefreshFailedError(cause error) *WorkbenchError {
	return Wrap(ErrCodeAuthRefreshFailed, "failed to refresh access token", cause).
		WithSuggestion("Run 'workbench auth login' to start a new session")
}

// NewUnauthorizedError creates an unauthorized (401) error
func NewUnauthorizedError() *WorkbenchError {
	return New(ErrCodeAuthUnauthorized, "not authenticated").
		WithSuggestion("Run 'workbench auth login' to authenticate")
}

// NewSessionCacheCorruptError creates a corrupt token cache error.
// Callers are expected to discard the cached value and continue.
func NewSessionCacheCorruptError(path string, cause error) *WorkbenchError {
	return Wrap(ErrCodeSessionCacheCorrupt, fmt.Sprintf("token cache is not valid JSON: %s", path), cause).
		WithSuggestion("The cached token metadata will be discarded").
		WithSuggestion("Delete the file manually if the problem persists")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *WorkbenchError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Check ~/.workbench/config.yaml for syntax errors").
		WithSuggestion("Remove the file to fall back to defaults")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *WorkbenchError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}
