package ux

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/felixgeelhaar/journal/internal/apiclient"
	"github.com/felixgeelhaar/journal/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions.
// Coded errors already carry suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var jerr *errors.JournalError
	if stderrors.As(err, &jerr) && len(jerr.Suggestions) > 0 {
		return err
	}

	var transportErr *apiclient.TransportError
	if stderrors.As(err, &transportErr) {
		if transportErr.Timeout() {
			return NewErrorWithSuggestion(err,
				"The server did not answer in time. Raise api.timeout with 'journal config set api.timeout 30s'")
		}
		return NewErrorWithSuggestion(err,
			"Check that the journal server is running and api.url is correct ('journal config view')")
	}

	switch apiclient.StatusCode(err) {
	case 0:
	case http.StatusForbidden:
		return NewErrorWithSuggestion(err, "The logged-in user may not perform this action")
	case http.StatusNotFound:
		return NewErrorWithSuggestion(err, "Check the id, or list what exists with the matching 'list' command")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewErrorWithSuggestion(err, "Check the request body passed with --data or --file")
	default:
		if apiclient.StatusCode(err) >= 500 {
			return NewErrorWithSuggestion(err, "The server failed; try again later or check its logs")
		}
	}

	if stderrors.Is(err, os.ErrPermission) {
		return NewErrorWithSuggestion(err,
			"Check permissions of ~/.journal and the session file")
	}
	if strings.Contains(err.Error(), "session file") && strings.Contains(err.Error(), "corrupt") {
		return NewErrorWithSuggestion(err,
			"Remove the session file and log in again with 'journal auth login'")
	}

	return err
}
