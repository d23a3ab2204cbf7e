package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TransportError is returned when no response was received: DNS failure,
// refused connection, timeout or a cancelled context.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because the client timeout elapsed
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// StatusError is returned for any response outside the 2xx range
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
	// Message is the server's error text when the body carried one
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// errorResponse is the error body shape the server uses
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func newStatusError(method, path string, status int, body []byte) *StatusError {
	e := &StatusError{StatusCode: status, Method: method, Path: path, Body: body}

	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		switch {
		case resp.Message != "":
			e.Message = resp.Message
		case resp.Error != "":
			e.Message = resp.Error
		case resp.Msg != "":
			e.Message = resp.Msg
		}
		return e
	}

	// Fall back to a short plain-text body
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.ContainsAny(text, "<{") {
		e.Message = text
	}
	return e
}

// IsUnauthorized reports whether err carries an HTTP 401 response
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0 if there is none
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsTransport reports whether err is a failure to get any response
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
