package apiclient

import (
	"io"
	"net/http"
	"net/url"
)

// Request describes one API call. Path is relative to the configured base
// path. Requests are never persisted.
type Request struct {
	Method string
	Path   string

	// Endpoint is the path template used as metrics label, e.g. "/articles/{id}".
	// Defaults to Path.
	Endpoint string

	// Query is either url.Values or a struct with `url` tags
	Query any

	// Body is JSON-encoded unless it is a json.RawMessage or []byte,
	// which are sent as is
	Body any

	// File switches the request to multipart/form-data
	File *File

	// Header overrides default headers
	Header http.Header
}

// File is a single file part of a multipart upload
type File struct {
	// Field is the form field name
	Field  string
	Name   string
	Reader io.Reader
	// Fields are additional plain form fields
	Fields url.Values
}

func (r *Request) endpoint() string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	return r.Path
}
