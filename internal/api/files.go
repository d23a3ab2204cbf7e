package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/felixgeelhaar/journal/internal/apiclient"
)

// UploadField is the multipart field the server reads the file from
const UploadField = "file"

// FilesService covers /file
type FilesService struct {
	client *apiclient.Client
}

// Upload sends one file as multipart/form-data
func (s *FilesService) Upload(ctx context.Context, name string, r io.Reader) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/file/upload",
		File:   &apiclient.File{Field: UploadField, Name: name, Reader: r},
	})
}
