package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/journal/internal/log"
)

// FileBackend persists all keys as one JSON object in a file.
//
// The file is re-read on every Get so that a login performed by another
// process is picked up immediately. Writes go through a temp file and a
// rename, so readers never see a half-written file. A file that no longer
// parses is reported by Get but replaced by Set and Delete, so logging out
// and back in recovers the store.
type FileBackend struct {
	path   string
	logger *log.Logger
	mu     sync.Mutex
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates a file-backed store at path. The parent directory
// is created with 0700 permissions if missing.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileBackend{path: path, logger: log.DefaultLogger()}, nil
}

// SetLogger replaces the logger used to report a discarded corrupt file
func (f *FileBackend) SetLogger(l *log.Logger) {
	if l != nil {
		f.logger = l
	}
}

// Path returns the backing file path
func (f *FileBackend) Path() string {
	return f.path
}

// Get returns the value stored under key
func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores value under key
func (f *FileBackend) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, _, err := f.loadForWrite(ctx)
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

// Delete removes key. The file is removed once it holds no keys.
func (f *FileBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, discarded, err := f.loadForWrite(ctx)
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok && !discarded {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}
	return f.save(values)
}

// loadForWrite is load with a corrupt file treated as empty. discarded
// tells the caller the file must be overwritten or removed.
func (f *FileBackend) loadForWrite(ctx context.Context) (values map[string]string, discarded bool, err error) {
	values, err = f.load()
	var cerr *corruptFileError
	if stderrors.As(err, &cerr) {
		f.logger.WithError(cerr.err).WarnContext(ctx, "discarding corrupt session file", "path", f.path)
		return make(map[string]string), true, nil
	}
	return values, false, err
}

type corruptFileError struct {
	path string
	err  error
}

func (e *corruptFileError) Error() string {
	return fmt.Sprintf("session file %s is corrupt: %v", e.path, e.err)
}

func (e *corruptFileError) Unwrap() error { return e.err }

func (f *FileBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, &corruptFileError{path: f.path, err: err}
	}
	return values, nil
}

func (f *FileBackend) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmpName, f.path)
}
