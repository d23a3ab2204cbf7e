package session

import (
	"context"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/journal/internal/log"
)

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options selects and configures a backend
type Options struct {
	Backend string
	Path    string
	Redis   RedisOptions
}

// Open builds the Store described by opts
func Open(ctx context.Context, opts Options, logger *log.Logger) (*Store, error) {
	var backend Backend
	switch opts.Backend {
	case BackendFile, "":
		fb, err := NewFileBackend(opts.Path)
		if err != nil {
			return nil, err
		}
		fb.SetLogger(logger)
		backend = fb
	case BackendMemory:
		backend = NewMemoryBackend()
	case BackendRedis:
		rb, err := NewRedisBackend(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		backend = rb
	default:
		return nil, fmt.Errorf("invalid store backend: %s", opts.Backend)
	}
	return NewStore(backend, logger), nil
}

// Fingerprint returns a short BLAKE3 digest of token, safe to print and log
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:6])
}
