// Package storage mirrors state into a key-value medium. Values are stored
// as whole JSON documents; there is no incremental diffing.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
)

// Store is a flat key-value surface holding serialized documents.
type Store interface {
	// Read returns the raw document stored under key. found is false
	// when nothing has been written yet.
	Read(ctx context.Context, key string) (data []byte, found bool, err error)

	// Write replaces the document stored under key.
	Write(ctx context.Context, key string, data []byte) error

	// Close releases resources
	Close() error
}

// ReadOr decodes the document stored under key into a value of type T.
// Absent, unreadable or malformed entries yield def.
func ReadOr[T any](ctx context.Context, s Store, key string, def T) T {
	data, found, err := s.Read(ctx, key)
	if err != nil {
		xlog.Error("Failed to read from store", "key", key, "error", err)
		return def
	}
	if !found || len(data) == 0 {
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		xlog.Error("Malformed entry in store, using default", "key", key, "error", err)
		return def
	}
	return v
}

// WriteValue serializes value and stores it under key.
func WriteValue(ctx context.Context, s Store, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Write(ctx, key, data)
}

// Open builds a store from a URL. Supported schemes are file, memory,
// redis, sqlite and mysql. A bare path is treated as a file store directory.
func Open(ctx context.Context, rawURL string) (Store, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("empty store URL")
	}
	if !strings.Contains(rawURL, "://") {
		return NewFileStore(rawURL)
	}

	parts := strings.SplitN(rawURL, "://", 2)
	scheme, rest := strings.ToLower(parts[0]), parts[1]
	switch scheme {
	case "file":
		return NewFileStore(rest)
	case "memory":
		return NewMemoryStore(), nil
	case "redis", "rediss":
		return NewRedisStore(ctx, rawURL)
	case "sqlite", "sqlite3":
		return NewSQLiteStore(ctx, rest)
	case "mysql":
		return NewMySQLStore(ctx, rest)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}
