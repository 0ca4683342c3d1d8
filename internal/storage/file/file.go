package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Backend implements storage.Backend as a single JSON document on disk that
// maps keys to strings. The document is held in memory and rewritten
// atomically (temp file + rename) on every change, so a failed write leaves
// both the file and the in-memory view as they were.
type Backend struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// Open loads the document at path. A missing file starts an empty store. A
// file that is not a valid document is logged and replaced on the next write.
func Open(path string, logger *slog.Logger) (*Backend, error) {
	b := &Backend{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return b, nil
	case err != nil:
		return nil, fmt.Errorf("read store file %s: %w", path, err)
	}

	if len(data) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(data, &b.values); err != nil {
		logger.Warn("store file is corrupt, starting empty",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		b.values = make(map[string]string)
	}
	return b, nil
}

// Get returns the value stored under key.
func (b *Backend) Get(_ context.Context, key string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return "", fmt.Errorf("key %q: %w", key, apperrors.ErrNotFound)
	}
	return v, nil
}

// Set stores value under key and flushes the document.
func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := maps.Clone(b.values)
	next[key] = value
	if err := b.flush(next); err != nil {
		return err
	}
	b.values = next
	return nil
}

// Delete removes key and flushes the document. A missing key is a no-op.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.values[key]; !ok {
		return nil
	}
	next := maps.Clone(b.values)
	delete(next, key)
	if err := b.flush(next); err != nil {
		return err
	}
	b.values = next
	return nil
}

// Ping checks that the store directory is still writable.
func (b *Backend) Ping(context.Context) error {
	dir := filepath.Dir(b.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat store dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store dir %s is not a directory", dir)
	}
	return nil
}

// Close is a no-op; every change is already on disk.
func (b *Backend) Close() error { return nil }

func (b *Backend) flush(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
