// Package filestore persists session values as files, one directory per session.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// Store keeps each key in <dir>/<session-id>/<key>.json.
type Store struct {
	dir string
}

// New returns a Store for sessionID under baseDir. The directory is created
// lazily on the first Set.
func New(baseDir, sessionID string) (*Store, error) {
	if err := checkName("session id", sessionID); err != nil {
		return nil, fmt.Errorf("filestore.New: %w", err)
	}
	if baseDir == "" {
		return nil, fmt.Errorf("filestore.New: base dir is empty")
	}
	return &Store{dir: filepath.Join(baseDir, sessionID)}, nil
}

// Dir is the directory that holds this session's files.
func (s *Store) Dir() string { return s.dir }

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, fmt.Errorf("filestore.Get: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filestore.Get: %w", err)
	}
	return data, nil
}

// Set writes value atomically: a temp file in the same directory is renamed over the target.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return fmt.Errorf("filestore.Set: %w", err)
	}
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("filestore.Set: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore.Set: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore.Set: chmod: %w", err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore.Set: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore.Set: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore.Set: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("filestore.Set: rename: %w", err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return fmt.Errorf("filestore.Delete: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore.Delete: %w", err)
	}
	return nil
}

func (s *Store) path(key string) (string, error) {
	if err := checkName("key", key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func checkName(what, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid %s %q", what, name)
	}
	return nil
}
