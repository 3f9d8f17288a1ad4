package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/logimaster/backend/internal/application/bulkupload"
	"github.com/logimaster/backend/internal/domain/shared"
)

// Compile-time interface compliance check
var _ bulkupload.ReportStore = (*LocalReportStore)(nil)

// LocalReportStore stores error reports on the local filesystem under a
// base directory. Intended for development and single-node deployments.
type LocalReportStore struct {
	baseDir string
}

// NewLocalReportStore creates the base directory if needed and returns a
// store rooted at it.
func NewLocalReportStore(baseDir string) (*LocalReportStore, error) {
	if baseDir == "" {
		return nil, errors.New("storage base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalReportStore{baseDir: baseDir}, nil
}

// resolve maps a logical key to a path inside the base directory and
// rejects keys that would escape it.
func (s *LocalReportStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

// Put writes data under the given key, creating parent directories as needed.
func (s *LocalReportStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// Get reads the file stored under the given key.
func (s *LocalReportStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	return data, nil
}

// Exists checks whether a file is stored under the given key.
func (s *LocalReportStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat report file: %w", err)
	}
	return true, nil
}

// Delete removes the file stored under the given key. Deleting a missing
// file is not an error.
func (s *LocalReportStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete report file: %w", err)
	}
	return nil
}
