// Package storage manages the per-job transient files: one source and one
// destination per job id, created before submission and deleted after the
// job reaches a terminal state.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ScratchStore hands out transient file paths under a single scratch
// directory.
type ScratchStore struct {
	dir string
}

// NewScratchStore initializes a ScratchStore rooted at dir.
func NewScratchStore(dir string) (*ScratchStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: scratch dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure scratch dir: %w", err)
	}
	return &ScratchStore{dir: dir}, nil
}

// Dir returns the configured scratch directory.
func (s *ScratchStore) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// SourcePath is where a job's uploaded image lives until processed.
func (s *ScratchStore) SourcePath(jobID string) string {
	return filepath.Join(s.dir, "input_"+jobID+".jpg")
}

// DestPath is where a job's enhanced image lands.
func (s *ScratchStore) DestPath(jobID string) string {
	return filepath.Join(s.dir, "output_"+jobID+".jpg")
}

// WriteFile streams r into path.
func (s *ScratchStore) WriteFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("storage: create %s: %w", path, err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		_ = os.Remove(path)
		return 0, fmt.Errorf("storage: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("storage: close %s: %w", path, err)
	}
	return n, nil
}

// Remove deletes a transient file. A file that is already gone is not an
// error; cleanup runs on every job exit path and may race the result
// endpoint's own deletion.
func (s *ScratchStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}
