// Package staging manages the shared directory stages use to hand files to
// each other. A run owns the directory exclusively; nothing here locks.
package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Well-known file names inside the staging directory.
const (
	InputFile    = "input.csv"
	CleanedFile  = "cleaned.csv"
	RejectedFile = "rejected.csv"
)

// ErrNotStaged is returned when a stage expects a file that an earlier
// stage did not leave behind. It matches fs.ErrNotExist.
var ErrNotStaged = fmt.Errorf("not staged: %w", fs.ErrNotExist)

// Area is a staging directory.
type Area struct {
	dir string
}

// New returns the staging area rooted at dir. The directory is created on
// first write.
func New(dir string) *Area {
	return &Area{dir: dir}
}

// InputPath is where the loader stages the fetched object.
func (a *Area) InputPath() string { return filepath.Join(a.dir, InputFile) }

// CleanedPath is where the validator stages the clean table.
func (a *Area) CleanedPath() string { return filepath.Join(a.dir, CleanedFile) }

// RejectedPath is where the validator stages the rejects report.
func (a *Area) RejectedPath() string { return filepath.Join(a.dir, RejectedFile) }

// Write replaces the file at path with data, creating parent directories.
func (a *Area) Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing staged file: %w", err)
	}
	return nil
}

// Create opens path for writing, truncating any previous content.
func (a *Area) Create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating staged file: %w", err)
	}
	return f, nil
}

// Open opens a staged file for reading. A missing file yields an error
// matching ErrNotStaged.
func (a *Area) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s %w", path, ErrNotStaged)
	}
	if err != nil {
		return nil, fmt.Errorf("opening staged file: %w", err)
	}
	return f, nil
}

// ReadFile returns the contents of a staged file. A missing file yields an
// error matching ErrNotStaged.
func (a *Area) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s %w", path, ErrNotStaged)
	}
	if err != nil {
		return nil, fmt.Errorf("reading staged file: %w", err)
	}
	return data, nil
}

// Or returns path, or fallback when path is empty.
func Or(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}
