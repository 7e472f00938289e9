package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"booking-session-cache/internal/ports/output"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Compile-time check to ensure FileStorage implements DurableStorage interface
var _ output.DurableStorage = (*FileStorage)(nil)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileStorage struct - Output adapter storing one file per key under a directory.
// Writes go to a temporary file that is renamed into place, so a crash never
// leaves a half-written value behind.
type FileStorage struct {
	fs  afero.Fs
	dir string
}

// NewFileStorage creates a file storage rooted at dir on fs, creating dir if needed
func NewFileStorage(fs afero.Fs, dir string) (*FileStorage, error) {
	if dir == "" {
		dir = "."
	}
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	logrus.Infof("File storage initialized at %s", dir)
	return &FileStorage{fs: fs, dir: dir}, nil
}

// NewOsFileStorage creates a file storage on the real filesystem
func NewOsFileStorage(dir string) (*FileStorage, error) {
	return NewFileStorage(afero.NewOsFs(), dir)
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Get returns the value stored under key
func (f *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	data, err := afero.ReadFile(f.fs, f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set stores value under key
func (f *FileStorage) Set(_ context.Context, key, value string) error {
	target := f.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, []byte(value), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := f.fs.Rename(tmp, target); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (f *FileStorage) Remove(_ context.Context, key string) error {
	err := f.fs.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
