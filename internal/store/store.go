package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// File is an nvstore backing that keeps the region as a raw image file,
// the on-disk stand-in for the EEPROM page.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

// UpdatedAt is the modification time of the image, zero when none was written.
func (f *File) UpdatedAt() (time.Time, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Load returns the image contents. A missing file reads as empty so a fresh
// device starts from an uninitialized region.
func (f *File) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Persist writes the image to a temp file, syncs it, then renames it over the
// previous image.
func (f *File) Persist(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	tmpPath := f.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, f.path)
}
