package storage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

type Storage struct {
	fs afero.Fs
}

// New wraps fs. A nil fs means the host filesystem.
func New(fs afero.Fs) *Storage {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Storage{fs: fs}
}

// Fs exposes the underlying filesystem.
func (s *Storage) Fs() afero.Fs {
	return s.fs
}

// EnsureDir creates dir and any missing parents.
func (s *Storage) EnsureDir(dir string) error {
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	return nil
}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	if err := afero.WriteFile(s.fs, filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

// ReadHead returns up to n leading bytes of a file.
func (s *Storage) ReadHead(filePath string, n int) ([]byte, error) {
	f, err := s.fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading file header: %w", err)
	}
	return buf[:read], nil
}

// Rename moves oldPath to newPath.
func (s *Storage) Rename(oldPath, newPath string) error {
	if err := s.fs.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("error renaming file: %w", err)
	}
	return nil
}

func (s *Storage) HasFile(fn string) bool {
	_, err := s.fs.Stat(fn)
	return err == nil || !os.IsNotExist(err)
}
