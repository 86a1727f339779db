// Package filestore keeps uploaded files on local disk under generated names.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidName = errors.New("invalid file name")

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

type FileStore struct {
	dir string
	now func() time.Time
}

type SaveResult struct {
	// Name is the generated file name relative to the store directory.
	Name string
	Size int64
}

// New creates the store directory when missing.
func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (fs *FileStore) Dir() string {
	return fs.dir
}

// Save streams reader to a temp file and renames it into place.
func (fs *FileStore) Save(reader io.Reader, originalName string) (*SaveResult, error) {
	name := fs.generateName(originalName)
	fullPath := filepath.Join(fs.dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename file: %w", err)
	}

	return &SaveResult{Name: name, Size: size}, nil
}

// Delete removes a stored file. A missing file is not an error.
func (fs *FileStore) Delete(name string) error {
	fullPath, err := fs.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file %s: %w", name, err)
	}
	return nil
}

func (fs *FileStore) Exists(name string) bool {
	fullPath, err := fs.resolve(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// resolve rejects names that would escape the store directory.
func (fs *FileStore) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(fs.dir, name), nil
}

func (fs *FileStore) generateName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", fs.now().UnixMilli(), uuid.NewString(), ext)
}
