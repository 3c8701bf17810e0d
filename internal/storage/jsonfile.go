package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/illarion/safelist/internal/vault"
)

// JSONFile stores the vault as one JSON document
type JSONFile struct {
	path string
}

// NewJSONFile creates a JSON backend for path. Nothing is touched on disk
// until Save.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the document location
func (j *JSONFile) Path() string {
	return j.path
}

// Exists reports whether the document file is present
func (j *JSONFile) Exists() (bool, error) {
	info, err := os.Stat(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s is not a regular file", ErrIO, j.path)
	}
	return true, nil
}

// Modified returns the document's modification time
func (j *JSONFile) Modified() (time.Time, error) {
	info, err := os.Stat(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrNotInitialized
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return info.ModTime(), nil
}

// Load reads the document. A missing file yields an empty vault.
func (j *JSONFile) Load() (*vault.Vault, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return vault.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return DecodeJSON(data)
}

// Save writes the document to a temp file and renames it over the target,
// so readers see either the old or the new content
func (j *JSONFile) Save(v *vault.Vault) error {
	data, err := EncodeJSON(v)
	if err != nil {
		return err
	}

	dir := filepath.Dir(j.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(j.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	tmpPath := tmp.Name()

	// Clean up temp file on any failure
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(FilePermSecure); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.Rename(tmpPath, j.path); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	committed = true
	return nil
}

// ID derives a stable vault ID from the absolute document path
func (j *JSONFile) ID() (string, error) {
	abs, err := filepath.Abs(j.path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve vault path: %w", err)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String(), nil
}
