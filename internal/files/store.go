package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTooLarge     = errors.New("file too large")
	ErrBadExtension = errors.New("file extension not allowed")
	ErrBadName      = errors.New("invalid file name")
)

// Store is a local-disk blob store. Blob names are server-generated, so a
// stored name is never attacker-controlled; lookups still refuse anything
// that is not a plain base name.
type Store struct {
	dir     string
	maxSize int64
	allowed map[string]struct{}
}

// NewStore creates the directory if needed. allowedExts is a lowercase
// extension allow-list including the dot; empty means anything goes.
func NewStore(dir string, maxSize int64, allowedExts []string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	var allowed map[string]struct{}
	if len(allowedExts) > 0 {
		allowed = make(map[string]struct{}, len(allowedExts))
		for _, ext := range allowedExts {
			allowed[ext] = struct{}{}
		}
	}
	return &Store{dir: dir, maxSize: maxSize, allowed: allowed}, nil
}

// Save streams the reader to a fresh uuid-named blob, enforcing the size
// cap and extension allow-list. Returns the stored name and size.
func (s *Store) Save(r io.Reader, originalName string) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if s.allowed != nil {
		if _, ok := s.allowed[ext]; !ok {
			return "", 0, ErrBadExtension
		}
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write blob: %w", err)
	}
	if written > s.maxSize {
		_ = os.Remove(path)
		return "", 0, ErrTooLarge
	}
	return name, written, nil
}

// Remove deletes a blob. Missing blobs are fine; the row is authoritative.
func (s *Store) Remove(name string) error {
	path, err := s.Resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Resolve returns the on-disk path for a stored name, refusing anything
// that could escape the store directory.
func (s *Store) Resolve(name string) (string, error) {
	base := filepath.Base(name)
	if base == "" || base == "." || base != name {
		return "", ErrBadName
	}
	return filepath.Join(s.dir, base), nil
}

// RemoveAll deletes every blob in the store directory.
func (s *Store) RemoveAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
