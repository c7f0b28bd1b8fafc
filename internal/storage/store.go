// Package storage is the object-storage collaborator: a bucket/path store
// over the local filesystem. Uploaded documents and extracted images are
// exclusively owned by one import record, so deletion is always single-owner.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned when a bucket or object path escapes the root.
var ErrInvalidPath = errors.New("invalid storage path")

// Store persists objects under root/bucket/path.
type Store struct {
	root string
}

// New creates a Store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Save writes an object, creating parent directories as needed.
func (s *Store) Save(bucket, path string, r io.Reader) error {
	dest, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

// Open returns a reader over a stored object.
func (s *Store) Open(bucket, path string) (io.ReadCloser, error) {
	dest, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(dest)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

// AbsPath resolves an object to its filesystem location. Used by extractors
// whose libraries read from a path rather than a reader.
func (s *Store) AbsPath(bucket, path string) (string, error) {
	return s.resolve(bucket, path)
}

// Remove deletes the given objects from a bucket. The first failure aborts
// the remaining removals and is returned; already-removed objects stay
// removed (at-least-once semantics, mirroring a remote object store).
// A missing object is not an error.
func (s *Store) Remove(bucket string, paths []string) error {
	for _, p := range paths {
		dest, err := s.resolve(bucket, p)
		if err != nil {
			return err
		}
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove object %s/%s: %w", bucket, p, err)
		}
	}
	return nil
}

// resolve joins root/bucket/path and rejects traversal outside the bucket.
// Dot-dot segments are refused up front: filepath.Join cleans them away, so
// a containment check on the joined result alone would let "../x" slip out.
func (s *Store) resolve(bucket, path string) (string, error) {
	if bucket == "" || path == "" {
		return "", ErrInvalidPath
	}
	if hasDotDot(bucket) || hasDotDot(path) {
		return "", ErrInvalidPath
	}
	dest := filepath.Join(s.root, bucket, filepath.FromSlash(path))
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(destAbs, rootAbs+string(os.PathSeparator)) {
		return "", ErrInvalidPath
	}
	return destAbs, nil
}

func hasDotDot(p string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
