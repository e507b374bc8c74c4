// Package storage keeps media objects on the local filesystem. Callers only
// ever see opaque refs of the form "<kind>/<uuid><ext>".
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/google/uuid"
)

// Object kinds
const (
	KindSource  = "sources"
	KindPreview = "previews"
	KindFinal   = "finals"
	KindRender  = "renders" // render manifests kept between preview and finalize
)

// ObjectStore resolves opaque media refs
type ObjectStore interface {
	// Import copies a local file into the store and returns its ref
	Import(kind, srcPath string) (string, error)
	// Allocate reserves a ref and returns the path a producer should write to
	Allocate(kind, ext string) (ref string, path string, err error)
	Resolve(ref string) (string, error)
	Delete(ref string) error
}

// LocalStore implements ObjectStore under a root directory
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New(errors.CodeInvalidArg, "storage directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to resolve storage directory")
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create storage directory")
	}
	return &LocalStore{root: abs}, nil
}

// Import copies srcPath into the store
func (s *LocalStore) Import(kind, srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf(errors.CodeNotFound, "media file not found: %s", srcPath)
		}
		return "", errors.Wrap(err, errors.CodeInternal, "failed to open media file")
	}
	defer src.Close()

	ref, path, err := s.Allocate(kind, filepath.Ext(srcPath))
	if err != nil {
		return "", err
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to create stored object")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", errors.Wrap(err, errors.CodeInternal, "failed to copy media file")
	}
	if err := dst.Close(); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to close stored object")
	}
	return ref, nil
}

// Allocate returns a fresh ref and its backing path; the file is not created
func (s *LocalStore) Allocate(kind, ext string) (string, string, error) {
	switch kind {
	case KindSource, KindPreview, KindFinal, KindRender:
	default:
		return "", "", errors.Newf(errors.CodeInvalidArg, "unknown object kind %q", kind)
	}
	if err := os.MkdirAll(filepath.Join(s.root, kind), 0755); err != nil {
		return "", "", errors.Wrap(err, errors.CodeInternal, "failed to create object directory")
	}

	ref := kind + "/" + uuid.NewString() + strings.ToLower(ext)
	return ref, filepath.Join(s.root, filepath.FromSlash(ref)), nil
}

// Resolve maps a ref to its path. Refs escaping the root are rejected.
func (s *LocalStore) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", errors.New(errors.CodeInvalidArg, "object ref is required")
	}
	path := filepath.Join(s.root, filepath.FromSlash(ref))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.Newf(errors.CodeInvalidArg, "invalid object ref %q", ref)
	}
	return path, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *LocalStore) Delete(ref string) error {
	path, err := s.Resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to delete %s", ref))
	}
	return nil
}
