// Package cas implements the content-addressable payload store.
//
// Blobs are keyed by the hex sha256 of their bytes and laid out under
// <root>/<hex[:2]>/<hex>. The store is a pure content-addressed cache with
// no ordering semantics: identical payloads share one blob, and orphaned
// blobs (written but never indexed) are garbage, not corruption.
package cas

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// Sentinel errors for storage failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")

	// ErrPermissionDenied indicates a permission/access failure (EACCES).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDiskFull indicates storage is out of space (ENOSPC).
	ErrDiskFull = errors.New("no space left on device")

	// ErrCorrupt indicates stored bytes no longer match their hash.
	ErrCorrupt = errors.New("blob corrupt")
)

// StorageError wraps an underlying error with storage classification.
// It preserves the original error in the chain for inspection via errors.As.
type StorageError struct {
	// Kind is the sentinel error for classification (e.g. ErrNotFound).
	Kind error
	// Op is the operation that failed (e.g. "put", "get", "commit").
	Op string
	// Path is the blob path involved, if any.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("cas %s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("cas %s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match both the Kind sentinel and the wrapped error.
func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// classify maps an OS-level error to a sentinel kind.
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, os.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EACCES):
		return ErrPermissionDenied
	case errors.Is(err, syscall.ENOSPC):
		return ErrDiskFull
	default:
		return err
	}
}

// wrap builds a classified StorageError.
func wrap(op, path string, err error) error {
	return &StorageError{Kind: classify(err), Op: op, Path: path, Err: err}
}
