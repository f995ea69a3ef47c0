package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// HashBytes returns the hex sha256 of payload bytes.
// This is the canonical blob key.
func HashBytes(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Store is a filesystem content-addressable blob store.
// Safe for concurrent use: writes commit via temp-file rename, so readers
// never observe partial blobs.
type Store struct {
	root string
}

// Open creates the store root if needed and returns a Store.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, wrap("open", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// blobPath returns the on-disk location for a hash.
// Two-level fan-out keeps directory sizes bounded.
func (s *Store) blobPath(hash string) (string, error) {
	if len(hash) != sha256.Size*2 {
		return "", fmt.Errorf("malformed hash %q", hash)
	}
	return filepath.Join(s.root, hash[:2], hash), nil
}

// Put stores payload and returns its hash. Idempotent: identical bytes
// resolve to the same hash and are stored exactly once.
// The second return reports whether the blob already existed.
func (s *Store) Put(payload []byte) (string, bool, error) {
	hash := HashBytes(payload)
	path, err := s.blobPath(hash)
	if err != nil {
		return "", false, wrap("put", "", err)
	}

	if _, err := os.Stat(path); err == nil {
		return hash, true, nil
	}

	w, err := s.NewWriter()
	if err != nil {
		return "", false, err
	}
	if _, err := w.Write(payload); err != nil {
		w.Abort()
		return "", false, err
	}
	committed, err := w.Commit()
	if err != nil {
		return "", false, err
	}
	return committed, false, nil
}

// Get resolves a hash to payload bytes.
// Returns ErrNotFound classification when the blob does not exist.
func (s *Store) Get(hash string) ([]byte, error) {
	path, err := s.blobPath(hash)
	if err != nil {
		return nil, wrap("get", "", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap("get", path, err)
	}
	return data, nil
}

// Stat returns the size of a stored blob without reading it.
func (s *Store) Stat(hash string) (int64, error) {
	path, err := s.blobPath(hash)
	if err != nil {
		return 0, wrap("stat", "", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, wrap("stat", path, err)
	}
	return info.Size(), nil
}

// Count walks the store and returns the number of distinct blobs.
// Intended for tests and diagnostics, not hot paths.
func (s *Store) Count() (int, error) {
	n := 0
	err := filepath.WalkDir(s.root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, wrap("count", s.root, err)
	}
	return n, nil
}
