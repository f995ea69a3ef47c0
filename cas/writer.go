package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"os"
	"path/filepath"
)

// Writer is a streaming blob sink. Bytes are hashed incrementally while
// being written to a temp file; Commit renames the file into its
// content-addressed location and yields the hash. A Writer is single-use.
type Writer struct {
	store *Store
	tmp   *os.File
	h     hash.Hash
	done  bool
}

// NewWriter opens a streaming sink for one blob.
func (s *Store) NewWriter() (*Writer, error) {
	tmp, err := os.CreateTemp(s.root, ".ingest-*")
	if err != nil {
		return nil, wrap("write", s.root, err)
	}
	return &Writer{store: s, tmp: tmp, h: sha256.New()}, nil
}

// Write appends bytes to the pending blob.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.tmp.Write(p)
	if err != nil {
		return n, wrap("write", w.tmp.Name(), err)
	}
	// hash.Hash.Write never returns an error
	w.h.Write(p[:n])
	return n, nil
}

// Commit finalizes the blob and returns its hash.
// If an identical blob already exists the temp file is discarded.
func (w *Writer) Commit() (string, error) {
	if w.done {
		return "", wrap("commit", w.tmp.Name(), os.ErrClosed)
	}
	w.done = true

	if err := w.tmp.Close(); err != nil {
		_ = os.Remove(w.tmp.Name())
		return "", wrap("commit", w.tmp.Name(), err)
	}

	sum := hex.EncodeToString(w.h.Sum(nil))
	dest, err := w.store.blobPath(sum)
	if err != nil {
		_ = os.Remove(w.tmp.Name())
		return "", wrap("commit", "", err)
	}

	if _, err := os.Stat(dest); err == nil {
		// Deduplicated: content already present.
		_ = os.Remove(w.tmp.Name())
		return sum, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		_ = os.Remove(w.tmp.Name())
		return "", wrap("commit", dest, err)
	}
	if err := os.Rename(w.tmp.Name(), dest); err != nil {
		_ = os.Remove(w.tmp.Name())
		return "", wrap("commit", dest, err)
	}
	return sum, nil
}

// Abort discards the pending blob.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	_ = w.tmp.Close()
	_ = os.Remove(w.tmp.Name())
}
