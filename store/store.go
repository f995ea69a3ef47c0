package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/strandhq/strand/cas"
	"github.com/strandhq/strand/log"
	"github.com/strandhq/strand/metrics"
	"github.com/strandhq/strand/partition"
	"github.com/strandhq/strand/types"
)

var (
	// ErrFrameNotFound indicates the requested frame id is absent.
	ErrFrameNotFound = errors.New("frame not found")

	// ErrEmptyTopic indicates an append without a topic.
	ErrEmptyTopic = errors.New("topic must not be empty")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("store closed")
)

// Options configure a Store.
type Options struct {
	// InMemory runs the partition without disk persistence (tests).
	InMemory bool
	// SyncWrites forces synchronous partition commits.
	SyncWrites bool
	// Logger receives store and partition logging. Optional.
	Logger *log.Logger
	// Metrics receives instrumentation. Optional.
	Metrics *metrics.Collector
}

// Store is the frame store. It composes the ordered partition (index,
// source of truth for existence and ordering) with the CAS (payload
// bytes, content-keyed, order-free).
//
// Single writer path: Append serializes id allocation, payload write and
// index insert under one mutex, so commit order equals id order. Readers
// never take that mutex.
type Store struct {
	part    *partition.Partition
	blobs   *cas.Store
	logger  *log.Logger
	metrics *metrics.Collector

	// appendMu is the append critical section.
	appendMu sync.Mutex

	// headMu guards heads, the per-topic head cache. Entries are updated
	// on every append to their topic and lazily filled by reverse scan on
	// a cold miss.
	headMu sync.Mutex
	heads  map[string]*types.Frame
}

// Open opens (or creates) a store rooted at dir, with the partition under
// dir/main and the CAS under dir/cas.
func Open(dir string, opts Options) (*Store, error) {
	blobs, err := cas.Open(filepath.Join(dir, "cas"))
	if err != nil {
		return nil, err
	}

	part, err := partition.Open(partition.Config{
		Path:       filepath.Join(dir, "main"),
		InMemory:   opts.InMemory,
		SyncWrites: opts.SyncWrites,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		part:    part,
		blobs:   blobs,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		heads:   make(map[string]*types.Frame),
	}, nil
}

// Close closes the partition and wakes all follow-mode readers. Idempotent.
func (s *Store) Close() error {
	return s.part.Close()
}

// Append writes payload to the CAS, allocates the next frame id, and
// inserts the index entry. The payload write strictly precedes the index
// write: a frame visible to readers always resolves in the CAS, and a CAS
// failure aborts the append before any index mutation. A partition failure
// after a successful CAS write leaves only an orphaned, reusable blob.
func (s *Store) Append(ctx context.Context, topic string, payload []byte, meta map[string]any) (*types.Frame, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.part.Closed() {
		return nil, ErrStoreClosed
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	hash, existed, err := s.blobs.Put(payload)
	if err != nil {
		return nil, err
	}

	frame := &types.Frame{ID: id, Topic: topic, Hash: hash, Meta: meta}
	value, err := encodeRecord(frame)
	if err != nil {
		return nil, err
	}
	if err := s.part.Put(frame.KeyBytes(), value); err != nil {
		return nil, err
	}

	s.headMu.Lock()
	s.heads[topic] = frame
	s.headMu.Unlock()

	s.metrics.IncAppended(topic)
	if existed {
		s.metrics.IncBlobDedup()
	} else {
		s.metrics.AddBlobBytes(len(payload))
	}
	if s.logger != nil {
		s.logger.Debug("frame appended", map[string]any{
			"id":    frame.ID.String(),
			"topic": topic,
			"dedup": existed,
		})
	}
	return frame, nil
}

// Get returns the frame with the given id, or ErrFrameNotFound.
func (s *Store) Get(ctx context.Context, id types.FrameID) (*types.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, _ := id.MarshalBinary()
	value, err := s.part.Get(key)
	if err != nil {
		if errors.Is(err, partition.ErrNotFound) {
			return nil, ErrFrameNotFound
		}
		return nil, err
	}
	return decodeRecord(value)
}

// CASGet resolves a payload hash to bytes.
func (s *Store) CASGet(hash string) ([]byte, error) {
	return s.blobs.Get(hash)
}

// CASWriter opens a streaming payload sink yielding a hash on Commit.
func (s *Store) CASWriter() (*cas.Writer, error) {
	return s.blobs.NewWriter()
}

// CAS exposes the underlying blob store for diagnostics.
func (s *Store) CAS() *cas.Store {
	return s.blobs
}
