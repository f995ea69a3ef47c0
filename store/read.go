package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/strandhq/strand/types"
)

var (
	// ErrResumeNotFound indicates ReadOptions.LastID does not name a
	// stored frame. Surfaced at subscription setup, never mid-stream.
	ErrResumeNotFound = errors.New("resume id not found")

	// ErrConflictingOptions indicates Tail and LastID were both set.
	ErrConflictingOptions = errors.New("tail and last_id are mutually exclusive")
)

// scanBatch bounds how many frames one partition scan accumulates before
// handing them to the subscriber. Keeps read transactions short on long
// replays.
const scanBatch = 256

// Subscription is one live read stream. Frames arrive on Frames() in id
// order with no duplicates; the channel closes on context cancellation,
// store closure, end of history (follow off), or a terminal error, which
// Err reports after the close.
type Subscription struct {
	frames chan *types.Frame

	mu  sync.Mutex
	err error
}

// Frames returns the delivery channel.
func (sub *Subscription) Frames() <-chan *types.Frame {
	return sub.frames
}

// Err returns the terminal stream error, if any. Valid after the Frames
// channel closes.
func (sub *Subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

func (sub *Subscription) setErr(err error) {
	sub.mu.Lock()
	sub.err = err
	sub.mu.Unlock()
}

// Read opens a subscription over the log.
//
// LastID resumes strictly after the named frame (exclusive). Tail skips
// existing history. Follow keeps the stream open: once in-scope history is
// exhausted the subscription emits one synthetic threshold-sentinel frame
// (topic types.TopicThreshold, never persisted), then blocks on the
// partition watcher until new frames are appended. Without Follow the
// stream is finite and ends when history up to the read's start drains.
func (s *Store) Read(ctx context.Context, opts types.ReadOptions) (*Subscription, error) {
	if s.part.Closed() {
		return nil, ErrStoreClosed
	}
	if opts.Tail && opts.LastID != nil {
		return nil, ErrConflictingOptions
	}

	var cursor []byte
	switch {
	case opts.LastID != nil:
		key, _ := opts.LastID.MarshalBinary()
		if _, err := s.part.Get(key); err != nil {
			return nil, ErrResumeNotFound
		}
		cursor = key
	case opts.Tail:
		// Start from the current end of the log.
		err := s.part.Scan(nil, true, func(key, _ []byte) (bool, error) {
			cursor = key
			return false, nil
		})
		if err != nil {
			return nil, err
		}
	}

	sub := &Subscription{frames: make(chan *types.Frame, 16)}
	go s.deliver(ctx, sub, cursor, opts.Follow)
	return sub, nil
}

// deliver is the subscription pump. cursor is the key of the last frame
// already accounted for (nil means deliver from the first frame).
func (s *Store) deliver(ctx context.Context, sub *Subscription, cursor []byte, follow bool) {
	defer close(sub.frames)

	emittedThreshold := false
	for {
		// Arm the watcher before scanning so commits landing between the
		// scan and the blocking wait are never missed.
		watch := s.part.Watch()
		if s.part.Closed() {
			return
		}

		batch, next, err := s.scanAfter(cursor)
		if err != nil {
			sub.setErr(err)
			return
		}
		cursor = next

		for _, f := range batch {
			select {
			case sub.frames <- f:
				s.metrics.IncDelivered()
			case <-ctx.Done():
				return
			}
		}
		if len(batch) == scanBatch {
			// More history may remain; scan again before blocking.
			continue
		}

		if !follow {
			return
		}
		if !emittedThreshold {
			sentinel, err := s.thresholdFrame()
			if err != nil {
				sub.setErr(err)
				return
			}
			select {
			case sub.frames <- sentinel:
			case <-ctx.Done():
				return
			}
			emittedThreshold = true
		}

		select {
		case <-watch:
		case <-ctx.Done():
			return
		}
	}
}

// scanAfter collects up to scanBatch frames with keys strictly greater
// than cursor, returning the frames and the new cursor.
func (s *Store) scanAfter(cursor []byte) ([]*types.Frame, []byte, error) {
	var from []byte
	if cursor != nil {
		// Seek is inclusive; a zero-byte suffix is the smallest key
		// strictly greater than cursor.
		from = make([]byte, len(cursor)+1)
		copy(from, cursor)
	}

	batch := make([]*types.Frame, 0, scanBatch)
	next := cursor
	err := s.part.Scan(from, false, func(key, value []byte) (bool, error) {
		f, err := decodeRecord(value)
		if err != nil {
			return false, err
		}
		batch = append(batch, f)
		next = key
		return len(batch) < scanBatch, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return batch, next, nil
}

// thresholdFrame builds the synthetic historical/live boundary frame.
// It carries the hash of the empty payload so its hash resolves like any
// other frame's, but it is never inserted into the partition.
func (s *Store) thresholdFrame() (*types.Frame, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	hash, _, err := s.blobs.Put(nil)
	if err != nil {
		return nil, err
	}
	return &types.Frame{ID: id, Topic: types.TopicThreshold, Hash: hash}, nil
}
