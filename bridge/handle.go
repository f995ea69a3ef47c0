// Package bridge exposes store primitives to the embedded interpreter
// layer.
//
// The interpreter itself is an external collaborator; this package only
// defines the capability surface reactive bodies and scripts call through:
// a Handle wrapping one store, and a Registry of named commands built once
// at startup and passed by value to whoever dispatches scripts. There is
// no package-level command table.
package bridge

import (
	"context"
	"errors"
	"io"

	"github.com/strandhq/strand/store"
	"github.com/strandhq/strand/types"
)

// ErrReservedTopic indicates an append to the threshold-sentinel topic.
// The sentinel is subscription infrastructure; bridge-level producers may
// not write it.
var ErrReservedTopic = errors.New("topic is reserved")

// Handle is the store capability handed to reactive bodies and commands.
type Handle struct {
	store *store.Store
}

// NewHandle wraps a store.
func NewHandle(s *store.Store) *Handle {
	return &Handle{store: s}
}

// Head returns the latest frame for a topic, or nil.
func (h *Handle) Head(topic string) (*types.Frame, error) {
	return h.store.Head(topic)
}

// Get returns the frame with the given id, or nil when absent.
// Absence is an empty result at this surface, not an error.
func (h *Handle) Get(ctx context.Context, id types.FrameID) (*types.Frame, error) {
	f, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrFrameNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// Append writes a new frame. The reserved threshold topic is refused.
func (h *Handle) Append(ctx context.Context, topic string, payload []byte, meta map[string]any) (*types.Frame, error) {
	if topic == types.TopicThreshold {
		return nil, ErrReservedTopic
	}
	return h.store.Append(ctx, topic, payload, meta)
}

// CASGet resolves a payload hash to bytes.
func (h *Handle) CASGet(hash string) ([]byte, error) {
	return h.store.CASGet(hash)
}

// CASPost streams r into the blob store and returns the resulting hash.
func (h *Handle) CASPost(r io.Reader) (string, error) {
	w, err := h.store.CASWriter()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Abort()
		return "", err
	}
	return w.Commit()
}
