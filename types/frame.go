// Package types defines core domain types for the strand frame store.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"fmt"

	"github.com/google/uuid"
)

// TopicThreshold is the reserved topic of the threshold sentinel frame.
// A subscription running with follow emits exactly one frame with this
// topic at the boundary between replayed history and the live tail.
// Application producers must never append to it.
const TopicThreshold = "xs.threshold"

// FrameID is the unique identifier of a frame: a UUIDv7, so ids are
// time-ordered and sort correctly as raw bytes. Allocation happens inside
// the store's append critical section, which makes ids strictly increasing
// in commit order.
type FrameID = uuid.UUID

// ParseFrameID parses the canonical string form of a frame id.
func ParseFrameID(s string) (FrameID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid frame id %q: %w", s, err)
	}
	return id, nil
}

// Frame is one immutable entry of the log.
//
// The partition is the source of truth for existence and ordering; Hash
// references payload bytes held by the content-addressable store. A frame
// visible to readers always has a resolvable hash: the payload is written
// before the index entry.
type Frame struct {
	// ID is the partition key. Immutable once assigned.
	ID FrameID `msgpack:"id" json:"id"`
	// Topic categorizes the event stream. Every frame exposed to readers
	// carries a topic.
	Topic string `msgpack:"topic" json:"topic"`
	// Hash is the hex-encoded sha256 of the payload bytes.
	Hash string `msgpack:"hash" json:"hash"`
	// Meta is optional caller-supplied metadata stored alongside the frame.
	Meta map[string]any `msgpack:"meta,omitempty" json:"meta,omitempty"`
}

// KeyBytes returns the binary-sortable partition key for this frame.
func (f *Frame) KeyBytes() []byte {
	b := f.ID // copy; MarshalBinary on uuid.UUID never fails
	raw, _ := b.MarshalBinary()
	return raw
}

// IsThreshold reports whether this frame is the threshold sentinel.
func (f *Frame) IsThreshold() bool {
	return f.Topic == TopicThreshold
}

// ReadOptions control a Read subscription.
type ReadOptions struct {
	// Follow keeps the subscription open after existing frames are
	// exhausted, delivering new frames as they are appended. The
	// subscription only ends on consumer cancellation.
	Follow bool
	// Tail skips all existing history and delivers only frames appended
	// after the read begins.
	Tail bool
	// LastID, when set, resumes delivery strictly after this id
	// (exclusive). The frame with this id is never redelivered.
	LastID *FrameID
}
