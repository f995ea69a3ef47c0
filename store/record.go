// Package store implements the frame store: an append-only, topic-indexed
// event log composing the ordered partition with the content-addressable
// payload store.
package store

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/strandhq/strand/types"
)

// recordVersion is the current on-disk record format version.
// Bumped when the record shape changes incompatibly.
const recordVersion = 1

// frameRecord is the serialized partition value for one frame.
// Payload bytes live in the CAS; the record carries only the reference.
type frameRecord struct {
	V     int            `msgpack:"v"`
	ID    types.FrameID  `msgpack:"id"`
	Topic string         `msgpack:"topic"`
	Hash  string         `msgpack:"hash"`
	Meta  map[string]any `msgpack:"meta,omitempty"`
}

// RecordErrorKind classifies record decoding errors.
type RecordErrorKind int

const (
	// RecordErrorDecode indicates a msgpack decoding failure.
	RecordErrorDecode RecordErrorKind = iota
	// RecordErrorVersion indicates an unsupported record version.
	RecordErrorVersion
)

// RecordError represents a record decoding error. Any RecordError means
// the partition holds bytes this build cannot interpret, which is fatal
// to the read that encountered it.
type RecordError struct {
	Kind RecordErrorKind
	Msg  string
	Err  error
}

func (e *RecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// encodeRecord serializes a frame for the partition.
func encodeRecord(f *types.Frame) ([]byte, error) {
	rec := frameRecord{
		V:     recordVersion,
		ID:    f.ID,
		Topic: f.Topic,
		Hash:  f.Hash,
		Meta:  f.Meta,
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, &RecordError{Kind: RecordErrorDecode, Msg: "failed to encode frame record", Err: err}
	}
	return data, nil
}

// decodeRecord deserializes a partition value into a frame.
func decodeRecord(value []byte) (*types.Frame, error) {
	var rec frameRecord
	if err := msgpack.Unmarshal(value, &rec); err != nil {
		return nil, &RecordError{Kind: RecordErrorDecode, Msg: "failed to decode frame record", Err: err}
	}
	if rec.V != recordVersion {
		return nil, &RecordError{
			Kind: RecordErrorVersion,
			Msg:  fmt.Sprintf("unsupported record version %d (have %d)", rec.V, recordVersion),
		}
	}
	return &types.Frame{ID: rec.ID, Topic: rec.Topic, Hash: rec.Hash, Meta: rec.Meta}, nil
}
