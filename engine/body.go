// Package engine supervises reactive tasks over frame subscriptions.
//
// An Engine owns one bounded worker pool shared by every task it spawns.
// Each task binds a subscription to a reactive body: frames are submitted
// to the pool in delivery order, invocations may interleave across tasks,
// and saturation blocks submission rather than dropping work.
package engine

import (
	"context"
	"errors"

	"github.com/strandhq/strand/bridge"
	"github.com/strandhq/strand/cas"
	"github.com/strandhq/strand/store"
	"github.com/strandhq/strand/types"
)

// Body is the capability interface for a reactive task body: given a frame
// and a store handle, produce effects. Bodies never self-schedule; the
// supervisor owns all invocation.
type Body interface {
	Invoke(ctx context.Context, frame *types.Frame, handle *bridge.Handle) error
}

// BodyFunc adapts a function to the Body interface.
type BodyFunc func(ctx context.Context, frame *types.Frame, handle *bridge.Handle) error

// Invoke calls the function.
func (fn BodyFunc) Invoke(ctx context.Context, frame *types.Frame, handle *bridge.Handle) error {
	return fn(ctx, frame, handle)
}

// fatalError marks an invocation error as unrecoverable.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string {
	return "fatal: " + e.err.Error()
}

func (e *fatalError) Unwrap() error {
	return e.err
}

// Fatal marks err as unrecoverable: the supervisor stops the task with
// StopError instead of continuing to the next frame. This is the explicit
// classification point for reactive bodies; errors not wrapped with Fatal
// and not recognized as storage failures are treated as per-event.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err stops the task.
//
// Fatal-wrapped errors and storage-layer failures (store closed, CAS I/O)
// qualify; a CAS not-found is a per-event condition and does not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fe *fatalError
	if errors.As(err, &fe) {
		return true
	}
	if errors.Is(err, store.ErrStoreClosed) {
		return true
	}
	var se *cas.StorageError
	if errors.As(err, &se) {
		return !errors.Is(se.Kind, cas.ErrNotFound)
	}
	return false
}
