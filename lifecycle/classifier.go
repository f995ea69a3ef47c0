// Package lifecycle tags subscription frames as historical or live.
//
// The classifier is a strict one-shot state machine over the threshold
// sentinel: everything delivered before the sentinel is Historical, the
// sentinel itself is Threshold (emitted exactly once), everything after is
// Live. A subscription that never produces the sentinel classifies every
// frame Historical; that is a valid terminal condition, not an error.
package lifecycle

import (
	"context"

	"github.com/strandhq/strand/store"
	"github.com/strandhq/strand/types"
)

// Classifier wraps a subscription and relabels its frames.
// Delivery order is preserved exactly. Not safe for concurrent Recv calls.
type Classifier struct {
	sub           *store.Subscription
	pastThreshold bool
}

// NewClassifier wraps a subscription.
func NewClassifier(sub *store.Subscription) *Classifier {
	return &Classifier{sub: sub}
}

// Recv blocks until the next frame is available and returns it tagged.
// The second return is false when the upstream subscription has closed or
// ctx is cancelled.
func (c *Classifier) Recv(ctx context.Context) (*types.Lifecycle, bool) {
	select {
	case f, ok := <-c.sub.Frames():
		if !ok {
			return nil, false
		}
		return c.classify(f), true
	case <-ctx.Done():
		return nil, false
	}
}

// Err reports the upstream subscription's terminal error, if any.
func (c *Classifier) Err() error {
	return c.sub.Err()
}

func (c *Classifier) classify(f *types.Frame) *types.Lifecycle {
	if !c.pastThreshold {
		if f.IsThreshold() {
			c.pastThreshold = true
			return &types.Lifecycle{Tag: types.TagThreshold, Frame: f}
		}
		return &types.Lifecycle{Tag: types.TagHistorical, Frame: f}
	}
	return &types.Lifecycle{Tag: types.TagLive, Frame: f}
}
