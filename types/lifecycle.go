package types

// LifecycleTag classifies a delivered frame relative to the threshold
// sentinel of its subscription.
type LifecycleTag string

const (
	// TagHistorical marks a frame delivered before the sentinel.
	TagHistorical LifecycleTag = "historical"
	// TagThreshold marks the sentinel frame itself. Emitted exactly once
	// per subscription.
	TagThreshold LifecycleTag = "threshold"
	// TagLive marks a frame delivered after the sentinel.
	TagLive LifecycleTag = "live"
)

// Lifecycle pairs a frame with its classification. Derived per
// subscription, never stored.
type Lifecycle struct {
	Tag   LifecycleTag `json:"tag"`
	Frame *Frame       `json:"frame"`
}

// IsLive reports whether the frame arrived after the threshold sentinel.
func (l *Lifecycle) IsLive() bool {
	return l.Tag == TagLive
}
