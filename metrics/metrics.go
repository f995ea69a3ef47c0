// Package metrics provides prometheus instrumentation for the store and
// engine paths.
//
// A Collector owns a local registry constructed at startup; nothing is
// registered globally. All increment methods are nil-receiver safe so
// callers can run uninstrumented (tests, embedded use) without guards.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector accumulates process-wide counters for one engine instance.
type Collector struct {
	registry *prometheus.Registry

	framesAppended  *prometheus.CounterVec
	blobBytes       prometheus.Counter
	blobDedup       prometheus.Counter
	framesDelivered prometheus.Counter
	taskInvocations *prometheus.CounterVec
	taskErrors      *prometheus.CounterVec
	poolWait        prometheus.Histogram
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		framesAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strand_frames_appended_total",
			Help: "Frames appended to the store, by topic.",
		}, []string{"topic"}),
		blobBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_blob_bytes_total",
			Help: "Payload bytes written to the content-addressable store.",
		}),
		blobDedup: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_blob_dedup_total",
			Help: "Appends whose payload was already present in the CAS.",
		}),
		framesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_frames_delivered_total",
			Help: "Frames delivered to subscriptions.",
		}),
		taskInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strand_task_invocations_total",
			Help: "Reactive body invocations, by task.",
		}, []string{"task"}),
		taskErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strand_task_errors_total",
			Help: "Task invocation errors, by task and kind (recoverable|fatal).",
		}, []string{"task", "kind"}),
		poolWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "strand_pool_wait_seconds",
			Help:    "Time spent waiting for a worker-pool slot.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(
		c.framesAppended, c.blobBytes, c.blobDedup, c.framesDelivered,
		c.taskInvocations, c.taskErrors, c.poolWait,
	)
	return c
}

// Handler returns an http.Handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// IncAppended records one appended frame.
func (c *Collector) IncAppended(topic string) {
	if c == nil {
		return
	}
	c.framesAppended.WithLabelValues(topic).Inc()
}

// AddBlobBytes records payload bytes written to the CAS.
func (c *Collector) AddBlobBytes(n int) {
	if c == nil {
		return
	}
	c.blobBytes.Add(float64(n))
}

// IncBlobDedup records a deduplicated payload write.
func (c *Collector) IncBlobDedup() {
	if c == nil {
		return
	}
	c.blobDedup.Inc()
}

// IncDelivered records one frame delivered to a subscription.
func (c *Collector) IncDelivered() {
	if c == nil {
		return
	}
	c.framesDelivered.Inc()
}

// IncInvocation records one reactive body invocation.
func (c *Collector) IncInvocation(task string) {
	if c == nil {
		return
	}
	c.taskInvocations.WithLabelValues(task).Inc()
}

// IncTaskError records an invocation error of the given kind.
func (c *Collector) IncTaskError(task, kind string) {
	if c == nil {
		return
	}
	c.taskErrors.WithLabelValues(task, kind).Inc()
}

// ObservePoolWait records time spent blocked on pool admission.
func (c *Collector) ObservePoolWait(d time.Duration) {
	if c == nil {
		return
	}
	c.poolWait.Observe(d.Seconds())
}
