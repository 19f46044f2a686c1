// Package telemetry registers the Prometheus metrics exported on /metrics.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Relay counters
	PushesAccepted     prometheus.Counter
	PushesRejected     prometheus.Counter
	Reads              prometheus.Counter
	StaleReads         prometheus.Counter
	RedirectsArmed     prometheus.Counter
	RedirectsDelivered prometheus.Counter

	// Sync driver counters
	ResolverMoves prometheus.Counter
	FeedFetches   prometheus.Counter
	FeedErrors    prometheus.Counter
)

// Init registers all metrics. Idempotent.
func Init() {
	once.Do(func() {
		PushesAccepted = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_pushes_accepted_total", Help: "Timestamp pushes accepted by the relay"})
		PushesRejected = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_pushes_rejected_total", Help: "Timestamp pushes rejected as invalid"})
		Reads = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_reads_total", Help: "Successful reads of the latest timestamp"})
		StaleReads = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_stale_reads_total", Help: "Reads that returned a staleness warning"})
		RedirectsArmed = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_redirects_armed_total", Help: "Redirect instructions stored"})
		RedirectsDelivered = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_redirects_delivered_total", Help: "Redirect instructions delivered to the producer"})
		ResolverMoves = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_resolver_moves_total", Help: "Move actions issued by the sync driver"})
		FeedFetches = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_feed_fetches_total", Help: "Message feed fetches"})
		FeedErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "ytsync_feed_errors_total", Help: "Message feed fetch failures"})
	})
}

// inc is a nil-safe increment so library code can run without Init in tests.
func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

func IncPushAccepted()      { inc(PushesAccepted) }
func IncPushRejected()      { inc(PushesRejected) }
func IncRead()              { inc(Reads) }
func IncStaleRead()         { inc(StaleReads) }
func IncRedirectArmed()     { inc(RedirectsArmed) }
func IncRedirectDelivered() { inc(RedirectsDelivered) }
func IncResolverMove()      { inc(ResolverMoves) }
func IncFeedFetch()         { inc(FeedFetches) }
func IncFeedError()         { inc(FeedErrors) }
