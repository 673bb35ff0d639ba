// Package metrics exposes the Prometheus counters for the event listener (spec.md §5, §9
// "Observability"). It mirrors kstaniek-go-ampio-server's internal/metrics package: package-level
// promauto counters plus atomic local mirrors so callers can log a cheap snapshot without
// scraping the registry in-process.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	EventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uhppote_listener_events_received_total",
		Help: "Total well-formed event frames delivered to the handler.",
	})
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uhppote_listener_frames_dropped_total",
		Help: "Total UDP datagrams discarded because they were not a 64 byte frame.",
	})
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uhppote_listener_decode_errors_total",
		Help: "Total frames that failed to decode as an event.",
	})
	BindErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uhppote_listener_bind_errors_total",
		Help: "Total failures to bind the listener's UDP socket.",
	})
	DispatchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uhppote_dispatch_errors_total",
		Help: "Dispatcher call failures by error kind.",
	}, []string{"kind"})
)

var (
	localEventsReceived uint64
	localFramesDropped  uint64
	localDecodeErrors   uint64
)

// Snapshot is a cheap copy of the local counters, for logging without touching the registry.
type Snapshot struct {
	EventsReceived uint64
	FramesDropped  uint64
	DecodeErrors   uint64
}

func Snap() Snapshot {
	return Snapshot{
		EventsReceived: atomic.LoadUint64(&localEventsReceived),
		FramesDropped:  atomic.LoadUint64(&localFramesDropped),
		DecodeErrors:   atomic.LoadUint64(&localDecodeErrors),
	}
}

func IncEventsReceived() {
	EventsReceived.Inc()
	atomic.AddUint64(&localEventsReceived, 1)
}

func IncFramesDropped() {
	FramesDropped.Inc()
	atomic.AddUint64(&localFramesDropped, 1)
}

func IncDecodeErrors() {
	DecodeErrors.Inc()
	atomic.AddUint64(&localDecodeErrors, 1)
}

func IncBindErrors() {
	BindErrors.Inc()
}

// IncDispatchError increments the dispatch error counter for the given error kind label.
func IncDispatchError(kind string) {
	DispatchErrors.WithLabelValues(kind).Inc()
}

// StartHTTP serves Prometheus metrics at /metrics on addr. Callers that embed the listener in a
// longer-running process can use this; cmd/uhppote-listen does not start it by default.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logrus.WithField("addr", addr).Info("metrics: listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("metrics: http server stopped")
		}
	}()
	return srv
}
