// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "livefeed"
)

var (
	// 100us -> 1s
	rankingBuckets = []float64{
		0.0001, 0.0002, 0.0005, 0.001, 0.002, 0.005, 0.010, 0.025, 0.050,
		0.1, 0.25, 0.5, 1.0,
	}

	feedEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "feed_events_total",
		Help:      "Number of events accepted from contest feeds",
	}, []string{"feed", "type"})

	decodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "decode_errors_total",
		Help:      "Number of malformed feed lines dropped",
	}, []string{"feed"})

	eventErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "event_errors_total",
		Help:      "Number of feed events rejected by the contest model",
	}, []string{"type"})

	reconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "feed_reconnects_total",
		Help:      "Number of feed adapter restarts after a failure",
	})

	updatesEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "updates_emitted_total",
		Help:      "Number of contest updates emitted by feed adapters",
	}, []string{"kind"})

	rankingTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "ranking_recompute_seconds",
		Help:      "Histogram for the full ranking recomputation time",
		Buckets:   rankingBuckets,
	})

	published = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "messages_published_total",
		Help:      "Number of messages sent to the broker, by channel and outcome",
	}, []string{"channel", "status"})

	scoreboardTeams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "scoreboard_teams",
		Help:      "Number of teams on the current scoreboard",
	})
)

func init() {
	prometheus.MustRegister(feedEvents, decodeErrors, eventErrors, reconnects)
	prometheus.MustRegister(updatesEmitted, published)
	prometheus.MustRegister(rankingTime, scoreboardTeams)
}

// FeedEvent counts an accepted feed event.
func FeedEvent(feed, eventType string) {
	feedEvents.WithLabelValues(feed, eventType).Inc()
}

// DecodeError counts a dropped malformed line.
func DecodeError(feed string) {
	decodeErrors.WithLabelValues(feed).Inc()
}

// EventError counts an event the model rejected.
func EventError(eventType string) {
	eventErrors.WithLabelValues(eventType).Inc()
}

// Reconnect counts an adapter restart.
func Reconnect() {
	reconnects.Inc()
}

// UpdateEmitted counts an emitted contest update of the given kind.
func UpdateEmitted(kind string) {
	updatesEmitted.WithLabelValues(kind).Inc()
}

// RankingObserve records a ranking recomputation.
func RankingObserve(d time.Duration, teams int) {
	rankingTime.Observe(d.Seconds())
	scoreboardTeams.Set(float64(teams))
}

// Published counts a broker publish attempt.
func Published(channel string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	published.WithLabelValues(channel, status).Inc()
}
