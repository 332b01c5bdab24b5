package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the conversion service's prometheus collectors.
type Metrics struct {
	Conversions       prometheus.Counter
	ProcessingTime    prometheus.Histogram
	DroppedLines      prometheus.Counter
	DegradedDurations prometheus.Counter
	UnmatchedMetadata prometheus.Counter
	LookupCalls       *prometheus.CounterVec
	ErrorsCount       *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg uses a fresh
// private registry, which keeps tests independent of each other.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		Conversions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "The total number of booking codes converted",
		}),
		ProcessingTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time taken to convert one booking code",
			Buckets:   prometheus.DefBuckets,
		}),
		DroppedLines: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_lines_total",
			Help:      "Flight-like lines skipped as unparsable",
		}),
		DegradedDurations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_durations_total",
			Help:      "Segments whose flight time could not be computed",
		}),
		UnmatchedMetadata: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmatched_metadata_total",
			Help:      "Passport or ticket values not attached to a passenger",
		}),
		LookupCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "airport_lookups_total",
			Help:      "Airport resolutions by the layer that answered",
		}, []string{"source"}),
		ErrorsCount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
