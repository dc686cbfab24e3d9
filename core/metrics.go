package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the pipeline metrics. It is exposed by the schedule command.
var Registry = prometheus.NewRegistry()

var (
	fetchTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "opendxi_fetch_total",
		Help: "External fetches by result (ok, error, rate_limited).",
	}, []string{"result"})

	fetchDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "opendxi_fetch_duration_seconds",
		Help:    "Duration of fetch, group and score for one sprint window.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	cacheLookups = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "opendxi_cache_lookups_total",
		Help: "Sprint store lookups by result (hit, miss).",
	}, []string{"result"})

	persistConflicts = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "opendxi_persist_conflicts_total",
		Help: "Inserts that lost a race and returned the stored record instead.",
	})

	populateInflight = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "opendxi_populate_inflight",
		Help: "Fetches currently running in a batch refresh.",
	})
)
