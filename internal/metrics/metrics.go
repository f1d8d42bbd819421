package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinted_monitor_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vinted_monitor_cycle_duration_seconds",
			Help:    "Duration of each monitoring cycle in seconds.",
			Buckets: []float64{10, 30, 60, 120, 300, 600},
		},
	)
	SearchDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "vinted_monitor_search_duration_seconds",
			Help:       "Duration of processing a single search.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"search"},
	)
	ListingsExtractedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinted_monitor_listings_extracted_total",
			Help: "Total number of listings extracted from search pages.",
		},
		[]string{"search"},
	)
	NewListingsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinted_monitor_listings_new_total",
			Help: "Total number of listings seen for the first time.",
		},
		[]string{"search"},
	)
	NotificationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinted_monitor_notifications_total",
			Help: "Notification attempts per channel and result.",
		},
		[]string{"channel", "result"},
	)
	RejectedByAiCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vinted_monitor_listings_ai_rejected_total",
			Help: "Total number of new listings the relevance filter rejected.",
		},
	)
	SeenListingsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vinted_monitor_seen_listings",
			Help: "Number of listing ids in the seen set.",
		},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ErrorsCounter,
			CycleDuration,
			SearchDuration,
			ListingsExtractedCounter,
			NewListingsCounter,
			NotificationsCounter,
			RejectedByAiCounter,
			SeenListingsGauge,
		)
	})
}
