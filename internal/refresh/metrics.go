package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "spotlightd",
		Name:      "refresh_cycle_duration_seconds",
		Help:      "Time (in seconds) spent on one refresh cycle.",
		Buckets:   prometheus.DefBuckets,
	})
	cycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotlightd",
		Name:      "refresh_cycles_total",
		Help:      "Refresh cycles by outcome.",
	}, []string{"outcome"})
	assetDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotlightd",
		Name:      "asset_downloads_total",
		Help:      "Asset download attempts by result.",
	}, []string{"result"})
	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotlightd",
		Name:      "cache_entries",
		Help:      "Entries in the current cache snapshot.",
	})
)
