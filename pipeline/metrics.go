package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blogroll_build_duration_seconds",
		Help: "Duration of the last build",
	})

	buildLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blogroll_build_last_success_timestamp_seconds",
		Help: "Unix time of the last successful build",
	})

	buildSources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blogroll_build_sources",
		Help: "Sources in the last build by state",
	}, []string{"state"})

	buildEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blogroll_build_entries",
		Help: "Entries in the aggregated feed of the last build",
	})
)
