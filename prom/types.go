package prom

import (
	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "sheetboard"

// Call and error counters, bumped from concurrent request goroutines across
// sessions. Prometheus counters are safe for that; register them in main.
var (
	APICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "status",
			Name:      "api_calls",
			Help:      "Count of API calls",
		},
		[]string{"type"},
	)
	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "status",
			Name:      "api_errors",
			Help:      "Count of API Errors",
		},
		[]string{"type"},
	)
	AppliedPatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "predictions",
			Name:      "applied_patches",
			Help:      "Count of prediction patches applied to ledgers",
		},
	)
	ProgramErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "status",
			Name:      "program_errors",
			Help:      "Count of internal errors",
		},
	)
)

// Exporter carries the scrape-time gauges that cannot be plain counters.
type Exporter struct {
	LiveSessionsDesc *prometheus.Desc
	liveSessions     func() int
}

// NewExporter builds the workboard exporter. liveSessions reports the
// current session-registry size; nil means the gauge is omitted.
func NewExporter(namespace string, liveSessions func() int) *Exporter {
	return &Exporter{
		LiveSessionsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(
				namespace,
				"sessions",
				"live",
			),
			"Number of live workboard sessions",
			[]string{},
			nil,
		),
		liveSessions: liveSessions,
	}
}
