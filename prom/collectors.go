package prom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.LiveSessionsDesc
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.CollectSessions(ch) // Session registry gauge
}

func (e *Exporter) CollectSessions(ch chan<- prometheus.Metric) {
	if e.liveSessions == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(
		e.LiveSessionsDesc,
		prometheus.GaugeValue,
		float64(e.liveSessions()),
	)
}

// HealthHandler reports liveness for the HTTP surface.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
