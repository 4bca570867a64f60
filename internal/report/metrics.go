package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nosecounter/internal/apperr"
)

// Metrics collects per-run figures in a private registry. Batch runs write them to a
// node-exporter textfile; the MCP server can expose the registry over HTTP.
type Metrics struct {
	Registry *prometheus.Registry

	YearsLoaded       prometheus.Gauge
	ArchiveSkipped    prometheus.Counter
	LiveFetchFailures prometheus.Counter
	ChartsRendered    *prometheus.CounterVec
	GenerateDuration  prometheus.Gauge
	LastSuccess       prometheus.Gauge
}

// NewMetrics registers the run metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		YearsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "nosecounter_years_loaded",
			Help: "Number of convention years in the last generated report.",
		}),
		ArchiveSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "nosecounter_archive_files_skipped_total",
			Help: "Archive files that could not be read, validated or decoded.",
		}),
		LiveFetchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "nosecounter_live_fetch_failures_total",
			Help: "Failed fetches of the live registration statistics.",
		}),
		ChartsRendered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nosecounter_charts_rendered_total",
			Help: "Chart artifacts by outcome (rendered, reused, failed).",
		}, []string{"status"}),
		GenerateDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "nosecounter_generate_duration_seconds",
			Help: "Wall time of the last report generation.",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "nosecounter_last_success_timestamp_seconds",
			Help: "Unix time of the last successful report generation.",
		}),
	}
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return apperr.WithPath(apperr.KindIO, "write metrics", path, err)
	}
	return nil
}

func (m *Metrics) chart(status string) {
	if m == nil {
		return
	}
	m.ChartsRendered.WithLabelValues(status).Inc()
}
