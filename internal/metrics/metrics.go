// Package metrics records run metrics in the node_exporter textfile format.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/graph"
	"insider-graph/internal/index"
)

const namespace = "insidergraph"

// Recorder holds the gauges of a single run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	trades    *prometheus.GaugeVec
	pairs     *prometheus.GaugeVec
	edges     prometheus.Gauge
	nodes     prometheus.Gauge
	companies prometheus.Gauge
	duration  prometheus.Gauge
	lastRun   prometheus.Gauge
}

// NewRecorder creates a Recorder with every gauge registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		trades: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Trade events indexed in the last run, by direction.",
		}, []string{"direction"}),
		pairs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pairs",
			Help:      "Insider pairs evaluated in the last run, by outcome.",
		}, []string{"outcome"}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "edges",
			Help:      "Edges emitted in the last run.",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Distinct insiders with at least one edge in the last run.",
		}),
		companies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "companies",
			Help:      "Companies scored in the last run.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of the last graph build.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}

	r.registry.MustRegister(r.trades, r.pairs, r.edges, r.nodes, r.companies, r.duration, r.lastRun)
	return r
}

// ObserveIndex records the indexed trade counts.
func (r *Recorder) ObserveIndex(stats index.Stats) {
	r.trades.WithLabelValues("acquire").Set(float64(stats.Acquisitions))
	r.trades.WithLabelValues("dispose").Set(float64(stats.Disposals))
	r.trades.WithLabelValues("unknown").Set(float64(stats.Ignored))
}

// ObserveBuild records the graph size and pair outcomes.
func (r *Recorder) ObserveBuild(res *graph.Result, elapsed time.Duration) {
	r.edges.Set(float64(res.Summary.EdgeCount))
	r.nodes.Set(float64(res.Summary.NodeCount))
	r.companies.Set(float64(res.Stats.Companies))
	r.duration.Set(elapsed.Seconds())

	r.pairs.WithLabelValues("edge").Set(float64(res.Summary.EdgeCount))
	r.pairs.WithLabelValues("below_activity").Set(float64(res.Stats.PairsBelowActivity))
	r.pairs.WithLabelValues("below_threshold").Set(float64(res.Stats.PairsBelowThreshold))
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile writes every gauge to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.Wrapf(apperrors.ErrOutputUnwritable, "create %s: %v", dir, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return apperrors.Wrapf(apperrors.ErrOutputUnwritable, "write metrics %s: %v", path, err)
	}
	return nil
}
