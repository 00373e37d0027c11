package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insider-graph/internal/graph"
	"insider-graph/internal/index"
	"insider-graph/internal/models"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.ObserveIndex(index.Stats{Events: 6, Acquisitions: 4, Disposals: 1, Ignored: 1})
	r.ObserveBuild(&graph.Result{
		Summary: models.Summary{NodeCount: 3, EdgeCount: 2},
		Stats:   models.BuildStats{Companies: 2, PairsEvaluated: 5, PairsBelowActivity: 2, PairsBelowThreshold: 1},
	}, 1500*time.Millisecond)

	assert.Equal(t, 4.0, testutil.ToFloat64(r.trades.WithLabelValues("acquire")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.trades.WithLabelValues("unknown")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.edges))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.nodes))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.pairs.WithLabelValues("below_activity")))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.duration))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveBuild(&graph.Result{Summary: models.Summary{NodeCount: 2, EdgeCount: 1}}, time.Second)

	path := filepath.Join(t.TempDir(), "textfile", "insidergraph.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "insidergraph_edges 1")
	assert.Contains(t, string(data), "insidergraph_nodes 2")
	assert.Contains(t, string(data), `insidergraph_pairs{outcome="edge"} 1`)
}
