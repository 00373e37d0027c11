package performance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insider-graph/internal/graph"
	"insider-graph/internal/index"
	"insider-graph/internal/models"
	"insider-graph/internal/similarity"
)

func TestBatchProcessorFlushesFullBatches(t *testing.T) {
	var batches [][]int
	bp := NewBatchProcessor(3, func(items []int) error {
		batches = append(batches, append([]int(nil), items...))
		return nil
	})

	for i := 1; i <= 7; i++ {
		require.NoError(t, bp.Add(i))
	}
	assert.Len(t, batches, 2)

	require.NoError(t, bp.Flush())
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, batches)
	assert.Equal(t, 7, bp.Processed())

	// Flushing an empty batch is a no-op.
	require.NoError(t, bp.Flush())
	assert.Len(t, batches, 3)
}

func TestBatchProcessorPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	bp := NewBatchProcessor(2, func(items []string) error { return boom })

	require.NoError(t, bp.Add("a"))
	assert.ErrorIs(t, bp.Add("b"), boom)
	assert.Zero(t, bp.Processed())
}

func TestBatchProcessorMinimumSize(t *testing.T) {
	calls := 0
	bp := NewBatchProcessor(0, func(items []int) error {
		calls++
		return nil
	})
	require.NoError(t, bp.Add(1))
	assert.Equal(t, 1, calls)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.5 MB", FormatBytes(1536*1024))
}

func TestMemoryStats(t *testing.T) {
	m := MemoryStats()
	assert.Positive(t, m.Sys)
	assert.Positive(t, m.Goroutines)
}

// syntheticEvents builds companies*insiders*trades acquisitions clustered in
// one month.
func syntheticEvents(companies, insiders, trades int) []models.TradeEvent {
	events := make([]models.TradeEvent, 0, companies*insiders*trades)
	for c := 0; c < companies; c++ {
		for i := 0; i < insiders; i++ {
			for k := 0; k < trades; k++ {
				events = append(events, models.TradeEvent{
					Symbol:    fmt.Sprintf("SYM%03d", c),
					Insider:   fmt.Sprintf("insider%02d", i),
					Direction: models.DirectionAcquire,
					Date:      models.Date{Year: 2024, Month: 1, Day: 1 + (i+k)%28},
				})
			}
		}
	}
	return events
}

// BenchmarkPairSimilarity benchmarks scoring a pair with 50 trades each.
func BenchmarkPairSimilarity(b *testing.B) {
	var dates []models.Date
	for i := 0; i < 50; i++ {
		dates = append(dates, models.Date{Year: 2024, Month: 1 + i%12, Day: 1 + i%28})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		similarity.PairSimilarity(dates, dates, dates, dates)
	}
}

// BenchmarkIndexBuild benchmarks indexing 100k events.
func BenchmarkIndexBuild(b *testing.B) {
	events := syntheticEvents(100, 50, 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		index.Build(events)
	}
}

func benchmarkGraphBuild(b *testing.B, workers int) {
	idx := index.Build(syntheticEvents(50, 30, 10))
	cfg := graph.DefaultConfig()
	cfg.Workers = workers
	builder := graph.NewBuilder(cfg, zerolog.Nop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(context.Background(), idx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkGraphBuildSerial benchmarks a single-worker build.
func BenchmarkGraphBuildSerial(b *testing.B) { benchmarkGraphBuild(b, 1) }

// BenchmarkGraphBuildParallel benchmarks a build with one worker per CPU.
func BenchmarkGraphBuildParallel(b *testing.B) { benchmarkGraphBuild(b, 0) }
