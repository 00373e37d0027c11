package cli

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"insider-graph/internal/config"
	"insider-graph/internal/graph"
	"insider-graph/internal/index"
	"insider-graph/internal/logging"
	"insider-graph/internal/metrics"
	"insider-graph/internal/models"
	"insider-graph/internal/performance"
	"insider-graph/internal/tradeio"
	"insider-graph/internal/trace"
)

// BuildReport is the JSON form of a build result.
type BuildReport struct {
	RunID      string            `json:"run_id"`
	Input      string            `json:"input"`
	Output     string            `json:"output"`
	Summary    models.Summary    `json:"summary"`
	Stats      models.BuildStats `json:"stats"`
	Read       tradeio.ReadStats `json:"read"`
	Index      index.Stats       `json:"index"`
	DurationMS int64             `json:"duration_ms"`
	TraceID    string            `json:"trace_id,omitempty"`
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "trade records (CSV, XLSX or SQLite store)")
	cmd.Flags().String("format", "", "input format: auto, csv, xlsx, sqlite")
	cmd.Flags().String("delimiter", "", "CSV field delimiter")
	cmd.Flags().String("sheet", "", "XLSX sheet name (default: first sheet)")
}

func addGraphFlags(cmd *cobra.Command) {
	cmd.Flags().Int("min-trades", 0, "minimum buy+sell trades per insider (h_z)")
	cmd.Flags().Float64("threshold", 0, "minimum similarity for an edge (h_m)")
	cmd.Flags().String("scope", "", "companies to score: buy or all")
	cmd.Flags().Int("workers", 0, "companies scored concurrently (0 = one per CPU)")
}

// applyFlags overlays the flags the user set onto a copy of the loaded
// configuration and validates the result.
func applyFlags(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	cfg := *base
	f := cmd.Flags()

	if f.Lookup("input") != nil && f.Changed("input") {
		cfg.Input.Path, _ = f.GetString("input")
	}
	if f.Lookup("format") != nil && f.Changed("format") {
		cfg.Input.Format, _ = f.GetString("format")
	}
	if f.Lookup("delimiter") != nil && f.Changed("delimiter") {
		cfg.Input.Delimiter, _ = f.GetString("delimiter")
	}
	if f.Lookup("sheet") != nil && f.Changed("sheet") {
		cfg.Input.Sheet, _ = f.GetString("sheet")
	}
	if f.Lookup("output") != nil && f.Changed("output") {
		cfg.Output.Path, _ = f.GetString("output")
	}
	if f.Lookup("metrics-file") != nil && f.Changed("metrics-file") {
		cfg.Output.MetricsFile, _ = f.GetString("metrics-file")
	}
	if f.Lookup("min-trades") != nil && f.Changed("min-trades") {
		cfg.Graph.MinTrades, _ = f.GetInt("min-trades")
	}
	if f.Lookup("threshold") != nil && f.Changed("threshold") {
		cfg.Graph.SimilarityThreshold, _ = f.GetFloat64("threshold")
	}
	if f.Lookup("scope") != nil && f.Changed("scope") {
		cfg.Graph.CompanyScope, _ = f.GetString("scope")
	}
	if f.Lookup("workers") != nil && f.Changed("workers") {
		cfg.Graph.Workers, _ = f.GetInt("workers")
	}
	if f.Lookup("db") != nil && f.Changed("db") {
		cfg.Store.Path, _ = f.GetString("db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadIndex reads the configured input and indexes it.
func loadIndex(ctx context.Context, logger zerolog.Logger, cfg *config.Config) (*index.TradeIndex, tradeio.ReadStats, error) {
	start := time.Now()
	events, stats, err := tradeio.Open(ctx, cfg.Input.Path, cfg.Reader())
	if err != nil {
		return nil, stats, err
	}
	logging.LogStage(logger, "read", len(events), time.Since(start))
	if stats.DroppedRows > 0 {
		logger.Warn().
			Int("short_rows", stats.ShortRows).
			Int("dropped", stats.DroppedRows).
			Msg("Input rows dropped")
	}

	_, span := trace.StartSpan(ctx, "index", attribute.Int("events", len(events)))
	start = time.Now()
	idx := index.Build(events)
	span.End()
	logging.LogStage(logger, "index", idx.Stats().Events, time.Since(start))

	return idx, stats, nil
}

func newBuildCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the insider similarity graph",
		Long: `Read trade records, score every eligible insider pair per company and
write the edges whose similarity reaches the threshold.

The edge list is written as CSV with the header source,target,company,similarity.`,
		Example: `  insidergraph build
  insidergraph build -i trades_by_day.csv -o edges.csv --min-trades 5 --threshold 2
  insidergraph build -i trades.db --scope all --metrics-file /var/lib/node_exporter/insidergraph.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := applyFlags(cmd, app.Config)
			if err != nil {
				return err
			}
			return runBuild(cmd, app, cfg)
		},
	}

	addInputFlags(cmd)
	addGraphFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "edge list destination")
	cmd.Flags().String("metrics-file", "", "write run metrics to this Prometheus textfile")

	return cmd
}

func runBuild(cmd *cobra.Command, app *App, cfg *config.Config) error {
	output := NewOutput(cmd)
	runID := uuid.NewString()
	logger := logging.WithRun(app.Logger, runID)
	start := time.Now()

	ctx, span := trace.StartSpan(cmd.Context(), "build",
		attribute.String("run_id", runID),
		attribute.String("input", cfg.Input.Path),
	)
	defer span.End()
	ctx = logging.WithLogger(ctx, logger)

	logger.Info().
		Str("input", cfg.Input.Path).
		Int("min_trades", cfg.Graph.MinTrades).
		Float64("threshold", cfg.Graph.SimilarityThreshold).
		Str("scope", cfg.Graph.CompanyScope).
		Msg("Starting build")

	idx, readStats, err := loadIndex(ctx, logger, cfg)
	if err != nil {
		return err
	}

	buildStart := time.Now()
	res, err := graph.NewBuilder(cfg.Builder(), logger).Build(ctx, idx)
	if err != nil {
		return err
	}
	buildElapsed := time.Since(buildStart)

	_, writeSpan := trace.StartSpan(ctx, "write_edges", attribute.Int("edges", len(res.Edges)))
	err = tradeio.WriteEdgesFile(cfg.Output.Path, res.Edges)
	writeSpan.End()
	if err != nil {
		return err
	}

	if cfg.Output.MetricsFile != "" {
		rec := metrics.NewRecorder()
		rec.ObserveIndex(idx.Stats())
		rec.ObserveBuild(res, buildElapsed)
		if err := rec.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return err
		}
		logger.Debug().Str("path", cfg.Output.MetricsFile).Msg("Metrics written")
	}

	mem := performance.MemoryStats()
	logger.Debug().
		Str("heap_inuse", performance.FormatBytes(mem.HeapInuse)).
		Uint32("gc", mem.NumGC).
		Msg("Memory")

	elapsed := time.Since(start)
	if output.IsJSON() {
		report := BuildReport{
			RunID:      runID,
			Input:      cfg.Input.Path,
			Output:     cfg.Output.Path,
			Summary:    res.Summary,
			Stats:      res.Stats,
			Read:       readStats,
			Index:      idx.Stats(),
			DurationMS: elapsed.Milliseconds(),
		}
		report.TraceID, _ = trace.TraceID(ctx)
		return output.JSON(report)
	}

	printSummary(output, res, cfg.Output.Path)
	if res.Stats.SellOnlyCompaniesSkipped > 0 {
		output.Warning("%s companies with disposals only were skipped (use --scope all to include them)",
			FormatCount(res.Stats.SellOnlyCompaniesSkipped))
	}
	output.Dim("Read %s trades, scored %s pairs across %s companies in %s",
		FormatCount(readStats.Events),
		FormatCount(res.Stats.PairsEvaluated),
		FormatCount(res.Stats.Companies),
		FormatDuration(elapsed))
	return nil
}

// printSummary prints the console report of a finished build.
func printSummary(output *Output, res *graph.Result, outPath string) {
	output.Success("✓ Network construction complete")
	output.Printf("  Similarity threshold (h_m):       %s\n", FormatThreshold(res.Summary.Threshold))
	output.Printf("  Minimum trades per insider (h_z): %d\n", res.Summary.MinTrades)
	output.Printf("  Number of nodes:                  %s\n", FormatCount(res.Summary.NodeCount))
	output.Printf("  Number of edges:                  %s\n", FormatCount(res.Summary.EdgeCount))
	output.Printf("  Edges written to:                 %s\n", outPath)
}
