package cli

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"insider-graph/internal/logging"
	"insider-graph/internal/store"
	"insider-graph/internal/tradeio"
)

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import trade records into the SQLite store",
		Long: `Load trade records from CSV or XLSX into the local SQLite store so that
large inputs can be scored repeatedly with 'insidergraph build -i <db>'.

Each import is tagged with a source name (the input file name by default).
--replace swaps out the earlier rows of the same source in a single
transaction; if the import fails the earlier rows are kept.`,
		Example: `  insidergraph import -i trades_by_day.csv
  insidergraph import -i q2.xlsx --db ./trades.db --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg, err := applyFlags(cmd, app.Config)
			if err != nil {
				return err
			}

			source, _ := cmd.Flags().GetString("source")
			if source == "" {
				source = filepath.Base(cfg.Input.Path)
			}
			replace, _ := cmd.Flags().GetBool("replace")
			logger := logging.WithOperation(app.Logger, "import")

			ctx := logging.WithLogger(cmd.Context(), logger)
			start := time.Now()
			events, stats, err := tradeio.Open(ctx, cfg.Input.Path, cfg.Reader())
			if err != nil {
				return err
			}
			logging.LogStage(logger, "read", len(events), time.Since(start))

			s, err := store.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer s.Close()

			var removed, n int
			start = time.Now()
			if replace {
				removed, n, err = s.ReplaceTrades(cmd.Context(), source, events)
			} else {
				n, err = s.ImportTrades(cmd.Context(), source, events)
			}
			if err != nil {
				return err
			}
			logging.LogStage(logger, "import", n, time.Since(start))

			total, err := s.CountTrades(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"source":   source,
					"database": cfg.Store.Path,
					"imported": n,
					"replaced": removed,
					"total":    total,
					"read":     stats,
				})
			}

			output.Success("✓ Imported %s trades from %s", FormatCount(n), source)
			if removed > 0 {
				output.Info("  Replaced:  %s rows", FormatCount(removed))
			}
			if stats.DroppedRows > 0 {
				output.Warning("  Dropped:   %s rows", FormatCount(stats.DroppedRows))
			}
			output.Printf("  Database:  %s (%s trades)\n", cfg.Store.Path, FormatCount(total))
			return nil
		},
	}

	addInputFlags(cmd)
	cmd.Flags().String("db", "", "SQLite store path (default: store.path)")
	cmd.Flags().String("source", "", "source name recorded with the rows (default: input file name)")
	cmd.Flags().Bool("replace", false, "replace rows previously imported from the same source")

	return cmd
}

const maxSourceWidth = 48

func newSourcesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List or remove inputs imported into the SQLite store",
		Example: `  insidergraph sources --db ./trades.db
  insidergraph sources --db ./trades.db --remove q1.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg, err := applyFlags(cmd, app.Config)
			if err != nil {
				return err
			}

			s, err := store.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer s.Close()

			if remove, _ := cmd.Flags().GetString("remove"); remove != "" {
				n, err := s.DeleteSource(cmd.Context(), remove)
				if err != nil {
					return err
				}
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{"source": remove, "removed": n})
				}
				if n == 0 {
					output.Warning("No rows imported from %s", remove)
					return nil
				}
				output.Success("✓ Removed %s trades imported from %s", FormatCount(n), remove)
				return nil
			}

			sources, err := s.Sources(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(sources)
			}
			if len(sources) == 0 {
				output.Dim("No imported sources in %s", cfg.Store.Path)
				return nil
			}

			table := NewTable(output, "SOURCE", "TRADES", "IMPORTED")
			for _, src := range sources {
				table.AddRow(TruncateString(src.Source, maxSourceWidth), FormatCount(src.Trades), src.ImportedAt.Format(time.RFC3339))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("db", "", "SQLite store path (default: store.path)")
	cmd.Flags().String("remove", "", "delete every trade imported from this source")
	return cmd
}
