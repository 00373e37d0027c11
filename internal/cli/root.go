package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"insider-graph/internal/config"
	"insider-graph/internal/logging"
	"insider-graph/internal/trace"
)

// Version information
var (
	Version   = "0.3.0"
	BuildDate = "unknown"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "insidergraph",
		Short: "Build insider co-trading similarity graphs",
		Long: `insidergraph detects pairs of corporate insiders whose trades in the same
company are closely synchronised in time.

Trades are read from CSV, XLSX or an imported SQLite store, grouped by company
and insider, and every eligible pair of insiders is scored with a time-decayed
co-occurrence measure. Pairs scoring at or above the threshold become edges of
the output graph.

Use 'insidergraph help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("config") {
				dir, _ := cmd.Flags().GetString("config")
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.Logger = logging.NewLoggerWithConfig(loaded.Logging())
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			if err := trace.Init(trace.Config{
				Enabled: app.Config.Trace.Enabled,
				Version: Version,
			}); err != nil {
				return err
			}
			if trace.Enabled() {
				app.Logger.Debug().Str("command", cmd.Name()).Msg("Span export enabled")
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: $INSIDERGRAPH_CONFIG_DIR or ~/.config/insider-graph)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newBuildCmd(app))
	rootCmd.AddCommand(newPairCmd(app))
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newSourcesCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("insidergraph v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}
