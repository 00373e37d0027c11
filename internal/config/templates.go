package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# insider-graph configuration
#
# Every key can be overridden with an environment variable named
# INSIDERGRAPH_<SECTION>_<KEY>, e.g. INSIDERGRAPH_GRAPH_MIN_TRADES=3.

[graph]
# Minimum buy+sell trades an insider needs in a company to be paired (h_z)
min_trades = 5
# Minimum similarity for an edge (h_m)
similarity_threshold = 2.0
# Companies to score: "buy" (companies with at least one acquisition) or "all"
company_scope = "buy"
# Companies scored concurrently; 0 uses one worker per CPU
workers = 0

[input]
# Trade records: symbol, insider, direction code (A/D), date (YYYY-MM-DD)
path = "trades_by_day.csv"
# Reader: "auto", "csv", "xlsx" or "sqlite"
format = "auto"
delimiter = ","
# XLSX sheet name; empty reads the first sheet
sheet = ""

[output]
path = "edges.csv"
# Prometheus textfile written after each build; empty disables it
metrics_file = ""

[store]
# SQLite database used by "insidergraph import"
# path = "~/.config/insider-graph/trades.db"

[log]
# Level: debug, info, warn, error
level = "info"
console = true
file = false
# file_path = "~/.config/insider-graph/logs/insidergraph.log"
max_size = 50
max_backups = 5
max_age = 14

[trace]
# Export spans to stderr
enabled = false
`

// WriteTemplate writes the commented default configuration to configDir.
// An existing file is only replaced when force is set.
func WriteTemplate(configDir string, force bool) (string, error) {
	configDir = ResolveDir(configDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, FileName+".toml")
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}

	return path, nil
}
