// Package config provides configuration management for insider-graph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/graph"
	"insider-graph/internal/logging"
	"insider-graph/internal/tradeio"
)

const (
	// EnvPrefix prefixes every environment override, e.g.
	// INSIDERGRAPH_GRAPH_MIN_TRADES.
	EnvPrefix = "INSIDERGRAPH"
	// EnvConfigDir overrides the default configuration directory.
	EnvConfigDir = "INSIDERGRAPH_CONFIG_DIR"
	// FileName is the configuration file name without extension.
	FileName = "config"
)

// Config holds all application configuration.
type Config struct {
	Graph  GraphConfig  `mapstructure:"graph"`
	Input  InputConfig  `mapstructure:"input"`
	Output OutputConfig `mapstructure:"output"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Trace  TraceConfig  `mapstructure:"trace"`

	// Dir is the directory the configuration was resolved against.
	Dir string `mapstructure:"-"`
	// File is the configuration file that was read, or empty when only
	// defaults and environment overrides apply.
	File string `mapstructure:"-"`

	settings map[string]interface{}
}

// GraphConfig holds graph construction parameters.
type GraphConfig struct {
	MinTrades           int     `mapstructure:"min_trades" validate:"gte=0"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gte=0"`
	CompanyScope        string  `mapstructure:"company_scope" validate:"oneof=buy all"`
	Workers             int     `mapstructure:"workers" validate:"gte=0"`
}

// InputConfig describes where trade records come from.
type InputConfig struct {
	Path      string `mapstructure:"path" validate:"required"`
	Format    string `mapstructure:"format" validate:"oneof=auto csv xlsx sqlite"`
	Delimiter string `mapstructure:"delimiter" validate:"len=1"`
	Sheet     string `mapstructure:"sheet"`
}

// OutputConfig describes where results are written.
type OutputConfig struct {
	Path        string `mapstructure:"path" validate:"required"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// StoreConfig holds the trade database location.
type StoreConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"`
}

// TraceConfig controls span export.
type TraceConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Setting is one resolved configuration key.
type Setting struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/insider-graph"
	}
	return filepath.Join(home, ".config", "insider-graph")
}

// ResolveDir picks the configuration directory: the explicit argument,
// then $INSIDERGRAPH_CONFIG_DIR, then the default.
func ResolveDir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	if v := os.Getenv(EnvConfigDir); v != "" {
		return v
	}
	return DefaultConfigDir()
}

// Path returns the configuration file path inside configDir.
func Path(configDir string) string {
	return filepath.Join(ResolveDir(configDir), FileName+".toml")
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("graph.min_trades", graph.DefaultMinTrades)
	v.SetDefault("graph.similarity_threshold", graph.DefaultThreshold)
	v.SetDefault("graph.company_scope", string(graph.ScopeBuy))
	v.SetDefault("graph.workers", 0)

	v.SetDefault("input.path", "trades_by_day.csv")
	v.SetDefault("input.format", string(tradeio.FormatAuto))
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.sheet", "")

	v.SetDefault("output.path", "edges.csv")
	v.SetDefault("output.metrics_file", "")

	v.SetDefault("store.path", filepath.Join(configDir, "trades.db"))

	logDefaults := logging.DefaultLogConfig()
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.console", logDefaults.Console)
	v.SetDefault("log.file", logDefaults.File)
	v.SetDefault("log.file_path", filepath.Join(configDir, "logs", "insidergraph.log"))
	v.SetDefault("log.max_size", logDefaults.MaxSize)
	v.SetDefault("log.max_backups", logDefaults.MaxBackups)
	v.SetDefault("log.max_age", logDefaults.MaxAge)

	v.SetDefault("trace.enabled", false)
}

// Load loads configuration from the specified directory.
// If configDir is empty, ResolveDir picks it. A missing config.toml is not
// an error: defaults and environment overrides apply.
func Load(configDir string) (*Config, error) {
	configDir = ResolveDir(configDir)

	v := viper.New()
	setDefaults(v, configDir)
	v.SetConfigName(FileName)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("%w: loading %s: %v", apperrors.ErrConfigInvalid, Path(configDir), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %v", apperrors.ErrConfigInvalid, err)
	}
	cfg.Dir = configDir
	cfg.File = v.ConfigFileUsed()
	cfg.settings = make(map[string]interface{})
	for _, key := range v.AllKeys() {
		cfg.settings[key] = v.Get(key)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Validate validates the configuration. Every violated rule is reported as
// a ValidationError wrapped in ErrConfigInvalid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, apperrors.NewValidationError(fieldKey(fe), fe.Value(), ruleMessage(fe)))
	}
	return fmt.Errorf("%w: %w", apperrors.ErrConfigInvalid, apperrors.Join(errs...))
}

// fieldKey turns "Config.graph.min_trades" into "graph.min_trades".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "len":
		return "must be exactly " + fe.Param() + " character"
	default:
		return "failed " + fe.Tag()
	}
}

// Settings returns the resolved keys in sorted order.
func (c *Config) Settings() []Setting {
	keys := make([]string, 0, len(c.settings))
	for k := range c.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Setting, 0, len(keys))
	for _, k := range keys {
		out = append(out, Setting{Key: k, Value: c.settings[k]})
	}
	return out
}

// Builder returns the graph construction parameters.
func (c *Config) Builder() graph.Config {
	return graph.Config{
		MinTrades:    c.Graph.MinTrades,
		Threshold:    c.Graph.SimilarityThreshold,
		CompanyScope: graph.Scope(c.Graph.CompanyScope),
		Workers:      c.Graph.Workers,
	}
}

// Reader returns the input reader options.
func (c *Config) Reader() tradeio.ReadOptions {
	opts := tradeio.DefaultReadOptions()
	opts.Format = tradeio.Format(c.Input.Format)
	if r := []rune(c.Input.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	opts.Sheet = c.Input.Sheet
	return opts
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Log.Level,
		Console:    c.Log.Console,
		File:       c.Log.File,
		FilePath:   c.Log.FilePath,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	}
}
