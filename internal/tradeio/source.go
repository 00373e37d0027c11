package tradeio

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/logging"
	"insider-graph/internal/models"
	"insider-graph/internal/store"
	"insider-graph/internal/trace"
)

// DetectFormat resolves FormatAuto from the file extension.
func DetectFormat(path string, format Format) Format {
	if format != "" && format != FormatAuto {
		return format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// ValidFormat reports whether f names a known input format.
func ValidFormat(f Format) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Open reads every trade event from path, choosing the reader by
// opts.Format. A missing file is reported as ErrInputNotFound.
func Open(ctx context.Context, path string, opts ReadOptions) ([]models.TradeEvent, ReadStats, error) {
	format := DetectFormat(path, opts.Format)

	ctx, span := trace.StartSpan(ctx, "read_trades",
		attribute.String("path", path),
		attribute.String("format", string(format)),
	)
	defer span.End()

	if !ValidFormat(format) {
		return nil, ReadStats{}, apperrors.Wrapf(apperrors.ErrUnsupportedInput, "format %q", format)
	}
	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("path", path).
		Str("format", string(format)).
		Msg("Reading trades")

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ReadStats{}, apperrors.Wrapf(apperrors.ErrInputNotFound, "open %s", path)
		}
		return nil, ReadStats{}, apperrors.Wrapf(apperrors.ErrInputUnreadable, "open %s: %v", path, err)
	}

	var (
		events []models.TradeEvent
		stats  ReadStats
		err    error
	)
	switch format {
	case FormatCSV:
		events, stats, err = readCSVFile(path, opts)
	case FormatXLSX:
		events, stats, err = ReadXLSX(path, opts)
	case FormatSQLite:
		events, stats, err = readStore(ctx, path, opts)
	}
	if err != nil {
		return nil, stats, err
	}

	span.SetAttributes(attribute.Int("events", len(events)))
	return events, stats, nil
}

func readCSVFile(path string, opts ReadOptions) ([]models.TradeEvent, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, apperrors.Wrapf(apperrors.ErrInputUnreadable, "open %s: %v", path, err)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

func readStore(ctx context.Context, path string, opts ReadOptions) ([]models.TradeEvent, ReadStats, error) {
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer s.Close()

	events, err := s.LoadTrades(ctx, store.TradeFilter{Symbol: opts.Symbol})
	if err != nil {
		return nil, ReadStats{}, err
	}

	stats := ReadStats{Rows: len(events), Events: len(events)}
	for _, ev := range events {
		if ev.Direction == models.DirectionUnknown {
			stats.UnknownDirection++
		}
	}
	return events, stats, nil
}
