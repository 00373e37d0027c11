// Package tradeio reads insider trade records and writes edge lists.
package tradeio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/models"
)

// Format selects the input reader.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatAuto, FormatCSV, FormatXLSX, FormatSQLite}

// Column positions of the trade record.
const (
	colSymbol = iota
	colInsider
	colDirection
	colDate

	minFields = colDirection + 1
)

// ReadOptions controls how trade records are read.
type ReadOptions struct {
	Format    Format
	Delimiter rune
	// Sheet names the XLSX sheet to read. Empty means the first sheet.
	Sheet string
	// Symbol restricts a SQLite load to one company.
	Symbol string
}

// DefaultReadOptions returns comma-separated, auto-detected input.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{Format: FormatAuto, Delimiter: ','}
}

// ReadStats counts what happened to the input rows.
type ReadStats struct {
	Rows             int `json:"rows"`
	Events           int `json:"events"`
	ShortRows        int `json:"short_rows"`
	UnknownDirection int `json:"unknown_direction"`
	DroppedRows      int `json:"dropped_rows"`
}

// ReadCSV reads trade records from r. The first record is a header.
// Columns are symbol, insider, direction code and date; extra columns are
// ignored.
func ReadCSV(r io.Reader, opts ReadOptions) ([]models.TradeEvent, ReadStats, error) {
	var stats ReadStats

	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, stats, nil
		}
		return nil, stats, fmt.Errorf("%w: %w", apperrors.ErrInputUnreadable, err)
	}

	var events []models.TradeEvent
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %w", apperrors.ErrInputUnreadable, err)
		}
		line, _ := cr.FieldPos(0)

		ev, ok, err := parseRecord(line, rec, &stats)
		if err != nil {
			return nil, stats, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, stats, nil
}

// parseRecord converts one data row. It returns ok=false for rows that are
// dropped, and an error only for acquisitions or disposals whose date
// cannot be parsed.
func parseRecord(line int, rec []string, stats *ReadStats) (models.TradeEvent, bool, error) {
	stats.Rows++
	if len(rec) < minFields {
		stats.ShortRows++
		stats.DroppedRows++
		return models.TradeEvent{}, false, nil
	}

	ev := models.TradeEvent{
		Symbol:    rec[colSymbol],
		Insider:   rec[colInsider],
		Direction: models.ParseDirection(rec[colDirection]),
	}

	rawDate := ""
	if len(rec) > colDate {
		rawDate = strings.TrimRight(rec[colDate], "\r")
	}
	date, err := models.ParseDate(rawDate)
	if err != nil {
		if ev.Direction == models.DirectionUnknown {
			stats.UnknownDirection++
			stats.DroppedRows++
			return models.TradeEvent{}, false, nil
		}
		var pe *apperrors.ParseError
		if apperrors.As(err, &pe) {
			return models.TradeEvent{}, false, pe.AtLine(line)
		}
		return models.TradeEvent{}, false, err
	}
	ev.Date = date

	if ev.Direction == models.DirectionUnknown {
		stats.UnknownDirection++
	}
	stats.Events++
	return ev, true, nil
}
