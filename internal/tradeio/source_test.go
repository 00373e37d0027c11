package tradeio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/logging"
	"insider-graph/internal/models"
	"insider-graph/internal/store"
)

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("trades_by_day.csv", FormatAuto))
	assert.Equal(t, FormatCSV, DetectFormat("trades.txt", ""))
	assert.Equal(t, FormatXLSX, DetectFormat("Trades.XLSX", FormatAuto))
	assert.Equal(t, FormatSQLite, DetectFormat("trades.db", FormatAuto))
	assert.Equal(t, FormatCSV, DetectFormat("trades.db", FormatCSV))

	assert.True(t, ValidFormat(FormatSQLite))
	assert.False(t, ValidFormat("parquet"))
}

func TestOpenMissingFile(t *testing.T) {
	_, _, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), DefaultReadOptions())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInputNotFound))
}

func TestOpenUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(header), 0644))

	opts := DefaultReadOptions()
	opts.Format = "parquet"
	_, _, err := Open(context.Background(), path, opts)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnsupportedInput))
}

func TestOpenCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"ACME,alice,A,2024-01-02\n"), 0644))

	events, stats, err := Open(context.Background(), path, DefaultReadOptions())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, stats.Events)
}

func TestOpenUsesContextLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"ACME,alice,A,2024-01-02\n"), 0644))

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), zerolog.New(&buf))

	_, _, err := Open(ctx, path, DefaultReadOptions())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"Reading trades"`)
	assert.Contains(t, buf.String(), `"format":"csv"`)
}

func TestOpenXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"symbol", "insider", "code", "date"},
		{"ACME", "alice", "A", "2024-01-02"},
		{"ACME", "bob", "D", "2024-01-05"},
		{"ACME", "carol"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	events, stats, err := Open(context.Background(), path, DefaultReadOptions())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.DirectionDispose, events[1].Direction)
	assert.Equal(t, 1, stats.ShortRows)
}

func TestOpenXLSXMalformedDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"symbol", "insider", "code", "date"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"ACME", "alice", "A", "Jan 2"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, _, err := Open(context.Background(), path, DefaultReadOptions())
	var pe *apperrors.ParseError
	require.True(t, apperrors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.db")
	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.ImportTrades(context.Background(), "seed", []models.TradeEvent{
		{Symbol: "ACME", Insider: "alice", Direction: models.DirectionAcquire, Date: models.Date{Year: 2024, Month: 1, Day: 2}},
		{Symbol: "ZETA", Insider: "bob", Direction: models.DirectionUnknown, Date: models.Date{Year: 2024, Month: 1, Day: 2}},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	events, stats, err := Open(context.Background(), path, DefaultReadOptions())
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 1, stats.UnknownDirection)

	opts := DefaultReadOptions()
	opts.Symbol = "ACME"
	events, _, err = Open(context.Background(), path, opts)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
