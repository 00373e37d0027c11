package tradeio

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/models"
)

const header = "ISSUERTRADINGSYMBOL,RPTOWNERNAME_lower,TRANS_ACQUIRED_DISP_CD,TRANS_DATE\n"

func TestReadCSV(t *testing.T) {
	input := header +
		"ACME,alice,A,2024-01-02\n" +
		"ACME,bob,D,2024-01-03,extra,columns\n" +
		"ZETA,carol,G,2024-02-01\n"

	events, stats, err := ReadCSV(strings.NewReader(input), DefaultReadOptions())
	require.NoError(t, err)

	assert.Equal(t, []models.TradeEvent{
		{Symbol: "ACME", Insider: "alice", Direction: models.DirectionAcquire, Date: models.Date{Year: 2024, Month: 1, Day: 2}},
		{Symbol: "ACME", Insider: "bob", Direction: models.DirectionDispose, Date: models.Date{Year: 2024, Month: 1, Day: 3}},
		{Symbol: "ZETA", Insider: "carol", Direction: models.DirectionUnknown, Date: models.Date{Year: 2024, Month: 2, Day: 1}},
	}, events)
	assert.Equal(t, ReadStats{Rows: 3, Events: 3, UnknownDirection: 1}, stats)
}

func TestReadCSVDropsRows(t *testing.T) {
	input := header +
		"ACME,alice\n" +
		"ACME,bob,X,not-a-date\n" +
		"ACME,carol,A,2024-01-02\n"

	events, stats, err := ReadCSV(strings.NewReader(input), DefaultReadOptions())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, ReadStats{Rows: 3, Events: 1, ShortRows: 1, UnknownDirection: 1, DroppedRows: 2}, stats)
}

func TestReadCSVMalformedDateIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		value string
	}{
		{"bad month", "ACME,alice,A,2024-xx-02", "2024-xx-02"},
		{"too short", "ACME,alice,D,2024-1-2", "2024-1-2"},
		{"missing", "ACME,alice,A", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := header + "ACME,bob,A,2024-01-01\n" + tt.row + "\n"
			_, _, err := ReadCSV(strings.NewReader(input), DefaultReadOptions())
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrParse))

			var pe *apperrors.ParseError
			require.True(t, apperrors.As(err, &pe))
			assert.Equal(t, 3, pe.Line)
			assert.Equal(t, "date", pe.Field)
			assert.Equal(t, tt.value, pe.Value)
		})
	}
}

func TestReadCSVDelimiterAndLineEndings(t *testing.T) {
	input := "sym;insider;code;date\r\nACME;alice;A;2024-01-02\r\n"
	opts := DefaultReadOptions()
	opts.Delimiter = ';'

	events, _, err := ReadCSV(strings.NewReader(input), opts)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].Insider)
	assert.Equal(t, models.Date{Year: 2024, Month: 1, Day: 2}, events[0].Date)
}

func TestReadCSVEmpty(t *testing.T) {
	events, stats, err := ReadCSV(strings.NewReader(""), DefaultReadOptions())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, stats.Rows)

	events, _, err = ReadCSV(strings.NewReader(header), DefaultReadOptions())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReadCSVDirectionIsCaseSensitive(t *testing.T) {
	input := header + "ACME,alice,a,2024-01-02\nACME,alice, A,2024-01-02\n"
	events, stats, err := ReadCSV(strings.NewReader(input), DefaultReadOptions())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.DirectionUnknown, events[0].Direction)
	assert.Equal(t, models.DirectionUnknown, events[1].Direction)
	assert.Equal(t, 2, stats.UnknownDirection)
}

func TestReadCSVKeepsReaderError(t *testing.T) {
	errDisk := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader(header+"ACME,alice,A,2024-01-02\n"), iotest.ErrReader(errDisk))

	_, _, err := ReadCSV(r, DefaultReadOptions())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInputUnreadable))
	assert.True(t, apperrors.Is(err, errDisk))
}

func TestReadEdgesKeepsCSVPosition(t *testing.T) {
	input := "source,target,company,similarity\nalice,bob,ACME,3\nca\"rol,dave,ZETA,2\n"

	_, err := ReadEdges(strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInputUnreadable))

	var pe *csv.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.StartLine)
}
