package tradeio

import (
	"github.com/xuri/excelize/v2"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/models"
)

// ReadXLSX reads trade records from a workbook sheet using the same column
// layout as ReadCSV.
func ReadXLSX(path string, opts ReadOptions) ([]models.TradeEvent, ReadStats, error) {
	var stats ReadStats

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, stats, apperrors.NewDataError("xlsx", path, "failed to open workbook", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, stats, apperrors.NewDataError("xlsx", path, "failed to read sheet "+sheet, err)
	}

	var events []models.TradeEvent
	for i, row := range rows {
		if i == 0 {
			continue
		}
		ev, ok, err := parseRecord(i+1, row, &stats)
		if err != nil {
			return nil, stats, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, stats, nil
}
