package grid

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

// FromXLSX parses an xlsx workbook and returns the named sheet as a grid.
// Cell values are read raw so number formats do not leak into the text.
// Date-styled serial numbers in the first column become ISO dates.
func FromXLSX(data []byte, sheet string) (*Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (have %v)", sheet, f.GetSheetList())
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := convertDateColumn(f, sheet, rows); err != nil {
		return nil, err
	}
	return New(rows), nil
}

// convertDateColumn rewrites numeric first-column cells that carry a date
// number format as YYYY-MM-DD.
func convertDateColumn(f *excelize.File, sheet string, rows [][]string) error {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	dateStyle := make(map[int]bool)
	for r, row := range rows {
		if len(row) == 0 {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			continue
		}

		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		styleID, err := f.GetCellStyle(sheet, cell)
		if err != nil {
			return fmt.Errorf("style of %s: %w", cell, err)
		}
		isDate, seen := dateStyle[styleID]
		if !seen {
			style, err := f.GetStyle(styleID)
			if err != nil {
				return fmt.Errorf("style %d: %w", styleID, err)
			}
			isDate = isDateFormat(style)
			dateStyle[styleID] = isDate
		}
		if !isDate {
			continue
		}

		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return fmt.Errorf("date in %s: %w", cell, err)
		}
		row[0] = t.Format(series.ISOLayout)
	}
	return nil
}

// isDateFormat reports whether a style's number format renders a date.
func isDateFormat(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return customDateFormat(*style.CustomNumFmt)
	}
	switch id := style.NumFmt; {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// customDateFormat looks for year or day tokens outside quoted literals.
func customDateFormat(format string) bool {
	inQuote := false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}
