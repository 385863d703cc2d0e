package feedback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"1/2/06 15:04",
	"01/02/2006 15:04:05",
}

// Load reads a feedback file. Workbooks (.xlsx, .xlsm) are read from sheet,
// or from the first sheet when sheet is empty; .csv files ignore sheet.
func Load(path, sheet string) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path, sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, &LoadError{Source: path, Err: err}
	}
	records, err := ParseRows(path, rows)
	if err != nil {
		return nil, err
	}
	return NewTable(path, records), nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	// Raw values keep dates as serial day numbers instead of whatever
	// display format the workbook uses.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// ReadCSV reads all rows of a CSV stream. Rows may have differing widths.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// ParseRows turns a header row followed by data rows into records. Blank rows
// are skipped; short rows are padded with empty cells.
func ParseRows(source string, rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, &LoadError{Source: source, Err: ErrEmptySource}
	}
	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	cols := make([]int, 0, 3)
	for _, name := range []string{ColumnRegion, ColumnDate, ColumnReview} {
		i, ok := idx[name]
		if !ok {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("%w: %q", ErrMissingColumn, name)}
		}
		cols = append(cols, i)
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	records := make([]Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		date, err := ParseDate(cell(row, cols[1]))
		if err != nil {
			return nil, &LoadError{Source: source, Row: n + 2, Err: err}
		}
		records = append(records, Record{
			Region: strings.TrimSpace(cell(row, cols[0])),
			Date:   date,
			Text:   cell(row, cols[2]),
		})
	}
	return records, nil
}

// ParseDate accepts the common textual layouts and spreadsheet serial day
// numbers.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrBadDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
