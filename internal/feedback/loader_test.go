package feedback

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadCSV(t *testing.T) {
	p := writeFile(t, "reviews.csv", "Store,St/Prov/Region,Date,Review\n"+
		"1,CA,2024-10-01,Great burger\n"+
		"2,NY,10/02/2024,42\n"+
		",,,\n"+
		"3,TX,2024-10-03 08:30:00,\n")

	tbl, err := Load(p, "")
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	recs := tbl.Records()
	assert.Equal(t, "CA", recs[0].Region)
	assert.Equal(t, "Great burger", recs[0].Text)
	assert.Equal(t, "42", recs[1].Text)
	assert.Equal(t, time.Date(2024, time.October, 2, 0, 0, 0, 0, time.UTC), recs[1].Date)
	assert.Equal(t, "", recs[2].Text)
	assert.Equal(t, p, tbl.Source())
}

func TestLoadCSV_MissingColumn(t *testing.T) {
	p := writeFile(t, "reviews.csv", "Region,Date,Review\nCA,2024-10-01,ok\n")

	_, err := Load(p, "")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Equal(t, p, le.Source)
}

func TestLoadCSV_BadDate(t *testing.T) {
	p := writeFile(t, "reviews.csv", "St/Prov/Region,Date,Review\nCA,2024-10-01,ok\nNY,yesterday,bad\n")

	_, err := Load(p, "")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 3, le.Row)
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	var le *LoadError
	require.ErrorAs(t, err, &le)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load("reviews.txt", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"St/Prov/Region", "Date", "Review"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"CA", "2024-10-01", "Fries were cold"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"NV", time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC), 5}))
	p := filepath.Join(t.TempDir(), "reviews.xlsx")
	require.NoError(t, f.SaveAs(p))

	tbl, err := Load(p, "")
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	recs := tbl.Records()
	assert.Equal(t, "Fries were cold", recs[0].Text)
	assert.Equal(t, "NV", recs[1].Region)
	assert.Equal(t, "5", recs[1].Text)
	assert.Equal(t, 2024, recs[1].Date.Year())
	assert.Equal(t, time.October, recs[1].Date.Month())
	assert.Equal(t, 15, recs[1].Date.Day())
}

func TestParseRows_Empty(t *testing.T) {
	_, err := ParseRows("mem", nil)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestParseDate_Serial(t *testing.T) {
	d, err := ParseDate("45566")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), d)
}
