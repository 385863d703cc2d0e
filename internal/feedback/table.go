package feedback

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Column headers every feedback source must carry.
const (
	ColumnRegion = "St/Prov/Region"
	ColumnDate   = "Date"
	ColumnReview = "Review"
)

// Record is a single customer review. Records are created once at load time
// and never modified afterwards.
type Record struct {
	Region string    `json:"region"`
	Date   time.Time `json:"date"`
	Text   string    `json:"text"`
}

// Table is the in-memory feedback store, in source row order.
type Table struct {
	source  string
	records []Record
}

func NewTable(source string, records []Record) *Table {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Table{source: source, records: cp}
}

func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of all records.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// DateRange returns the earliest and latest review dates. ok is false for an
// empty table.
func (t *Table) DateRange() (from, to time.Time, ok bool) {
	if t.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	from, to = t.records[0].Date, t.records[0].Date
	for _, r := range t.records[1:] {
		if r.Date.Before(from) {
			from = r.Date
		}
		if r.Date.After(to) {
			to = r.Date
		}
	}
	return from, to, true
}

// AllLabel is the month choice that disables month filtering.
const AllLabel = "All"

// Month is a calendar month filter. The zero value is AllMonths.
type Month struct {
	Year  int
	Month time.Month
}

var AllMonths = Month{}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth accepts "All" (or an empty string) and "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllLabel) {
		return AllMonths, nil
	}
	year, mon, ok := strings.Cut(s, "-")
	if !ok {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM or %s", s, AllLabel)
	}
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return Month{}, fmt.Errorf("invalid month %q: bad year", s)
	}
	m, err := strconv.Atoi(mon)
	if err != nil || m < 1 || m > 12 {
		return Month{}, fmt.Errorf("invalid month %q: bad month", s)
	}
	return Month{Year: y, Month: time.Month(m)}, nil
}

func (m Month) IsAll() bool { return m == AllMonths }

func (m Month) String() string {
	if m.IsAll() {
		return AllLabel
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Contains reports whether t falls in the month. AllMonths contains every date.
func (m Month) Contains(t time.Time) bool {
	if m.IsAll() {
		return true
	}
	return t.Year() == m.Year && t.Month() == m.Month
}
