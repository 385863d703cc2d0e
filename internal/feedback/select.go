package feedback

import "strings"

// OverallLimit caps the number of records sent on the overall summary path.
const OverallLimit = 2000

// Slice is an ordered selection of records.
type Slice []Record

// Head returns at most the first n records.
func (s Slice) Head(n int) Slice {
	if n < 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

func (s Slice) Texts() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.Text
	}
	return out
}

// CountContaining returns how many records contain sub in their text.
func (s Slice) CountContaining(sub string) int {
	n := 0
	for _, r := range s {
		if strings.Contains(r.Text, sub) {
			n++
		}
	}
	return n
}

// Select keeps the records that fall in month and, when region is not
// empty, whose region equals it exactly. Source order is preserved.
func Select(t *Table, month Month, region string) Slice {
	out := Slice{}
	if t == nil {
		return out
	}
	for _, r := range t.records {
		if !month.Contains(r.Date) {
			continue
		}
		if region != "" && r.Region != region {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Months returns the distinct months present in the table in order of first
// appearance.
func Months(t *Table) []Month {
	if t == nil {
		return nil
	}
	seen := make(map[Month]bool)
	var out []Month
	for _, r := range t.records {
		m := MonthOf(r.Date)
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// MonthChoices renders the month selector options: "All" followed by each
// month present in the table.
func MonthChoices(t *Table) []string {
	months := Months(t)
	out := make([]string, 0, len(months)+1)
	out = append(out, AllLabel)
	for _, m := range months {
		out = append(out, m.String())
	}
	return out
}

// Regions returns the distinct regions of the month-filtered table in order
// of first appearance.
func Regions(t *Table, month Month) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range Select(t, month, "") {
		if seen[r.Region] {
			continue
		}
		seen[r.Region] = true
		out = append(out, r.Region)
	}
	return out
}

// HasRegion reports whether region is one of Regions(t, month).
func HasRegion(t *Table, month Month, region string) bool {
	for _, r := range Regions(t, month) {
		if r == region {
			return true
		}
	}
	return false
}
