package insights

import (
	"fmt"

	"feedback-insights/internal/feedback"
)

// Overview summarizes the loaded table for selector rendering.
type Overview struct {
	Source  string   `json:"source"`
	Records int      `json:"records"`
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
	Months  []string `json:"months"`
}

func (s *Service) Overview() Overview {
	ov := Overview{
		Source:  s.table.Source(),
		Records: s.table.Len(),
		Months:  feedback.MonthChoices(s.table),
	}
	if from, to, ok := s.table.DateRange(); ok {
		ov.From = from.Format("2006-01-02")
		ov.To = to.Format("2006-01-02")
	}
	return ov
}

// PeriodLabel is the date range line shown above the overall summary.
func (o Overview) PeriodLabel() string {
	if o.From == "" {
		return "Time period considered: no feedback loaded"
	}
	return fmt.Sprintf("Time period considered: %s to %s", o.From, o.To)
}

// Regions lists the region choices for month.
func (s *Service) Regions(month feedback.Month) []string {
	return feedback.Regions(s.table, month)
}
