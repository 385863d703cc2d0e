package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"feedback-insights/internal/storage"
)

// DailyStats summarizes the generations of one UTC day.
type DailyStats struct {
	Date             string         `json:"date"`
	Generations      int            `json:"generations"`
	Summaries        int            `json:"summaries"`
	Followups        int            `json:"followups"`
	UniqueSessions   int            `json:"unique_sessions"`
	ReviewsAnalyzed  int            `json:"reviews_analyzed"`
	TotalTokens      int            `json:"total_tokens"`
	BySurface        map[string]int `json:"by_surface"`
	ByRegion         map[string]int `json:"by_region"`
	FollowupExamples []string       `json:"followup_examples,omitempty"`
}

const maxFollowupExamples = 5

// AnalyzeDay aggregates events whose timestamp falls on targetDate.
func AnalyzeDay(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		BySurface: make(map[string]int),
		ByRegion:  make(map[string]int),
	}
	sessions := make(map[string]bool)

	for _, ev := range events {
		if ev.Timestamp.Before(startOfDay) || !ev.Timestamp.Before(endOfDay) {
			continue
		}
		stats.Generations++
		stats.ReviewsAnalyzed += ev.Records
		stats.TotalTokens += ev.TotalTokens
		if ev.SessionID != "" {
			sessions[ev.SessionID] = true
		}
		if ev.Surface != "" {
			stats.BySurface[ev.Surface]++
		}
		if ev.Region != "" {
			stats.ByRegion[ev.Region]++
		}
		switch ev.Kind {
		case "overall_summary":
			stats.Summaries++
		case "custom_response":
			stats.Followups++
			if ev.Question != "" && len(stats.FollowupExamples) < maxFollowupExamples {
				stats.FollowupExamples = append(stats.FollowupExamples, ev.Question)
			}
		}
	}

	stats.UniqueSessions = len(sessions)
	return stats
}

// Report renders the stats as plain text for chat delivery.
func (ds *DailyStats) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feedback insights usage for %s\n\n", ds.Date)
	fmt.Fprintf(&b, "Generations: %d (summaries %d, follow-ups %d)\n", ds.Generations, ds.Summaries, ds.Followups)
	fmt.Fprintf(&b, "Sessions: %d\n", ds.UniqueSessions)
	fmt.Fprintf(&b, "Reviews analyzed: %d\n", ds.ReviewsAnalyzed)
	fmt.Fprintf(&b, "Tokens: %d\n", ds.TotalTokens)

	if len(ds.BySurface) > 0 {
		b.WriteString("\nBy surface:\n")
		writeCounts(&b, ds.BySurface)
	}
	if len(ds.ByRegion) > 0 {
		b.WriteString("\nBy region:\n")
		writeCounts(&b, ds.ByRegion)
	}
	if len(ds.FollowupExamples) > 0 {
		b.WriteString("\nQuestions asked:\n")
		for _, q := range ds.FollowupExamples {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	return b.String()
}

// writeCounts prints entries by descending count, then by key.
func writeCounts(b *strings.Builder, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %d\n", k, counts[k])
	}
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
