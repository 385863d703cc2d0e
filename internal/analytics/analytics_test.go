package analytics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-insights/internal/storage"
)

func sampleEvents(day time.Time) []storage.Event {
	return []storage.Event{
		{Timestamp: day.Add(2 * time.Hour), SessionID: "a", Surface: "http", Kind: "overall_summary", Mode: "overall", Records: 2000, TotalTokens: 900},
		{Timestamp: day.Add(3 * time.Hour), SessionID: "a", Surface: "http", Kind: "custom_response", Mode: "overall", Records: 2000, Question: "Which items?", TotalTokens: 400},
		{Timestamp: day.Add(5 * time.Hour), SessionID: "tg-7", Surface: "telegram", Kind: "overall_summary", Mode: "slice", Region: "CA", Records: 12, TotalTokens: 100},
		{Timestamp: day.Add(6 * time.Hour), SessionID: "tg-7", Surface: "telegram", Kind: "overall_summary", Mode: "slice", Region: "NY", Records: 3, TotalTokens: 50},
		{Timestamp: day.Add(7 * time.Hour), SessionID: "tg-7", Surface: "telegram", Kind: "overall_summary", Mode: "slice", Region: "CA", Records: 12, TotalTokens: 100},
		// next day
		{Timestamp: day.AddDate(0, 0, 1), SessionID: "b", Surface: "mcp", Kind: "overall_summary", Records: 1},
		// previous day
		{Timestamp: day.Add(-time.Minute), SessionID: "c", Surface: "mcp", Kind: "overall_summary", Records: 1},
	}
}

func TestAnalyzeDay(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	stats := AnalyzeDay(sampleEvents(day), day.Add(13*time.Hour))

	assert.Equal(t, "2024-01-15", stats.Date)
	assert.Equal(t, 5, stats.Generations)
	assert.Equal(t, 4, stats.Summaries)
	assert.Equal(t, 1, stats.Followups)
	assert.Equal(t, 2, stats.UniqueSessions)
	assert.Equal(t, 4027, stats.ReviewsAnalyzed)
	assert.Equal(t, 1550, stats.TotalTokens)
	assert.Equal(t, map[string]int{"http": 2, "telegram": 3}, stats.BySurface)
	assert.Equal(t, map[string]int{"CA": 2, "NY": 1}, stats.ByRegion)
	assert.Equal(t, []string{"Which items?"}, stats.FollowupExamples)
}

func TestAnalyzeDay_Empty(t *testing.T) {
	stats := AnalyzeDay(nil, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, stats.Generations)
	assert.Contains(t, stats.Report(), "Generations: 0 (summaries 0, follow-ups 0)")
}

func TestReport(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	report := AnalyzeDay(sampleEvents(day), day).Report()

	assert.Contains(t, report, "Feedback insights usage for 2024-01-15")
	assert.Contains(t, report, "Generations: 5 (summaries 4, follow-ups 1)")
	assert.Contains(t, report, "- Which items?")
	// descending by count
	assert.Less(t, strings.Index(report, "- telegram: 3"), strings.Index(report, "- http: 2"))
	assert.Less(t, strings.Index(report, "- CA: 2"), strings.Index(report, "- NY: 1"))
}

func TestToJSON(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	out, err := AnalyzeDay(sampleEvents(day), day).ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "2024-01-15", decoded["date"])
	assert.Equal(t, float64(5), decoded["generations"])
}
