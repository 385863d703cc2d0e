package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feedback-insights/internal/analytics"
	"feedback-insights/internal/insights"
	"feedback-insights/internal/session"
	"feedback-insights/internal/storage"
)

const digestSessionID = "digest"

// Notifier delivers the digest text, usually to the admin chat.
type Notifier func(text string) error

// NewDigest builds the report function: an overall summary of the current
// feedback followed by the day's usage stats. A failed summary does not
// suppress the stats.
func NewDigest(svc *insights.Service, recorder storage.Recorder, notify Notifier, now func() time.Time) func(ctx context.Context) error {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		var b strings.Builder

		req := insights.OverallRequest()
		req.Origin = insights.Origin{Surface: "scheduler", SessionID: digestSessionID}
		_, res, err := svc.HandleGenerate(ctx, session.State{}, req)
		if err != nil {
			fmt.Fprintf(&b, "Overall summary unavailable: %v\n", err)
		} else {
			fmt.Fprintf(&b, "Overall summary (%d reviews)\n\n%s\n", res.Records, res.Text)
		}

		// Loaded after the summary so the digest's own generation is counted.
		events, lerr := recorder.Load()
		if lerr != nil {
			fmt.Fprintf(&b, "\nUsage stats unavailable: %v\n", lerr)
		} else {
			b.WriteString("\n")
			b.WriteString(analytics.AnalyzeDay(events, now().UTC()).Report())
		}

		if nerr := notify(b.String()); nerr != nil {
			return nerr
		}
		return err
	}
}
