package insights

import (
	"errors"
	"fmt"
	"strings"

	"feedback-insights/internal/feedback"
	"feedback-insights/internal/prompt"
)

var (
	ErrEmptyQuestion = errors.New("follow-up question is empty")
	ErrUnknownMonth  = errors.New("month not present in feedback")
	ErrUnknownRegion = errors.New("region not present in selected month")
	ErrNoFeedback    = errors.New("selection contains no feedback")
	ErrInvalidMode   = errors.New("mode must be overall or slice")
)

// Origin identifies who triggered a request, for the audit log.
type Origin struct {
	Surface   string
	SessionID string
}

// Request selects the feedback slice a generation or follow-up runs on.
// Month and Region are ignored in overall mode.
type Request struct {
	Mode   prompt.Mode
	Month  feedback.Month
	Region string
	Origin Origin
}

func OverallRequest() Request {
	return Request{Mode: prompt.ModeOverall}
}

func SliceRequest(month feedback.Month, region string) Request {
	return Request{Mode: prompt.ModeSlice, Month: month, Region: region}
}

// ParseRequest builds a Request from user input. An empty mode means overall.
func ParseRequest(mode, month, region string) (Request, error) {
	switch prompt.Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case prompt.ModeOverall, "":
		return OverallRequest(), nil
	case prompt.ModeSlice:
		m, err := feedback.ParseMonth(month)
		if err != nil {
			return Request{}, err
		}
		return SliceRequest(m, strings.TrimSpace(region)), nil
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

func (r Request) monthLabel() string {
	if r.Mode == prompt.ModeOverall {
		return feedback.AllLabel
	}
	return r.Month.String()
}

func (r Request) String() string {
	if r.Mode == prompt.ModeOverall {
		return "overall summary"
	}
	return fmt.Sprintf("%s / %s", r.Month, r.Region)
}
