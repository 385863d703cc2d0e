package session

import "fmt"

// Slot names one of the two stored replies.
type Slot string

const (
	SlotOverall Slot = "overall_summary"
	SlotCustom  Slot = "custom_response"
)

func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotOverall, SlotCustom:
		return Slot(s), nil
	}
	return "", fmt.Errorf("unknown slot %q", s)
}

// State holds the latest overall summary and the latest follow-up answer of
// one operator session. It is a value: handlers receive a State and return
// the next one.
type State struct {
	OverallSummary string `json:"overall_summary"`
	CustomResponse string `json:"custom_response"`
}

// Get returns the slot value, or "" when unset.
func (s State) Get(slot Slot) string {
	switch slot {
	case SlotOverall:
		return s.OverallSummary
	case SlotCustom:
		return s.CustomResponse
	}
	return ""
}

// With returns a copy of s with slot overwritten by text.
func (s State) With(slot Slot, text string) State {
	switch slot {
	case SlotOverall:
		s.OverallSummary = text
	case SlotCustom:
		s.CustomResponse = text
	}
	return s
}

func (s State) HasSummary() bool { return s.OverallSummary != "" }
