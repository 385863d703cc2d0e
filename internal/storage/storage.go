package storage

import "time"

// Event records one completed generation. Kind is the session slot the reply
// was stored in: overall_summary or custom_response.
type Event struct {
	Timestamp        time.Time `json:"timestamp"`
	SessionID        string    `json:"session_id"`
	Surface          string    `json:"surface"`
	Kind             string    `json:"kind"`
	Mode             string    `json:"mode"`
	Month            string    `json:"month"`
	Region           string    `json:"region,omitempty"`
	Records          int       `json:"records"`
	Question         string    `json:"question,omitempty"`
	Reply            string    `json:"reply"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
}

// Recorder persists generation events.
// Load returns events in the order they were appended.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Append(event Event) error
	Load() ([]Event, error)
}

// Nop discards events. It is used when no audit log is configured.
type Nop struct{}

func (Nop) Append(Event) error { return nil }
func (Nop) Load() ([]Event, error) { return nil, nil }
