package llm

import (
	"context"
	"errors"
	"fmt"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

var ErrEmptyResponse = errors.New("upstream returned no choices")

// UpstreamError wraps any failure of the completion provider: network, auth,
// quota or a malformed response.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Complete sends a single system/user pair and returns the first reply.
// Errors that are not already an UpstreamError are wrapped as one.
func Complete(ctx context.Context, c Client, system, user string) (Response, error) {
	resp, err := c.Generate(ctx, []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	})
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return Response{}, err
		}
		return Response{}, &UpstreamError{Provider: "llm", Err: err}
	}
	return resp, nil
}
