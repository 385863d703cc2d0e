package mcptools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-insights/internal/feedback"
	"feedback-insights/internal/insights"
	"feedback-insights/internal/llm"
)

type stubLLM struct {
	reply string
	err   error
	calls int
}

func (s *stubLLM) Generate(context.Context, []llm.Message) (llm.Response, error) {
	s.calls++
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Content: s.reply, Model: "stub", TotalTokens: 3}, nil
}

func newTools(client llm.Client) *Tools {
	tbl := feedback.NewTable("test", []feedback.Record{
		{Region: "CA", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Text: "cold fries"},
		{Region: "NY", Date: time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), Text: "slow drive-thru"},
		{Region: "CA", Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), Text: "missing taco"},
	})
	return New(insights.NewService(insights.Deps{Table: tbl, Client: client}), nil)
}

func text(t *testing.T, res *mcp.CallToolResultFor[any]) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListMonths(t *testing.T) {
	tools := newTools(&stubLLM{})
	res, err := tools.ListMonths(context.Background(), nil, &mcp.CallToolParamsFor[ListMonthsParams]{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "All\n2024-01\n2024-02", text(t, res))
}

func TestListRegions(t *testing.T) {
	tools := newTools(&stubLLM{})
	ctx := context.Background()

	res, err := tools.ListRegions(ctx, nil, &mcp.CallToolParamsFor[ListRegionsParams]{Arguments: ListRegionsParams{Month: "2024-01"}})
	require.NoError(t, err)
	assert.Equal(t, "CA", text(t, res))

	res, err = tools.ListRegions(ctx, nil, &mcp.CallToolParamsFor[ListRegionsParams]{})
	require.NoError(t, err)
	assert.Equal(t, "CA\nNY", text(t, res))

	res, err = tools.ListRegions(ctx, nil, &mcp.CallToolParamsFor[ListRegionsParams]{Arguments: ListRegionsParams{Month: "Feb"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGenerateInsights(t *testing.T) {
	stub := &stubLLM{reply: "OK"}
	tools := newTools(stub)

	res, err := tools.GenerateInsights(context.Background(), nil, &mcp.CallToolParamsFor[GenerateParams]{
		Arguments: GenerateParams{Mode: "slice", Month: "2024-02", Region: "CA"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "OK", text(t, res))
	assert.Equal(t, "overall_summary", res.Meta["kind"])
	assert.Equal(t, 1, res.Meta["records"])
}

func TestGenerateInsights_UnknownRegion(t *testing.T) {
	stub := &stubLLM{reply: "OK"}
	tools := newTools(stub)

	res, err := tools.GenerateInsights(context.Background(), nil, &mcp.CallToolParamsFor[GenerateParams]{
		Arguments: GenerateParams{Mode: "slice", Month: "2024-01", Region: "NY"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "region not present")
	assert.Zero(t, stub.calls)
}

func TestAskFollowup(t *testing.T) {
	stub := &stubLLM{reply: "Answer"}
	tools := newTools(stub)
	ctx := context.Background()

	res, err := tools.AskFollowup(ctx, nil, &mcp.CallToolParamsFor[FollowupParams]{
		Arguments: FollowupParams{Question: "what about fries?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Answer", text(t, res))
	assert.Equal(t, "custom_response", res.Meta["kind"])
	assert.Equal(t, 3, res.Meta["records"])

	res, err = tools.AskFollowup(ctx, nil, &mcp.CallToolParamsFor[FollowupParams]{Arguments: FollowupParams{Question: "  "}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, 1, stub.calls)
}

func TestUpstreamErrorIsToolError(t *testing.T) {
	tools := newTools(&stubLLM{err: errors.New("quota")})
	res, err := tools.GenerateInsights(context.Background(), nil, &mcp.CallToolParamsFor[GenerateParams]{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "completion failed")
}

func TestNewServerRegistersTools(t *testing.T) {
	assert.NotNil(t, NewServer(newTools(&stubLLM{}), "test"))
}
