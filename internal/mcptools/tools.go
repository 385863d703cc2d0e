package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"feedback-insights/internal/feedback"
	"feedback-insights/internal/insights"
	"feedback-insights/internal/session"
)

const surface = "mcp"

type ListMonthsParams struct{}

type ListRegionsParams struct {
	Month string `json:"month,omitempty" mcp:"month as YYYY-MM, or All (default)"`
}

type GenerateParams struct {
	Mode   string `json:"mode,omitempty" mcp:"overall (default, first 2000 reviews) or slice"`
	Month  string `json:"month,omitempty" mcp:"slice month as YYYY-MM, or All"`
	Region string `json:"region,omitempty" mcp:"slice region (St/Prov/Region value)"`
}

type FollowupParams struct {
	Mode     string `json:"mode,omitempty" mcp:"overall (default) or slice"`
	Month    string `json:"month,omitempty" mcp:"slice month as YYYY-MM, or All"`
	Region   string `json:"region,omitempty" mcp:"slice region (St/Prov/Region value)"`
	Question string `json:"question" mcp:"question about the selected feedback"`
}

// Tools exposes the insights pipeline over MCP. Calls are stateless: every
// generation starts from an empty session state.
type Tools struct {
	service *insights.Service
	logger  *zap.Logger
}

func New(service *insights.Service, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{service: service, logger: logger}
}

// NewServer builds an MCP server with all feedback tools registered.
func NewServer(t *Tools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "feedback-insights-mcp",
		Version: version,
	}, nil)
	t.Register(server)
	return server
}

func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_months",
		Description: "Lists the month choices present in the customer feedback, starting with All",
	}, t.ListMonths)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_regions",
		Description: "Lists the regions that have feedback in a month",
	}, t.ListRegions)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_insights",
		Description: "Summarizes customer feedback with the analyst rubric (overall or one month/region slice)",
	}, t.GenerateInsights)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_followup",
		Description: "Answers a question about the selected customer feedback",
	}, t.AskFollowup)
}

func (t *Tools) ListMonths(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[ListMonthsParams]) (*mcp.CallToolResultFor[any], error) {
	months := feedback.MonthChoices(t.service.Table())
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: strings.Join(months, "\n")}},
		Meta:    map[string]any{"months": months},
	}, nil
}

func (t *Tools) ListRegions(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ListRegionsParams]) (*mcp.CallToolResultFor[any], error) {
	month, err := feedback.ParseMonth(params.Arguments.Month)
	if err != nil {
		return errorResult(err), nil
	}
	regions := t.service.Regions(month)
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: strings.Join(regions, "\n")}},
		Meta:    map[string]any{"month": month.String(), "regions": regions},
	}, nil
}

func (t *Tools) GenerateInsights(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[GenerateParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	req, err := insights.ParseRequest(args.Mode, args.Month, args.Region)
	if err != nil {
		return errorResult(err), nil
	}
	req.Origin = insights.Origin{Surface: surface}

	_, res, err := t.service.HandleGenerate(ctx, session.State{}, req)
	if err != nil {
		t.logger.Warn("generate_insights failed", zap.String("selection", req.String()), zap.Error(err))
		return errorResult(err), nil
	}
	return result(req, res), nil
}

func (t *Tools) AskFollowup(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[FollowupParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	req, err := insights.ParseRequest(args.Mode, args.Month, args.Region)
	if err != nil {
		return errorResult(err), nil
	}
	req.Origin = insights.Origin{Surface: surface}

	_, res, err := t.service.HandleFollowup(ctx, session.State{}, req, args.Question)
	if err != nil {
		t.logger.Warn("ask_followup failed", zap.String("selection", req.String()), zap.Error(err))
		return errorResult(err), nil
	}
	return result(req, res), nil
}

func result(req insights.Request, res insights.Result) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Text}},
		Meta: map[string]any{
			"kind":         string(res.Kind),
			"selection":    req.String(),
			"records":      res.Records,
			"model":        res.Model,
			"total_tokens": res.Usage.TotalTokens,
		},
	}
}

func errorResult(err error) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}
