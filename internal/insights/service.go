package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"feedback-insights/internal/feedback"
	"feedback-insights/internal/llm"
	"feedback-insights/internal/observability"
	"feedback-insights/internal/prompt"
	"feedback-insights/internal/session"
	"feedback-insights/internal/storage"
)

// Result describes one completed generation.
type Result struct {
	Kind    session.Slot
	Text    string
	Records int
	Model   string
	Usage   Usage
	Elapsed time.Duration
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Deps are the collaborators of a Service. Recorder, Metrics and Logger are
// optional.
type Deps struct {
	Table     *feedback.Table
	Assembler *prompt.Assembler
	Client    llm.Client
	Recorder  storage.Recorder
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// Service runs the load → select → assemble → complete → store pipeline.
// Handlers are synchronous and do not retry: upstream failures are returned
// to the caller and the input state is left untouched.
type Service struct {
	table     *feedback.Table
	assembler *prompt.Assembler
	client    llm.Client
	recorder  storage.Recorder
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		table:     d.Table,
		assembler: d.Assembler,
		client:    d.Client,
		recorder:  d.Recorder,
		metrics:   d.Metrics,
		logger:    d.Logger,
		now:       time.Now,
	}
	if s.assembler == nil {
		s.assembler = prompt.NewAssembler("")
	}
	if s.recorder == nil {
		s.recorder = storage.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics != nil {
		s.metrics.FeedbackRecords.Set(float64(s.table.Len()))
	}
	return s
}

func (s *Service) Table() *feedback.Table { return s.table }

// Slice derives the feedback slice for req. The overall path takes the first
// feedback.OverallLimit records; the slice path is uncapped.
func (s *Service) Slice(req Request) (feedback.Slice, error) {
	switch req.Mode {
	case prompt.ModeOverall:
		return feedback.Select(s.table, feedback.AllMonths, "").Head(feedback.OverallLimit), nil
	case prompt.ModeSlice:
		if !req.Month.IsAll() && !s.hasMonth(req.Month) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMonth, req.Month)
		}
		if req.Region == "" || !feedback.HasRegion(s.table, req.Month, req.Region) {
			return nil, fmt.Errorf("%w: %q in %s", ErrUnknownRegion, req.Region, req.Month)
		}
		return feedback.Select(s.table, req.Month, req.Region), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}
}

func (s *Service) hasMonth(m feedback.Month) bool {
	for _, have := range feedback.Months(s.table) {
		if have == m {
			return true
		}
	}
	return false
}

// HandleGenerate produces the rubric analysis for req and stores it in the
// overall_summary slot. The custom_response slot is carried over unchanged.
func (s *Service) HandleGenerate(ctx context.Context, st session.State, req Request) (session.State, Result, error) {
	sl, err := s.Slice(req)
	if err != nil {
		return st, Result{}, err
	}
	return s.run(ctx, st, req, sl, session.SlotOverall, s.assembler.Summary(sl), "")
}

// HandleFollowup answers question against the slice of req and stores the
// answer in the custom_response slot. It does not require a prior summary.
func (s *Service) HandleFollowup(ctx context.Context, st session.State, req Request, question string) (session.State, Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return st, Result{}, ErrEmptyQuestion
	}
	sl, err := s.Slice(req)
	if err != nil {
		return st, Result{}, err
	}
	return s.run(ctx, st, req, sl, session.SlotCustom, s.assembler.Followup(sl, question), question)
}

func (s *Service) run(ctx context.Context, st session.State, req Request, sl feedback.Slice, slot session.Slot, p prompt.Prompt, question string) (session.State, Result, error) {
	if len(sl) == 0 {
		return st, Result{}, ErrNoFeedback
	}
	log := s.logger.With(
		zap.String("kind", string(slot)),
		zap.String("mode", string(req.Mode)),
		zap.String("month", req.monthLabel()),
		zap.String("region", req.Region),
		zap.Int("records", len(sl)),
		zap.String("session", req.Origin.SessionID),
	)
	if n := sl.CountContaining(prompt.Delimiter); n > 0 {
		log.Warn("reviews contain the feedback delimiter and will be mis-segmented", zap.Int("affected", n))
	}

	start := s.now()
	resp, err := llm.Complete(ctx, s.client, p.System, p.User)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.observe(slot, req, "error", elapsed, len(sl))
		var ue *llm.UpstreamError
		if s.metrics != nil && errors.As(err, &ue) {
			s.metrics.UpstreamErrors.WithLabelValues(ue.Provider).Inc()
		}
		log.Error("completion failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return st, Result{}, err
	}
	s.observe(slot, req, "ok", elapsed, len(sl))
	if s.metrics != nil {
		s.metrics.AddTokens(resp.PromptTokens, resp.CompletionTokens)
	}

	res := Result{
		Kind:    slot,
		Text:    resp.Content,
		Records: len(sl),
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			TotalTokens:      resp.TotalTokens,
		},
		Elapsed: elapsed,
	}
	log.Info("generation stored",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.TotalTokens),
		zap.Duration("elapsed", elapsed),
	)

	ev := storage.Event{
		Timestamp:        start.UTC(),
		SessionID:        req.Origin.SessionID,
		Surface:          req.Origin.Surface,
		Kind:             string(slot),
		Mode:             string(req.Mode),
		Month:            req.monthLabel(),
		Region:           req.Region,
		Records:          len(sl),
		Question:         question,
		Reply:            resp.Content,
		Model:            resp.Model,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		TotalTokens:      resp.TotalTokens,
	}
	if err := s.recorder.Append(ev); err != nil {
		log.Warn("failed to record generation", zap.Error(err))
	}

	return st.With(slot, resp.Content), res, nil
}

func (s *Service) observe(slot session.Slot, req Request, outcome string, elapsed time.Duration, records int) {
	if s.metrics == nil {
		return
	}
	s.metrics.Generations.WithLabelValues(string(slot), string(req.Mode), outcome).Inc()
	s.metrics.ObserveCompletion(string(slot), elapsed)
	s.metrics.SliceRecords.Observe(float64(records))
}
