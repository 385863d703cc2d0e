package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"feedback-insights/internal/analytics"
	"feedback-insights/internal/feedback"
	"feedback-insights/internal/insights"
	"feedback-insights/internal/llm"
	"feedback-insights/internal/observability"
	"feedback-insights/internal/session"
	"feedback-insights/internal/storage"
)

const surface = "http"

// Server is the dashboard: an HTML page plus the JSON API it drives.
type Server struct {
	service  *insights.Service
	sessions session.Store
	recorder storage.Recorder
	metrics  *observability.Metrics
	logger   *zap.Logger
	static   http.Handler
	now      func() time.Time
}

func New(service *insights.Service, sessions session.Store, recorder storage.Recorder, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if recorder == nil {
		recorder = storage.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		service:  service,
		sessions: sessions,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
		static:   newStaticHandler(),
		now:      time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/overview", s.handleOverview)
		r.Get("/regions", s.handleRegions)
		r.Get("/stats", s.handleStats)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/generate", s.handleGenerate)
		r.Post("/sessions/{id}/followup", s.handleFollowup)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// completions over large slices can take a while
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("dashboard shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type selectionRequest struct {
	Mode     string `json:"mode"`
	Month    string `json:"month"`
	Region   string `json:"region"`
	Question string `json:"question,omitempty"`
}

type generationResponse struct {
	SessionID string        `json:"session_id"`
	Kind      string        `json:"kind"`
	Text      string        `json:"text"`
	Records   int           `json:"records"`
	Model     string        `json:"model,omitempty"`
	Tokens    int           `json:"total_tokens"`
	State     session.State `json:"state"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": s.service.Table().Len(),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, _ *http.Request) {
	ov := s.service.Overview()
	respondJSON(w, http.StatusOK, map[string]any{
		"source":  ov.Source,
		"records": ov.Records,
		"from":    ov.From,
		"to":      ov.To,
		"period":  ov.PeriodLabel(),
		"months":  ov.Months,
		"limit":   feedback.OverallLimit,
	})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	month, err := feedback.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_month", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"month":   month.String(),
		"regions": s.service.Regions(month),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	day := s.now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	events, err := s.recorder.Load()
	if err != nil {
		s.logger.Error("failed to load audit log", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "audit_unavailable", "failed to load generation log")
		return
	}
	respondJSON(w, http.StatusOK, analytics.AnalyzeDay(events, day))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.Create(r.Context())
	if err != nil {
		s.logger.Error("failed to create session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "session_store", "failed to create session")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"session_id": id, "state": session.State{}})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "state": st})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	s.handleSelection(w, r, false)
}

func (s *Server) handleFollowup(w http.ResponseWriter, r *http.Request) {
	s.handleSelection(w, r, true)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request, followup bool) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var body selectionRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	req, err := insights.ParseRequest(body.Mode, body.Month, body.Region)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_selection", err.Error())
		return
	}
	req.Origin = insights.Origin{Surface: surface, SessionID: id}

	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	var res insights.Result
	if followup {
		st, res, err = s.service.HandleFollowup(ctx, st, req, body.Question)
	} else {
		st, res, err = s.service.HandleGenerate(ctx, st, req)
	}
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	if err := s.sessions.Save(ctx, id, st); err != nil {
		s.logger.Error("failed to save session", zap.String("session", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "session_store", "failed to save session")
		return
	}

	respondJSON(w, http.StatusOK, generationResponse{
		SessionID: id,
		Kind:      string(res.Kind),
		Text:      res.Text,
		Records:   res.Records,
		Model:     res.Model,
		Tokens:    res.Usage.TotalTokens,
		State:     st,
	})
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		respondError(w, http.StatusNotFound, "session_not_found", "session not found")
		return
	}
	s.logger.Error("session store failure", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "session_store", "session store unavailable")
}

func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	var ue *llm.UpstreamError
	switch {
	case errors.Is(err, insights.ErrEmptyQuestion):
		respondError(w, http.StatusBadRequest, "empty_question", err.Error())
	case errors.Is(err, insights.ErrUnknownMonth):
		respondError(w, http.StatusNotFound, "unknown_month", err.Error())
	case errors.Is(err, insights.ErrUnknownRegion):
		respondError(w, http.StatusNotFound, "unknown_region", err.Error())
	case errors.Is(err, insights.ErrNoFeedback):
		respondError(w, http.StatusUnprocessableEntity, "no_feedback", err.Error())
	case errors.Is(err, insights.ErrInvalidMode):
		respondError(w, http.StatusBadRequest, "invalid_selection", err.Error())
	case errors.As(err, &ue):
		respondError(w, http.StatusBadGateway, "upstream_error", ue.Error())
	default:
		s.logger.Error("generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "generation failed")
	}
}

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
