// Package app wires configuration into the insights pipeline for the
// command-line binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"

	"feedback-insights/internal/config"
	"feedback-insights/internal/feedback"
	"feedback-insights/internal/insights"
	"feedback-insights/internal/llm"
	"feedback-insights/internal/observability"
	"feedback-insights/internal/prompt"
	"feedback-insights/internal/storage"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Table    *feedback.Table
	Service  *insights.Service
	Recorder storage.Recorder
	Metrics  *observability.Metrics
}

// NewLogger builds a production zap logger writing JSON to stderr. verbose
// forces debug level.
func NewLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// LoadFeedback reads the feedback table from Google Sheets when a sheet ID is
// configured, otherwise from the local workbook. Any failure is a
// *feedback.LoadError.
func LoadFeedback(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*feedback.Table, error) {
	if cfg.UsesGoogleSheet() {
		client, err := feedback.GoogleHTTPClient(ctx, cfg.GoogleCredentialsJSON, cfg.GoogleTokenFile)
		if err != nil {
			return nil, &feedback.LoadError{Source: "sheets:" + cfg.GoogleSheetID, Err: err}
		}
		loader, err := feedback.NewSheetsLoader(ctx, cfg.GoogleSheetID, cfg.GoogleSheetRange, option.WithHTTPClient(client))
		if err != nil {
			return nil, err
		}
		logger.Info("loading feedback", zap.String("source", loader.Source()))
		return loader.Load(ctx)
	}
	logger.Info("loading feedback", zap.String("source", cfg.FeedbackFile))
	return feedback.Load(cfg.FeedbackFile, cfg.FeedbackSheet)
}

// New loads feedback and assembles the service. A load failure is returned
// unchanged so callers can stop before serving anything.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	tbl, err := LoadFeedback(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if from, to, ok := tbl.DateRange(); ok {
		logger.Info("feedback loaded",
			zap.String("source", tbl.Source()),
			zap.Int("records", tbl.Len()),
			zap.Time("from", from),
			zap.Time("to", to),
		)
	} else {
		logger.Warn("feedback source has no records", zap.String("source", tbl.Source()))
	}

	client, err := llm.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var rec storage.Recorder = storage.Nop{}
	if cfg.AuditLogPath != "" {
		fr, err := storage.NewFileRecorder(cfg.AuditLogPath)
		if err != nil {
			logger.Warn("audit log disabled", zap.String("path", cfg.AuditLogPath), zap.Error(err))
		} else {
			rec = fr
		}
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	svc := insights.NewService(insights.Deps{
		Table:     tbl,
		Assembler: prompt.NewAssembler(cfg.BrandName),
		Client:    client,
		Recorder:  rec,
		Metrics:   metrics,
		Logger:    logger,
	})
	return &App{
		Config:   cfg,
		Logger:   logger,
		Table:    tbl,
		Service:  svc,
		Recorder: rec,
		Metrics:  metrics,
	}, nil
}
