package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"feedback-insights/internal/config"
	"feedback-insights/internal/feedback"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("warn", false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = NewLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feedback.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_FromCSV(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		FeedbackFile:     writeCSV(t, "St/Prov/Region,Date,Review\nCA,2024-01-05,cold fries\nNY,2024-02-09,slow\n"),
		LLMProvider:      config.ProviderOpenAI,
		OpenAIModel:      "gpt-4o-mini",
		AuditLogPath:     filepath.Join(dir, "logs", "gen.jsonl"),
		MetricsNamespace: "app_test",
	}

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, a.Table.Len())
	assert.Equal(t, []string{"All", "2024-01", "2024-02"}, a.Service.Overview().Months)
	assert.FileExists(t, cfg.AuditLogPath)
}

func TestNew_LoadErrorIsReturned(t *testing.T) {
	cfg := &config.Config{
		FeedbackFile:     filepath.Join(t.TempDir(), "missing.xlsx"),
		MetricsNamespace: "app_test",
	}
	_, err := New(context.Background(), cfg, zap.NewNop())

	var le *feedback.LoadError
	require.ErrorAs(t, err, &le)
}

func TestNew_MissingColumnIsLoadError(t *testing.T) {
	cfg := &config.Config{
		FeedbackFile:     writeCSV(t, "Region,Date,Review\nCA,2024-01-05,x\n"),
		MetricsNamespace: "app_test",
	}
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, feedback.ErrMissingColumn)
}

func TestLoadFeedback_BadGoogleCredentials(t *testing.T) {
	cfg := &config.Config{GoogleSheetID: "sheet", GoogleCredentialsJSON: "{not json"}
	_, err := LoadFeedback(context.Background(), cfg, zap.NewNop())

	var le *feedback.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "sheets:sheet", le.Source)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := &config.Config{
		FeedbackFile:     writeCSV(t, "St/Prov/Region,Date,Review\nCA,2024-01-05,x\n"),
		LLMProvider:      "mystery",
		MetricsNamespace: "app_test",
	}
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
