package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "logs", "generations.jsonl")
	rec, err := NewFileRecorder(p)
	require.NoError(t, err)

	ev1 := Event{Timestamp: time.Unix(1, 0).UTC(), SessionID: "a", Kind: "overall_summary", Mode: "overall", Month: "All", Records: 2000, Reply: "summary"}
	ev2 := Event{Timestamp: time.Unix(2, 0).UTC(), SessionID: "a", Kind: "custom_response", Mode: "slice", Month: "2024-10", Region: "CA", Question: "why?", Reply: "because"}
	require.NoError(t, rec.Append(ev1))
	require.NoError(t, rec.Append(ev2))

	events, err := rec.Load()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ev1, events[0])
	assert.Equal(t, ev2, events[1])

	st, err := os.Stat(p)
	require.NoError(t, err)
	assert.NotZero(t, st.Size())
}

func TestFileRecorder_SkipsMalformedLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(p, []byte("not json\n\n{\"session_id\":\"x\"}\n"), 0o644))

	rec, err := NewFileRecorder(p)
	require.NoError(t, err)
	events, err := rec.Load()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "x", events[0].SessionID)
}
