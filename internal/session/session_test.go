package session

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSlots(t *testing.T) {
	var st State
	assert.Equal(t, "", st.Get(SlotOverall))
	assert.Equal(t, "", st.Get(SlotCustom))
	assert.False(t, st.HasSummary())

	next := st.With(SlotOverall, "summary")
	assert.Equal(t, "summary", next.Get(SlotOverall))
	assert.Equal(t, "", next.Get(SlotCustom))
	assert.Equal(t, "", st.Get(SlotOverall), "With must not modify the receiver")

	next = next.With(SlotCustom, "answer").With(SlotOverall, "summary 2")
	assert.Equal(t, "summary 2", next.OverallSummary)
	assert.Equal(t, "answer", next.CustomResponse)
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("custom_response")
	require.NoError(t, err)
	assert.Equal(t, SlotCustom, s)

	_, err = ParseSlot("history")
	assert.Error(t, err)
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	id, err := s.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	st, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, State{}, st)

	require.NoError(t, s.Save(ctx, id, st.With(SlotOverall, "one")))
	require.NoError(t, s.Save(ctx, id, State{OverallSummary: "two", CustomResponse: "q"}))
	st, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, State{OverallSummary: "two", CustomResponse: "q"}, st)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st, err = Load(ctx, s, "missing")
	require.NoError(t, err)
	assert.Equal(t, State{}, st)

	require.NoError(t, s.Save(ctx, "tg-42", State{CustomResponse: "x"}))
	st, err = Load(ctx, s, "tg-42")
	require.NoError(t, err)
	assert.Equal(t, "x", st.CustomResponse)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestNewStoreDefaultsToMemory(t *testing.T) {
	s, err := NewStore(context.Background(), "  ")
	require.NoError(t, err)
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), url)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}
