package session

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("session not found")

// Store keeps one State per session ID. Save replaces the previous state; no
// history is retained.
type Store interface {
	Create(ctx context.Context) (string, error)
	Get(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, st State) error
	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

// Load returns the stored state for id, or an empty State when id has never
// been saved.
func Load(ctx context.Context, s Store, id string) (State, error) {
	st, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return State{}, nil
	}
	return st, err
}
