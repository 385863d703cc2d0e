package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps session replies in PostgreSQL so they survive restarts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `CREATE TABLE IF NOT EXISTS insight_sessions (
		id TEXT PRIMARY KEY,
		overall_summary TEXT NOT NULL DEFAULT '',
		custom_response TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.pool.Exec(ctx, `INSERT INTO insight_sessions (id) VALUES ($1)`, id); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (State, error) {
	var st State
	err := s.pool.QueryRow(ctx,
		`SELECT overall_summary, custom_response FROM insight_sessions WHERE id=$1`, id,
	).Scan(&st.OverallSummary, &st.CustomResponse)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("get session: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, st State) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO insight_sessions (id, overall_summary, custom_response, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE
		 SET overall_summary = EXCLUDED.overall_summary,
		     custom_response = EXCLUDED.custom_response,
		     updated_at = now()`,
		id, st.OverallSummary, st.CustomResponse,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
