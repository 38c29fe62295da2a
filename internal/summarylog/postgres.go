package summarylog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raqmi/callagent/internal/dialogue"
)

// PostgresSink keeps the cross-session summary log in PostgreSQL for
// deployments where a shared file is not practical.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresSink{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS call_summaries (
			session_id TEXT PRIMARY KEY,
			agent_name TEXT NOT NULL,
			client_name TEXT NOT NULL,
			transaction_id TEXT NOT NULL,
			problem_description TEXT NOT NULL,
			user_rating TEXT NOT NULL,
			call_start_time TEXT NOT NULL,
			call_end_time TEXT NOT NULL,
			call_duration_seconds DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_call_summaries_created ON call_summaries (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresSink) Append(ctx context.Context, summary dialogue.CallSummary) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO call_summaries (
			session_id, agent_name, client_name, transaction_id,
			problem_description, user_rating, call_start_time, call_end_time,
			call_duration_seconds
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (session_id) DO NOTHING`,
		summary.SessionID,
		summary.AgentName,
		summary.ClientName,
		summary.TransactionID,
		summary.ProblemDescription,
		summary.UserRating,
		summary.CallStartTime,
		summary.CallEndTime,
		summary.CallDurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("append summary: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
