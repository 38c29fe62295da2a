package summarylog

import (
	"context"
	"strings"

	"github.com/raqmi/callagent/internal/dialogue"
)

// Sink is the cross-session append-only log of every call summary produced
// by any session. It is constructed once at server startup and handed to the
// orchestrator explicitly; there is no package-level default.
type Sink interface {
	Append(ctx context.Context, summary dialogue.CallSummary) error
	Close() error
}

// New creates a postgres-backed sink when configured, otherwise a JSONL file.
func New(ctx context.Context, path, databaseURL string) (Sink, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewFileSink(path)
	}
	return NewPostgresSink(ctx, databaseURL)
}
