package summarylog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/raqmi/callagent/internal/dialogue"
)

// FileSink appends one compact JSON line per summary to a shared log file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open summary log: %w", err)
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Append(_ context.Context, summary dialogue.CallSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append summary: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
