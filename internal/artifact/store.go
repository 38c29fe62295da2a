package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raqmi/callagent/internal/audio"
)

// transcriptTimeLayout matches the human-readable stamp used on every line.
const transcriptTimeLayout = "2006-01-02 03:04:05 PM"

// Store owns the flat artifact tree for one session:
//
//	<root>/audio_messages/NNN_<tag>.wav
//	<root>/transcription_<id>.txt
//	<root>/call_summary.json
//	<root>/complete_call_<id>.wav
//
// It is exclusively held by one session for the session's lifetime.
type Store struct {
	sessionID string
	root      string
}

func NewStore(dataDir, sessionID string) (*Store, error) {
	root := filepath.Join(dataDir, sessionID)
	if err := os.MkdirAll(filepath.Join(root, "audio_messages"), 0o755); err != nil {
		return nil, fmt.Errorf("create session folder: %w", err)
	}
	return &Store{sessionID: sessionID, root: root}, nil
}

func (s *Store) Dir() string { return s.root }

// WriteFragment stores one turn's audio under a zero-padded index. Writing
// the same index twice overwrites the file.
func (s *Store) WriteFragment(index int, speakerTag string, data []byte) (string, error) {
	path := filepath.Join(s.root, "audio_messages", fmt.Sprintf("%03d_%s.wav", index, speakerTag))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audio fragment: %w", err)
	}
	return path, nil
}

// WriteFullCallAudio concatenates the session's fragments into one playable
// file. With no fragments there is nothing to write.
func (s *Store) WriteFullCallAudio(fragments [][]byte) (string, error) {
	if len(fragments) == 0 {
		return "", nil
	}
	path := filepath.Join(s.root, "complete_call_"+s.sessionID+".wav")
	if err := os.WriteFile(path, audio.ConcatWAV(fragments), 0o644); err != nil {
		return "", fmt.Errorf("write full call audio: %w", err)
	}
	return path, nil
}

// AppendTranscript adds one line in chronological order. No retries, no
// batching; the caller decides whether a failure matters.
func (s *Store) AppendTranscript(speakerTag, text string, ts time.Time) error {
	path := filepath.Join(s.root, "transcription_"+s.sessionID+".txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s: %s\n\n", ts.UTC().Format(transcriptTimeLayout), speakerTag, text)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// WriteSummary persists the session's single terminal record, either a call
// summary or an incomplete-call record.
func (s *Store) WriteSummary(v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	path := filepath.Join(s.root, "call_summary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
