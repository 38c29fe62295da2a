package artifact

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raqmi/callagent/internal/audio"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "sess-1")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestWriteFragmentNaming(t *testing.T) {
	s := newTestStore(t)

	p1, err := s.WriteFragment(1, "bot", []byte("one"))
	if err != nil {
		t.Fatalf("WriteFragment() error = %v", err)
	}
	p2, err := s.WriteFragment(12, "bot", []byte("twelve"))
	if err != nil {
		t.Fatalf("WriteFragment() error = %v", err)
	}

	if filepath.Base(p1) != "001_bot.wav" {
		t.Fatalf("fragment name = %q, want 001_bot.wav", filepath.Base(p1))
	}
	if filepath.Base(p2) != "012_bot.wav" {
		t.Fatalf("fragment name = %q, want 012_bot.wav", filepath.Base(p2))
	}
}

func TestWriteFragmentIdempotentOverwrite(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.WriteFragment(1, "bot", []byte("first")); err != nil {
		t.Fatalf("WriteFragment() error = %v", err)
	}
	path, err := s.WriteFragment(1, "bot", []byte("second"))
	if err != nil {
		t.Fatalf("WriteFragment() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fragment: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("fragment content = %q, want overwrite not append", data)
	}

	entries, err := os.ReadDir(filepath.Join(s.Dir(), "audio_messages"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("fragment count = %d, want 1", len(entries))
	}
}

func TestWriteFullCallAudioConcatenation(t *testing.T) {
	s := newTestStore(t)

	f1 := append(bytes.Repeat([]byte{'H'}, audio.HeaderSize), []byte{1, 2, 3, 4}...) // 48 bytes
	f2 := append(bytes.Repeat([]byte{'h'}, audio.HeaderSize), bytes.Repeat([]byte{9}, 16)...) // 60 bytes

	path, err := s.WriteFullCallAudio([][]byte{f1, f2})
	if err != nil {
		t.Fatalf("WriteFullCallAudio() error = %v", err)
	}
	if filepath.Base(path) != "complete_call_sess-1.wav" {
		t.Fatalf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read full audio: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("full audio length = %d, want 64", len(data))
	}
	want := append(append([]byte{}, f1...), f2[audio.HeaderSize:]...)
	if !bytes.Equal(data, want) {
		t.Fatalf("full audio is not F1 ++ F2[44:]")
	}
}

func TestWriteFullCallAudioNoFragments(t *testing.T) {
	s := newTestStore(t)
	path, err := s.WriteFullCallAudio(nil)
	if err != nil {
		t.Fatalf("WriteFullCallAudio() error = %v", err)
	}
	if path != "" {
		t.Fatalf("path = %q, want no file for empty session", path)
	}
}

func TestAppendTranscriptOrderAndFormat(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	if err := s.AppendTranscript("Bot", "Hello! How are you today?", ts); err != nil {
		t.Fatalf("AppendTranscript() error = %v", err)
	}
	if err := s.AppendTranscript("User", "I have a complaint", ts.Add(3*time.Second)); err != nil {
		t.Fatalf("AppendTranscript() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), "transcription_sess-1.txt"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}
	if lines[0] != "[2026-03-14 03:09:26 PM] Bot: Hello! How are you today?" {
		t.Fatalf("line[0] = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[2026-03-14 03:09:29 PM] User:") {
		t.Fatalf("line[1] = %q", lines[1])
	}
}

func TestWriteSummary(t *testing.T) {
	s := newTestStore(t)
	record := map[string]any{"session_id": "sess-1", "status": "incomplete", "reason": "caller disconnected"}

	if err := s.WriteSummary(record); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), "call_summary.json"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if got["status"] != "incomplete" || got["reason"] != "caller disconnected" {
		t.Fatalf("summary = %v", got)
	}
}
