package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteSendsFullHistory(t *testing.T) {
	var gotReq chatCompletionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  May I have your name, please?  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "gpt-4o-mini")
	history := []Message{
		{Role: "system", Content: "script"},
		{Role: "user", Content: "hi"},
	}
	reply, err := c.Complete(context.Background(), history)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "May I have your name, please?" {
		t.Fatalf("reply = %q, want trimmed content", reply)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("upstream did not receive full history: %+v", gotReq.Messages)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", gotReq.Model)
	}
}

func TestCompleteUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, "")
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "status 429") {
		t.Fatalf("Complete() error = %v, want status error", err)
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "no choices", body: `{"choices":[]}`},
		{name: "blank content", body: `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient("k", srv.URL, "m")
			_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
			if !errors.Is(err, ErrEmptyCompletion) {
				t.Fatalf("Complete() error = %v, want ErrEmptyCompletion", err)
			}
		})
	}
}
