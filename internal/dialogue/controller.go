package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/raqmi/callagent/internal/llm"
)

// Generator produces one reply from the full conversation history.
type Generator interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// TurnResult is the outcome of one caller turn. Summary is nil unless the
// reply embedded a parseable structured record; the call is over iff
// Summary is present with EndCall set.
type TurnResult struct {
	SpokenText string
	Summary    *CallSummary
}

// Terminated reports whether this turn ends the call.
func (r TurnResult) Terminated() bool {
	return r.Summary != nil && r.Summary.EndCall
}

// Controller owns the conversation history for one session. It is driven by
// a single goroutine; history is append-only and never reordered.
type Controller struct {
	gen     Generator
	history []llm.Message
}

func NewController(gen Generator, systemPrompt string) *Controller {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Controller{
		gen:     gen,
		history: []llm.Message{{Role: "system", Content: systemPrompt}},
	}
}

// SubmitCallerText appends a caller turn, invokes the generation upstream
// with the full history, appends the resulting agent turn, and interprets
// any embedded end-of-call record. A generation failure aborts the current
// turn only; the caller turn stays in history.
func (c *Controller) SubmitCallerText(ctx context.Context, text string) (TurnResult, error) {
	c.history = append(c.history, llm.Message{Role: "user", Content: text})

	reply, err := c.gen.Complete(ctx, c.history)
	if err != nil {
		return TurnResult{}, fmt.Errorf("generate reply: %w", err)
	}
	c.history = append(c.history, llm.Message{Role: "assistant", Content: reply})

	spoken, summary := ExtractPayload(reply)
	return TurnResult{SpokenText: spoken, Summary: summary}, nil
}

// RecordAgentText appends an agent turn that was produced outside the
// generation upstream, such as the scripted greeting, so later completions
// see everything the caller has heard.
func (c *Controller) RecordAgentText(text string) {
	c.history = append(c.history, llm.Message{Role: "assistant", Content: text})
}

// History returns a copy of the conversation so far.
func (c *Controller) History() []llm.Message {
	out := make([]llm.Message, len(c.history))
	copy(out, c.history)
	return out
}
