package call

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raqmi/callagent/internal/artifact"
	"github.com/raqmi/callagent/internal/dialogue"
	"github.com/raqmi/callagent/internal/observability"
	"github.com/raqmi/callagent/internal/session"
	"github.com/raqmi/callagent/internal/stt"
	"github.com/raqmi/callagent/internal/summarylog"
)

// IncompleteSummary is the terminal record written when a call ends without
// the agent producing a structured summary.
type IncompleteSummary struct {
	SessionID           string  `json:"session_id"`
	CallStartTime       string  `json:"call_start_time"`
	CallEndTime         string  `json:"call_end_time"`
	CallDurationSeconds float64 `json:"call_duration_seconds"`
	Status              string  `json:"status"`
	Reason              string  `json:"reason"`
}

type Config struct {
	DataDir      string
	Greeting     string
	SystemPrompt string
	GoodbyePause time.Duration
}

// Orchestrator runs one call session per Run invocation: it bridges the
// caller connection, the recognition stream, the dialogue controller and
// the synthesizer, and persists the session's artifacts.
type Orchestrator struct {
	cfg       Config
	sessions  *session.Manager
	recognize RecognizerDialer
	generator dialogue.Generator
	synth     Synthesizer
	summaries summarylog.Sink
	metrics   *observability.Metrics
}

func New(cfg Config, sessions *session.Manager, recognize RecognizerDialer, generator dialogue.Generator, synth Synthesizer, summaries summarylog.Sink, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		sessions:  sessions,
		recognize: recognize,
		generator: generator,
		synth:     synth,
		summaries: summaries,
		metrics:   metrics,
	}
}

// callState is the mutable state of one running session. fragments and
// turnIndex are written by whichever task currently speaks for the agent:
// the greeting happens before the dialogue task starts, every later agent
// turn happens on the dialogue task.
type callState struct {
	sess  *session.Session
	store *artifact.Store
	ctrl  *dialogue.Controller
	conn  CallerConn

	fragments [][]byte
	turnIndex int

	terminated atomic.Bool
	finalize   sync.Once
	finalErr   error
}

// Run drives one call to its terminal state and blocks until both session
// tasks have stopped. Exactly one terminal summary record is written, on
// every path. The returned error is non-nil only when that record could
// not be persisted.
func (o *Orchestrator) Run(ctx context.Context, conn CallerConn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := o.sessions.Create()
	o.metrics.ActiveCalls.Set(float64(o.sessions.ActiveCount()))
	o.metrics.CallEvents.WithLabelValues("call_started").Inc()
	log.Printf("call started: session=%s", sess.ID)

	store, err := artifact.NewStore(o.cfg.DataDir, sess.ID)
	if err != nil {
		o.sessions.End(sess.ID, session.StatusIncomplete, err.Error())
		o.metrics.ActiveCalls.Set(float64(o.sessions.ActiveCount()))
		conn.Close()
		return fmt.Errorf("session %s: %w", sess.ID, err)
	}

	st := &callState{
		sess:  sess,
		store: store,
		ctrl:  dialogue.NewController(o.generator, o.cfg.SystemPrompt),
		conn:  conn,
	}

	rec, err := o.recognize.Dial(ctx)
	if err != nil {
		o.metrics.UpstreamErrors.WithLabelValues("recognition", "connect").Inc()
		log.Printf("recognition dial failed: session=%s err=%v", sess.ID, err)
		o.finalizeIncomplete(st, fmt.Sprintf("recognition upstream unavailable: %v", err))
		conn.Close()
		o.metrics.ActiveCalls.Set(float64(o.sessions.ActiveCount()))
		return st.finalErr
	}

	// The greeting is the agent's first turn and lands in history so the
	// model sees what was already said.
	st.ctrl.RecordAgentText(o.cfg.Greeting)
	o.deliverAgentTurn(ctx, st, o.cfg.Greeting)

	dialogueDone := make(chan struct{})
	go func() {
		defer close(dialogueDone)
		o.dialogueLoop(ctx, st, rec)
	}()

	readErr := o.relayLoop(st, rec)

	// Signal the dialogue task and unblock its event read. On the graceful
	// path the flag is already set and finalization already happened.
	st.terminated.Store(true)
	cancel()
	rec.Close()
	<-dialogueDone

	reason := "caller disconnected"
	if readErr != nil {
		reason = readErr.Error()
	}
	o.finalizeIncomplete(st, reason)

	conn.Close()
	o.metrics.ActiveCalls.Set(float64(o.sessions.ActiveCount()))

	final, _ := o.sessions.Get(sess.ID)
	if final != nil {
		log.Printf("call closed: session=%s status=%s", sess.ID, final.Status)
	}
	return st.finalErr
}

// relayLoop forwards caller audio into the recognition stream until the
// connection drops or the stream rejects a push. Once the call is marked
// terminated it keeps reading, so the dialogue task can finish the goodbye
// while the socket drains, but forwards nothing.
func (o *Orchestrator) relayLoop(st *callState, rec Recognizer) error {
	for {
		frame, err := st.conn.ReadFrame()
		if err != nil {
			return err
		}
		if st.terminated.Load() {
			continue
		}
		if !frame.Binary {
			log.Printf("ignoring text frame from caller: session=%s", st.sess.ID)
			continue
		}
		if err := rec.PushAudio(frame.Data); err != nil {
			o.metrics.UpstreamErrors.WithLabelValues("recognition", "push").Inc()
			return err
		}
	}
}

// dialogueLoop consumes recognition events and runs one dialogue turn per
// committed utterance. It exits when the event channel closes or the call
// reaches its terminal state.
func (o *Orchestrator) dialogueLoop(ctx context.Context, st *callState, rec Recognizer) {
	for ev := range rec.Events() {
		if ev.Type != stt.EventFinal || strings.TrimSpace(ev.Text) == "" {
			continue
		}
		if st.terminated.Load() {
			continue
		}
		if o.handleCallerTurn(ctx, st, strings.TrimSpace(ev.Text)) {
			return
		}
	}
}

// handleCallerTurn runs one full turn. It reports true when the agent ended
// the call on this turn.
func (o *Orchestrator) handleCallerTurn(ctx context.Context, st *callState, text string) bool {
	if err := st.store.AppendTranscript("User", text, time.Now().UTC()); err != nil {
		log.Printf("transcript append failed: session=%s err=%v", st.sess.ID, err)
	}
	if err := st.conn.SendText("User: " + text); err != nil {
		return false
	}

	started := time.Now()
	res, err := st.ctrl.SubmitCallerText(ctx, text)
	if err != nil {
		// The turn is abandoned but the session is not: the caller's words
		// stay in history and the next utterance gets a fresh attempt.
		o.metrics.UpstreamErrors.WithLabelValues("generation", "request").Inc()
		log.Printf("generation failed, turn dropped: session=%s err=%v", st.sess.ID, err)
		return false
	}
	o.metrics.ObserveTurnLatency(time.Since(started))

	if res.SpokenText != "" {
		o.deliverAgentTurn(ctx, st, res.SpokenText)
	}
	o.metrics.CallEvents.WithLabelValues("turn_completed").Inc()

	if !res.Terminated() {
		return false
	}

	// Leave the goodbye audible before tearing the connection down.
	select {
	case <-time.After(o.cfg.GoodbyePause):
	case <-ctx.Done():
	}
	st.terminated.Store(true)
	o.finalizeCompleted(st, res.Summary)
	return true
}

// deliverAgentTurn synthesizes one agent utterance and ships it to the
// caller. Synthesis failure downgrades the turn to text only; the words are
// still transcribed and delivered.
func (o *Orchestrator) deliverAgentTurn(ctx context.Context, st *callState, text string) {
	started := time.Now()
	audioBytes, err := o.synth.Synthesize(ctx, text)
	now := time.Now().UTC()
	if err != nil {
		o.metrics.UpstreamErrors.WithLabelValues("synthesis", "request").Inc()
		log.Printf("synthesis failed, sending text only: session=%s err=%v", st.sess.ID, err)
		if terr := st.store.AppendTranscript("Bot", text, now); terr != nil {
			log.Printf("transcript append failed: session=%s err=%v", st.sess.ID, terr)
		}
		st.conn.SendText("Bot: " + text)
		return
	}
	o.metrics.ObserveSynthesisLatency(time.Since(started))

	st.turnIndex++
	if _, werr := st.store.WriteFragment(st.turnIndex, "bot", audioBytes); werr != nil {
		log.Printf("fragment write failed: session=%s err=%v", st.sess.ID, werr)
	}
	st.fragments = append(st.fragments, audioBytes)

	if terr := st.store.AppendTranscript("Bot", text, now); terr != nil {
		log.Printf("transcript append failed: session=%s err=%v", st.sess.ID, terr)
	}
	st.conn.SendText("Bot: " + text)
	st.conn.SendAudio(audioBytes)
}

// finalizeCompleted writes the terminal artifacts for a call the agent
// closed on purpose: the merged summary, the cross-session log entry and
// the concatenated call audio.
func (o *Orchestrator) finalizeCompleted(st *callState, summary *dialogue.CallSummary) {
	st.finalize.Do(func() {
		end := time.Now().UTC()
		summary.SessionID = st.sess.ID
		summary.CallStartTime = st.sess.StartedAt.Format(time.RFC3339Nano)
		summary.CallEndTime = end.Format(time.RFC3339Nano)
		summary.CallDurationSeconds = end.Sub(st.sess.StartedAt).Seconds()

		if err := st.store.WriteSummary(summary); err != nil {
			st.finalErr = fmt.Errorf("persist call summary: session %s: %w", st.sess.ID, err)
			log.Printf("FATAL summary write failed: session=%s err=%v", st.sess.ID, err)
		}
		if err := o.summaries.Append(context.Background(), *summary); err != nil {
			o.metrics.UpstreamErrors.WithLabelValues("summarylog", "append").Inc()
			log.Printf("summary log append failed: session=%s err=%v", st.sess.ID, err)
		}
		if _, err := st.store.WriteFullCallAudio(st.fragments); err != nil {
			log.Printf("full call audio write failed: session=%s err=%v", st.sess.ID, err)
		}

		st.conn.SendText("Bot: Call ended.")
		st.conn.Close()
		o.sessions.End(st.sess.ID, session.StatusCompleted, "")
		o.metrics.CallEvents.WithLabelValues("call_completed").Inc()
	})
}

// finalizeIncomplete writes the terminal record for a call that ended
// without a summary. It is a no-op when the call already completed.
func (o *Orchestrator) finalizeIncomplete(st *callState, reason string) {
	st.finalize.Do(func() {
		end := time.Now().UTC()
		rec := IncompleteSummary{
			SessionID:           st.sess.ID,
			CallStartTime:       st.sess.StartedAt.Format(time.RFC3339Nano),
			CallEndTime:         end.Format(time.RFC3339Nano),
			CallDurationSeconds: end.Sub(st.sess.StartedAt).Seconds(),
			Status:              "incomplete",
			Reason:              reason,
		}
		if err := st.store.WriteSummary(rec); err != nil {
			st.finalErr = fmt.Errorf("persist incomplete summary: session %s: %w", st.sess.ID, err)
			log.Printf("FATAL summary write failed: session=%s err=%v", st.sess.ID, err)
		}
		o.sessions.End(st.sess.ID, session.StatusIncomplete, reason)
		o.metrics.CallEvents.WithLabelValues("call_incomplete").Inc()
	})
}
