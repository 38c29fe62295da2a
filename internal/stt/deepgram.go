package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// EventType identifies recognition event variants.
type EventType string

const (
	EventPartial EventType = "partial"
	EventFinal   EventType = "final"
)

// Event is one recognized transcript fragment. Text is always non-empty.
type Event struct {
	Type       EventType
	Text       string
	Confidence float64
}

// ErrStreamClosed is returned by PushAudio once the stream is closed, either
// locally or by the upstream.
var ErrStreamClosed = errors.New("recognition stream closed")

type Config struct {
	APIKey    string
	ListenURL string
}

// Client dials Deepgram realtime listen streams.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.ListenURL == "" {
		cfg.ListenURL = "wss://api.deepgram.com/v1/listen"
	}
	return &Client{cfg: cfg}
}

// Dial opens one streaming connection configured for 16 kHz mono linear PCM.
func (c *Client) Dial(ctx context.Context) (*Stream, error) {
	u, err := url.Parse(c.cfg.ListenURL)
	if err != nil {
		return nil, fmt.Errorf("parse listen url: %w", err)
	}
	q := u.Query()
	q.Set("model", "nova-2")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", "16000")
	q.Set("channels", "1")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	if c.cfg.APIKey != "" {
		headers.Set("Authorization", "Token "+c.cfg.APIKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("dial recognition websocket: %w", err)
	}

	s := &Stream{conn: conn, events: make(chan Event, 256)}
	go s.readLoop()
	return s, nil
}

// Stream is one live recognition session. Events() yields partial and final
// transcripts until the stream ends; the channel closing is not an error.
type Stream struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	events    chan Event
}

// PushAudio forwards one raw PCM frame to the upstream.
func (s *Stream) PushAudio(frame []byte) error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("%w: %w", ErrStreamClosed, err)
	}
	return nil
}

func (s *Stream) Events() <-chan Event { return s.events }

func (s *Stream) Close() error {
	var retErr error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		// Ask the upstream to flush before tearing the socket down.
		_ = s.conn.WriteJSON(map[string]string{"type": "CloseStream"})
		s.writeMu.Unlock()
		retErr = s.conn.Close()
	})
	return retErr
}

func (s *Stream) readLoop() {
	defer func() {
		s.closed.Store(true)
		s.closeOnce.Do(func() {
			_ = s.conn.Close()
		})
		close(s.events)
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		ev, ok := parseListenMessage(data)
		if !ok {
			continue
		}
		select {
		case s.events <- ev:
		default:
			// Consumer stopped draining; dropping beats blocking the reader.
		}
	}
}

type listenMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// parseListenMessage extracts a recognition event from one upstream message.
// The first alternative is used; messages without transcript text (metadata,
// keepalives, empty results) are skipped.
func parseListenMessage(data []byte) (Event, bool) {
	var msg listenMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, false
	}
	if len(msg.Channel.Alternatives) == 0 {
		return Event{}, false
	}
	alt := msg.Channel.Alternatives[0]
	if alt.Transcript == "" {
		return Event{}, false
	}
	ev := Event{Type: EventPartial, Text: alt.Transcript, Confidence: alt.Confidence}
	if msg.IsFinal {
		ev.Type = EventFinal
	}
	return ev, true
}
