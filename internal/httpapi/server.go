package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raqmi/callagent/internal/call"
	"github.com/raqmi/callagent/internal/config"
	"github.com/raqmi/callagent/internal/observability"
	"github.com/raqmi/callagent/internal/session"
)

// CallRunner drives one call on an upgraded caller connection and returns
// when the call is over.
type CallRunner interface {
	Run(ctx context.Context, conn call.CallerConn) error
}

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	runner   CallRunner
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
	static   http.Handler
}

func New(cfg config.Config, sessions *session.Manager, runner CallRunner, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		runner:   runner,
		metrics:  metrics,
		static:   newStaticHandler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only browser connections from the same origin may open a
				// mic session, unless explicitly relaxed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/ws", s.handleCallWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"active_calls": s.sessions.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.runner == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// handleCallWS upgrades the connection and hands it to the orchestrator.
// The handler blocks for the whole call; the orchestrator owns teardown.
func (s *Server) handleCallWS(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "call runner not configured")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	conn.SetReadLimit(2 << 20)
	caller := &wsCallerConn{conn: conn}
	defer caller.Close()

	s.metrics.CallEvents.WithLabelValues("ws_connected").Inc()
	_ = s.runner.Run(r.Context(), caller)
	s.metrics.CallEvents.WithLabelValues("ws_disconnected").Inc()
}

// wsCallerConn adapts a gorilla connection to the orchestrator's framed
// view. Writes are serialized here because both session tasks may send.
type wsCallerConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

func (c *wsCallerConn) ReadFrame() (call.Frame, error) {
	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		return call.Frame{}, err
	}
	if msgType == websocket.BinaryMessage {
		return call.Frame{Binary: true, Data: data}, nil
	}
	return call.Frame{Text: string(data)}, nil
}

func (c *wsCallerConn) SendText(line string) error {
	return c.write(websocket.TextMessage, []byte(line))
}

func (c *wsCallerConn) SendAudio(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *wsCallerConn) write(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(msgType, data)
}

func (c *wsCallerConn) Close() error {
	var err error
	c.once.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
