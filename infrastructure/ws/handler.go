// Package ws serves the realtime websocket endpoint.
package ws

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain/event"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// CloseUnauthenticated is sent when the handshake credential is refused.
	CloseUnauthenticated = 4401

	ReasonNoToken      = "authentication error: no token"
	ReasonInvalidToken = "authentication error: invalid token"
)

type Handler struct {
	log      *slog.Logger
	gate     auth.Authenticator
	session  contract.ISession
	recorder event.Recorder
	opts     Options
	upgrader websocket.Upgrader

	mu      sync.Mutex
	conns   map[*Connection]struct{}
	closing bool
	serving sync.WaitGroup
}

func NewHandler(log *slog.Logger, gate auth.Authenticator, session contract.ISession,
	origins OriginPolicy, recorder event.Recorder, opts Options) *Handler {
	return &Handler{
		log:      log,
		gate:     gate,
		session:  session,
		recorder: recorder,
		opts:     opts.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if origins.Check(r) {
					return true
				}
				log.Warn("Blocked websocket connection from disallowed origin", "origin", r.Header.Get("Origin"))
				return false
			},
		},
		conns: make(map[*Connection]struct{}),
	}
}

// ServeHTTP upgrades first, then authenticates, so that a refused client receives
// an explicit reason and close code instead of a bare HTTP error.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	token := credential(r)
	if token == "" {
		h.reject(conn, ReasonNoToken)
		return
	}
	userID, err := h.gate.Authenticate(token)
	if err != nil {
		h.log.Info("Websocket handshake refused", "remote", r.RemoteAddr, "error", err)
		h.reject(conn, ReasonInvalidToken)
		return
	}

	c := NewConnection(conn, h.log, h.recorder, h.opts)
	if !h.track(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(h.opts.WriteWait))
		_ = conn.Close()
		return
	}
	defer h.untrack(c)
	c.Serve(r.Context(), h.session, userID)
}

// credential reads the token query parameter, then the Authorization header.
func credential(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get("Authorization"))
}

func (h *Handler) reject(conn *websocket.Conn, reason string) {
	defer func() { _ = conn.Close() }()
	deadline := time.Now().Add(h.opts.WriteWait)
	_ = conn.SetWriteDeadline(deadline)
	data, err := json.Marshal(event.New(event.ConnectionRejectedType, event.ConnectionRejected{Reason: reason}))
	if err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(CloseUnauthenticated, reason), deadline)
}

// track refuses new connections once CloseAll has started.
func (h *Handler) track(c *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.conns[c] = struct{}{}
	h.serving.Add(1)
	return true
}

func (h *Handler) untrack(c *Connection) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.serving.Done()
}

// CloseAll closes every open websocket, hijacked connections are not closed by http.Server.Shutdown.
// It returns once every session has been released, in-flight sends included.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	h.closing = true
	conns := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
	h.serving.Wait()
}
