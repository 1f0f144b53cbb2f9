package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/inbound"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

const writeTimeout = 5 * time.Second

// Handler mounts one view per WebSocket connection and streams its
// presentation model on every state change.
type Handler struct {
	factory  inbound.ViewFactory
	logger   outbound.Logger
	upgrader websocket.Upgrader
	sessions map[string]*session
	mu       sync.RWMutex
	rootCtx  context.Context
}

// session is one connected client bound to its own view instance
type session struct {
	id      string
	conn    *websocket.Conn
	view    inbound.View
	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// clientMessage is an action sent by the client
type clientMessage struct {
	Type     string `json:"type"`
	Term     string `json:"term,omitempty"`
	LockerID string `json:"lockerId,omitempty"`
}

type stateFrame struct {
	Type  string `json:"type"`
	View  string `json:"view"`
	Model any    `json:"model"`
}

type errorFrame struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Error  string `json:"error"`
	Kind   string `json:"kind"`
}

func NewHandler(factory inbound.ViewFactory, logger outbound.Logger, rootCtx context.Context) *Handler {
	return &Handler{
		factory: factory,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // origins are filtered by the CORS middleware
			},
		},
		sessions: make(map[string]*session),
		rootCtx:  rootCtx,
	}
}

// HandleConnection upgrades the request and runs a session for viewName
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, viewName string) {
	view, err := h.factory.Open(viewName)
	if err != nil {
		h.logger.Warn("Rejected view session", "view", viewName, "error", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Error upgrading to WebSocket", "error", err)
		view.Retire()
		return
	}

	ctx, cancel := context.WithCancel(h.rootCtx)
	s := &session{
		id:     uuid.NewString(),
		conn:   conn,
		view:   view,
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	h.logger.Info("View session opened", "session", s.id, "view", viewName)

	if err := s.writeJSON(map[string]string{
		"type":    "connected",
		"session": s.id,
		"view":    viewName,
	}); err != nil {
		h.closeSession(s)
		return
	}

	s.wg.Add(1)
	go h.streamUpdates(s)

	h.runAction(s, clientMessage{Type: "refresh"})

	go h.handleSession(s)
}

// streamUpdates pushes the model after each change until the view is retired
func (h *Handler) streamUpdates(s *session) {
	defer s.wg.Done()

	// first frame shows the idle or loading state
	if err := h.sendState(s); err != nil {
		return
	}

	for range s.view.Updates() {
		if err := h.sendState(s); err != nil {
			h.logger.Debug("Stopping view stream", "session", s.id, "error", err)
			return
		}
	}
}

func (h *Handler) sendState(s *session) error {
	return s.writeJSON(stateFrame{
		Type:  "state",
		View:  s.view.Name(),
		Model: s.view.Render(),
	})
}

// handleSession reads client actions until the connection closes
func (h *Handler) handleSession(s *session) {
	defer h.closeSession(s)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket error", "session", s.id, "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(s, "", errors.New("invalid message"))
			continue
		}

		h.runAction(s, msg)
	}
}

// runAction applies msg to the session view. Loads and commands run in the
// background so the read loop keeps serving the client.
func (h *Handler) runAction(s *session, msg clientMessage) {
	switch msg.Type {
	case "ping":
		s.writeJSON(map[string]string{"type": "pong"})

	case "refresh":
		h.background(s, msg.Type, s.view.Refresh)

	case "search":
		uv, ok := s.view.(inbound.UsersView)
		if !ok {
			h.sendError(s, msg.Type, errors.New("search is not supported by this view"))
			return
		}
		uv.Search(msg.Term)

	case "select":
		lv, ok := s.view.(inbound.LockersView)
		if !ok {
			h.sendError(s, msg.Type, errors.New("selection is not supported by this view"))
			return
		}
		lv.Select(msg.LockerID)

	case "clearSelection":
		lv, ok := s.view.(inbound.LockersView)
		if !ok {
			h.sendError(s, msg.Type, errors.New("selection is not supported by this view"))
			return
		}
		lv.ClearSelection()

	case "forceOpen":
		lv, ok := s.view.(inbound.LockersView)
		if !ok {
			h.sendError(s, msg.Type, errors.New("force open is not supported by this view"))
			return
		}
		if msg.LockerID != "" {
			lv.Select(msg.LockerID)
		}
		h.background(s, msg.Type, lv.ForceOpen)

	default:
		h.sendError(s, msg.Type, errors.New("unknown action"))
	}
}

func (h *Handler) background(s *session, action string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := fn(s.ctx); err != nil {
			if errors.Is(err, model.ErrViewRetired) || s.ctx.Err() != nil {
				return
			}
			h.sendError(s, action, err)
		}
	}()
}

func (h *Handler) sendError(s *session, action string, err error) {
	kind := "error"
	switch {
	case model.IsCommandError(err):
		kind = "command"
	case model.IsTransient(err):
		kind = "transient"
	case model.IsValidationError(err):
		kind = "validation"
	}

	if werr := s.writeJSON(errorFrame{
		Type:   "error",
		Action: action,
		Error:  err.Error(),
		Kind:   kind,
	}); werr != nil {
		h.logger.Debug("Failed to send error frame", "session", s.id, "error", werr)
	}
}

// closeSession retires the view so late responses are dropped, then releases the connection
func (h *Handler) closeSession(s *session) {
	s.cancel()
	s.view.Retire()
	s.conn.Close()
	s.wg.Wait()

	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()

	h.logger.Info("View session closed", "session", s.id, "view", s.view.Name())
}

// SessionCount returns the number of open sessions
func (h *Handler) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (s *session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

// Cleanup closes every session, used on shutdown
func (h *Handler) Cleanup() {
	h.logger.Info("Cleaning up WebSocket handler resources")

	h.mu.RLock()
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Server shutting down"),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()

		// the read loop fails and closes the session
		s.conn.Close()
	}

	h.logger.Info("WebSocket handler cleanup complete", "sessions", len(sessions))
}
