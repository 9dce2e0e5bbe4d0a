package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/warmglow/reservation-platform/internal/conversation"
	"github.com/warmglow/reservation-platform/internal/support"
	"github.com/warmglow/reservation-platform/pkg/logging"
)

// SessionService persists sessions and messages. Satisfied by
// *support.SessionStore; nil means the widget runs without a durable log.
type SessionService interface {
	CreateSession(ctx context.Context, channel, userAgent string) (*support.Session, error)
	AppendMessage(ctx context.Context, sessionID uuid.UUID, role support.Role, content string) (*support.Message, error)
	ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]support.Message, error)
}

// Handler serves the widget's HTTP and WebSocket surface.
type Handler struct {
	engine *conversation.Engine
	store  SessionService
	cache  *StateCache
	logger *logging.Logger

	mu   sync.Mutex
	seen map[uuid.UUID]struct{}
}

// NewHandler wires the widget transport. store and cache may be nil.
func NewHandler(engine *conversation.Engine, store SessionService, cache *StateCache, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine: engine,
		store:  store,
		cache:  cache,
		logger: logger.Component("webchat"),
		seen:   make(map[uuid.UUID]struct{}),
	}
}

type inboundMessage struct {
	Type       string `json:"type"` // "message", "quick", "slot", "templateGroup", "template", "switchFaq", "ping"
	SessionID  string `json:"sessionId"`
	Text       string `json:"text"`
	Action     string `json:"action"` // "booking" or "question", for type "quick"
	SlotID     string `json:"slotId"`
	GroupTitle string `json:"groupTitle"`
	TemplateID string `json:"templateId"`
}

type outboundMessage struct {
	Type      string          `json:"type"` // "session", "message", "history", "error", "pong"
	SessionID string          `json:"sessionId,omitempty"`
	Role      string          `json:"role,omitempty"`
	Text      string          `json:"text,omitempty"`
	Step      string          `json:"step,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Messages  []CachedMessage `json:"messages,omitempty"`
}

// HandleCreateSession opens a chat session and greets it.
// POST /api/support/chat-sessions
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.openSession(r)
	if err != nil {
		h.logger.Error("create session failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to create chat session"})
		return
	}

	replies := h.engine.Open(r.Context(), sessionID)
	h.cacheReplies(r, sessionID, replies)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"sessionId": sessionID.String(),
		"messages":  replies,
	})
}

// HandleAppendMessage logs one transcript entry from the widget.
// POST /api/support/chat-sessions/{id}/messages
func (h *Handler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "malformed session id"})
		return
	}

	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	role := support.Role(strings.ToUpper(req.Role))
	if role != support.RoleUser && role != support.RoleBot {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "role must be USER or BOT"})
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "message log unavailable"})
		return
	}

	msg, err := h.store.AppendMessage(r.Context(), sessionID, role, req.Content)
	if errors.Is(err, support.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "chat session not found"})
		return
	}
	if err != nil {
		h.logger.Error("append message failed", "error", err, "session_id", sessionID)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": map[string]any{
			"id":        msg.ID.String(),
			"role":      string(msg.Role),
			"content":   msg.Content,
			"createdAt": msg.CreatedAt.Format(time.RFC3339),
		},
	})
}

// HandleListMessages returns a session's logged transcript, oldest first.
// GET /api/support/chat-sessions/{id}/messages
func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "malformed session id"})
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	if h.store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": []any{}})
		return
	}
	msgs, err := h.store.ListMessages(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("list messages failed", "error", err, "session_id", sessionID)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to load messages"})
		return
	}

	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"id":        m.ID.String(),
			"role":      string(m.Role),
			"content":   m.Content,
			"createdAt": m.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": out})
}

// HandleChatMessage is the HTTP fallback for one conversation turn.
// POST /api/chat/message
func (h *Handler) HandleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	var sessionID uuid.UUID
	var greeting []string
	if req.SessionID == "" {
		id, err := h.openSession(r)
		if err != nil {
			h.logger.Error("create session failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to create chat session"})
			return
		}
		sessionID = id
		greeting = h.engine.Open(r.Context(), sessionID)
		h.cacheReplies(r, sessionID, greeting)
	} else {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "malformed session id"})
			return
		}
		sessionID = id
		h.rehydrate(r, sessionID)
	}

	ev, ok := h.buildEvent(r, req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "unsupported message type"})
		return
	}

	replies := h.engine.Handle(r.Context(), sessionID, ev)
	h.cacheUserTurn(r, sessionID, req)
	h.cacheReplies(r, sessionID, replies)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": sessionID.String(),
		"replies":   append(greeting, replies...),
		"step":      string(h.engine.StateOf(sessionID).Step),
	})
}

// HandleWebSocket runs the live conversation loop.
// GET /api/chat/ws
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()

	var sessionID uuid.UUID
	fresh := false
	if raw := r.URL.Query().Get("session"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = websocket.JSON.Send(conn, outboundMessage{Type: "error", Text: "malformed session id"})
			return
		}
		sessionID = id
		h.rehydrate(r, sessionID)
	} else {
		id, err := h.openSession(r)
		if err != nil {
			h.logger.Error("create session failed", "error", err)
			_ = websocket.JSON.Send(conn, outboundMessage{Type: "error", Text: "failed to create chat session"})
			return
		}
		sessionID = id
		fresh = true
	}

	_ = websocket.JSON.Send(conn, outboundMessage{Type: "session", SessionID: sessionID.String()})

	if history, err := h.cache.History(ctx, sessionID); err == nil && len(history) > 0 {
		_ = websocket.JSON.Send(conn, outboundMessage{Type: "history", Messages: history})
	}

	if fresh {
		replies := h.engine.Open(ctx, sessionID)
		h.cacheReplies(r, sessionID, replies)
		h.sendReplies(conn, sessionID, replies)
	}

	h.logger.Info("connection opened", "session_id", sessionID)

	for {
		var msg inboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, outboundMessage{Type: "pong"})
			continue
		}

		ev, ok := h.buildEvent(r, msg)
		if !ok {
			continue
		}
		if txt, isText := ev.(conversation.TextEvent); isText && strings.TrimSpace(txt.Text) == "" {
			continue
		}

		replies := h.engine.Handle(ctx, sessionID, ev)
		h.cacheUserTurn(r, sessionID, msg)
		h.cacheReplies(r, sessionID, replies)
		h.sendReplies(conn, sessionID, replies)
	}
}

func (h *Handler) sendReplies(conn *websocket.Conn, sessionID uuid.UUID, replies []string) {
	step := string(h.engine.StateOf(sessionID).Step)
	for _, reply := range replies {
		_ = websocket.JSON.Send(conn, outboundMessage{
			Type:      "message",
			Role:      "bot",
			Text:      reply,
			Step:      step,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// buildEvent maps a wire message onto a conversation event. Button taps
// carry identifiers that resolve against the current template snapshot.
func (h *Handler) buildEvent(r *http.Request, msg inboundMessage) (conversation.Event, bool) {
	switch msg.Type {
	case "", "message":
		return conversation.TextEvent{Text: msg.Text}, true
	case "quick":
		action := conversation.QuickQuestion
		if msg.Action == string(conversation.QuickBooking) {
			action = conversation.QuickBooking
		}
		return conversation.QuickButtonEvent{Action: action}, true
	case "slot":
		return conversation.SelectSlotEvent{SlotID: msg.SlotID}, true
	case "templateGroup":
		for _, group := range h.engine.TemplateGroups(r.Context()) {
			if group.Title == msg.GroupTitle {
				return conversation.SelectTemplateGroupEvent{Group: group}, true
			}
		}
		return nil, false
	case "template":
		id, err := uuid.Parse(msg.TemplateID)
		if err != nil {
			return nil, false
		}
		for _, group := range h.engine.TemplateGroups(r.Context()) {
			if tpl, ok := support.FindTemplate(group.Items, id); ok {
				return conversation.SelectTemplateEvent{Template: tpl}, true
			}
		}
		return nil, false
	case "switchFaq":
		return conversation.SwitchToFAQEvent{}, true
	}
	return nil, false
}

func (h *Handler) openSession(r *http.Request) (uuid.UUID, error) {
	if h.store == nil {
		id := uuid.New()
		h.markSeen(id)
		return id, nil
	}
	sess, err := h.store.CreateSession(r.Context(), "web", r.UserAgent())
	if err != nil {
		return uuid.Nil, err
	}
	h.markSeen(sess.ID)
	return sess.ID, nil
}

// rehydrate restores engine state from the cache the first time this
// process sees a session.
func (h *Handler) rehydrate(r *http.Request, sessionID uuid.UUID) {
	h.mu.Lock()
	_, known := h.seen[sessionID]
	h.seen[sessionID] = struct{}{}
	h.mu.Unlock()
	if known {
		return
	}

	state, ok, err := h.cache.LoadState(r.Context(), sessionID)
	if err != nil {
		h.logger.Warn("state rehydration failed", "error", err, "session_id", sessionID)
		return
	}
	if ok {
		h.engine.Restore(sessionID, state)
	}
}

func (h *Handler) markSeen(sessionID uuid.UUID) {
	h.mu.Lock()
	h.seen[sessionID] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) cacheUserTurn(r *http.Request, sessionID uuid.UUID, msg inboundMessage) {
	if msg.Type == "" || msg.Type == "message" {
		if text := strings.TrimSpace(msg.Text); text != "" {
			h.cacheEntry(r, sessionID, CachedMessage{Role: "user", Text: text, Timestamp: time.Now().UTC()})
		}
	}
	h.saveState(r, sessionID)
}

func (h *Handler) cacheReplies(r *http.Request, sessionID uuid.UUID, replies []string) {
	for _, reply := range replies {
		h.cacheEntry(r, sessionID, CachedMessage{Role: "bot", Text: reply, Timestamp: time.Now().UTC()})
	}
	h.saveState(r, sessionID)
}

func (h *Handler) cacheEntry(r *http.Request, sessionID uuid.UUID, msg CachedMessage) {
	if err := h.cache.AppendHistory(r.Context(), sessionID, msg); err != nil {
		h.logger.Warn("history cache write failed", "error", err, "session_id", sessionID)
	}
}

func (h *Handler) saveState(r *http.Request, sessionID uuid.UUID) {
	if err := h.cache.SaveState(r.Context(), sessionID, h.engine.StateOf(sessionID)); err != nil {
		h.logger.Warn("state cache write failed", "error", err, "session_id", sessionID)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
