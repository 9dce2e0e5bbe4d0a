package webchat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmglow/reservation-platform/internal/conversation"
	"github.com/warmglow/reservation-platform/internal/gcal"
	"github.com/warmglow/reservation-platform/internal/reservations"
	"github.com/warmglow/reservation-platform/internal/support"
)

type stubBooker struct{}

func (stubBooker) Create(_ context.Context, p reservations.CreateParams) (*reservations.Reservation, *gcal.CreatedEvent, error) {
	return &reservations.Reservation{
		ID:            uuid.New(),
		CustomerName:  p.CustomerName,
		ReservedStart: p.ReservedStart,
		ReservedEnd:   p.ReservedEnd,
		Status:        reservations.StatusPending,
	}, nil, nil
}

type memorySessions struct {
	sessions map[uuid.UUID]*support.Session
	messages map[uuid.UUID][]support.Message
}

func newMemorySessions() *memorySessions {
	return &memorySessions{
		sessions: make(map[uuid.UUID]*support.Session),
		messages: make(map[uuid.UUID][]support.Message),
	}
}

func (m *memorySessions) CreateSession(_ context.Context, channel, userAgent string) (*support.Session, error) {
	sess := &support.Session{ID: uuid.New(), Channel: channel, StartedAt: time.Now().UTC()}
	if userAgent != "" {
		sess.UserAgent = &userAgent
	}
	m.sessions[sess.ID] = sess
	return sess, nil
}

func (m *memorySessions) AppendMessage(_ context.Context, sessionID uuid.UUID, role support.Role, content string) (*support.Message, error) {
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, support.ErrSessionNotFound
	}
	msg := support.Message{ID: uuid.New(), SessionID: sessionID, Role: role, Content: content, CreatedAt: time.Now().UTC()}
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	return &msg, nil
}

func (m *memorySessions) ListMessages(_ context.Context, sessionID uuid.UUID, limit int) ([]support.Message, error) {
	msgs := m.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func newTestHandler(store SessionService) *Handler {
	engine := conversation.NewEngine(stubBooker{}, nil, nil, nil, nil, "")
	return NewHandler(engine, store, NewStateCache(nil), nil)
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target string, body any, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleCreateSessionGreets(t *testing.T) {
	store := newMemorySessions()
	h := newTestHandler(store)

	rec := doJSON(t, h.HandleCreateSession, http.MethodPost, "/api/support/chat-sessions", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success   bool     `json:"success"`
		SessionID string   `json:"sessionId"`
		Messages  []string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, conversation.WelcomeMessage, resp.Messages[0])

	id, err := uuid.Parse(resp.SessionID)
	require.NoError(t, err)
	assert.Contains(t, store.sessions, id)
	// The greeting itself lands in the durable transcript.
	require.NotEmpty(t, store.messages[id])
	assert.Equal(t, support.RoleBot, store.messages[id][0].Role)
}

func TestHandleAppendMessageValidation(t *testing.T) {
	store := newMemorySessions()
	h := newTestHandler(store)
	sess, err := store.CreateSession(context.Background(), "web", "")
	require.NoError(t, err)

	rec := doJSON(t, h.HandleAppendMessage, http.MethodPost, "/x", map[string]string{"role": "USER", "content": "hello"},
		map[string]string{"id": sess.ID.String()})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h.HandleAppendMessage, http.MethodPost, "/x", map[string]string{"role": "SYSTEM", "content": "hello"},
		map[string]string{"id": sess.ID.String()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.HandleAppendMessage, http.MethodPost, "/x", map[string]string{"role": "USER", "content": "hello"},
		map[string]string{"id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h.HandleAppendMessage, http.MethodPost, "/x", map[string]string{"role": "USER", "content": "hello"},
		map[string]string{"id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListMessages(t *testing.T) {
	store := newMemorySessions()
	h := newTestHandler(store)
	sess, err := store.CreateSession(context.Background(), "web", "")
	require.NoError(t, err)
	_, err = store.AppendMessage(context.Background(), sess.ID, support.RoleUser, "我要預約")
	require.NoError(t, err)

	rec := doJSON(t, h.HandleListMessages, http.MethodGet, "/x", nil, map[string]string{"id": sess.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool `json:"success"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "USER", resp.Messages[0].Role)
	assert.Equal(t, "我要預約", resp.Messages[0].Content)
}

func TestHandleChatMessageCreatesSessionOnFirstTurn(t *testing.T) {
	h := newTestHandler(newMemorySessions())

	rec := doJSON(t, h.HandleChatMessage, http.MethodPost, "/api/chat/message",
		inboundMessage{Type: "message", Text: "我要預約"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success   bool     `json:"success"`
		SessionID string   `json:"sessionId"`
		Replies   []string `json:"replies"`
		Step      string   `json:"step"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, string(conversation.StepBookingAskTime), resp.Step)
	// Greeting first, then the booking prompt.
	require.Len(t, resp.Replies, 2)
	assert.Equal(t, conversation.WelcomeMessage, resp.Replies[0])
	assert.Contains(t, resp.Replies[1], "「今天」")
}

func TestHandleChatMessageContinuesSession(t *testing.T) {
	h := newTestHandler(newMemorySessions())

	first := doJSON(t, h.HandleChatMessage, http.MethodPost, "/api/chat/message",
		inboundMessage{Type: "quick", Action: "booking"}, nil)
	var firstResp struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))

	second := doJSON(t, h.HandleChatMessage, http.MethodPost, "/api/chat/message",
		inboundMessage{Type: "slot", SessionID: firstResp.SessionID, SlotID: "NOON_1"}, nil)
	require.Equal(t, http.StatusOK, second.Code)

	var secondResp struct {
		Replies []string `json:"replies"`
		Step    string   `json:"step"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	assert.Equal(t, string(conversation.StepBookingAskPeople), secondResp.Step)
	require.Len(t, secondResp.Replies, 1)
	assert.Contains(t, secondResp.Replies[0], "幾位用餐")
}

func TestHandleChatMessageRejectsBadPayload(t *testing.T) {
	h := newTestHandler(newMemorySessions())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.HandleChatMessage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.HandleChatMessage, http.MethodPost, "/api/chat/message",
		inboundMessage{Type: "message", SessionID: "zzz", Text: "hi"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.HandleChatMessage, http.MethodPost, "/api/chat/message",
		inboundMessage{Type: "hologram", SessionID: uuid.NewString()}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerWorksWithoutSessionStore(t *testing.T) {
	h := newTestHandler(nil)

	rec := doJSON(t, h.HandleChatMessage, http.MethodPost, "/api/chat/message",
		inboundMessage{Type: "message", Text: "營業時間"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Replies []string `json:"replies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Replies)
}

func TestRehydrateRestoresCachedState(t *testing.T) {
	cache, _ := newTestCache(t)
	engine := conversation.NewEngine(stubBooker{}, nil, nil, nil, nil, "")
	h := NewHandler(engine, nil, cache, nil)

	sessionID := uuid.New()
	cached := conversation.State{
		Step:  conversation.StepBookingAskPeople,
		Draft: conversation.Draft{Date: "2025-12-10", TimeSlotID: "MORNING_1"},
	}
	require.NoError(t, cache.SaveState(context.Background(), sessionID, cached))

	rec := doJSON(t, h.HandleChatMessage, http.MethodPost, "/api/chat/message",
		inboundMessage{Type: "message", SessionID: sessionID.String(), Text: "2"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Step string `json:"step"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(conversation.StepBookingAskName), resp.Step)
}
