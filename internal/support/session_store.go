// Package support persists chat sessions, their message log, and the admin-
// managed reply templates the bot answers from.
package support

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser Role = "USER"
	RoleBot  Role = "BOT"
)

// ErrSessionNotFound reports a message append against an unknown session.
var ErrSessionNotFound = errors.New("support: session not found")

// Session is one chat-widget conversation.
type Session struct {
	ID        uuid.UUID
	Channel   string
	UserAgent *string
	StartedAt time.Time
}

// Message is one logged utterance.
type Message struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      Role
	Content   string
	CreatedAt time.Time
}

// SessionStore persists chat sessions and messages to PostgreSQL.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a session store. Returns nil when db is nil so the
// bot can run without a message log.
func NewSessionStore(db *sql.DB) *SessionStore {
	if db == nil {
		return nil
	}
	return &SessionStore{db: db}
}

// CreateSession opens a new chat session for the given channel.
func (s *SessionStore) CreateSession(ctx context.Context, channel string, userAgent string) (*Session, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("support: session store unavailable")
	}
	if channel == "" {
		channel = "web"
	}

	sess := &Session{
		ID:        uuid.New(),
		Channel:   channel,
		StartedAt: time.Now().UTC(),
	}
	if ua := strings.TrimSpace(userAgent); ua != "" {
		sess.UserAgent = &ua
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, channel, user_agent, started_at)
		VALUES ($1, $2, $3, $4)
	`, sess.ID, sess.Channel, sess.UserAgent, sess.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("support: create session: %w", err)
	}
	return sess, nil
}

// AppendMessage logs one utterance against a session. Empty content is
// rejected; an unknown session maps to ErrSessionNotFound.
func (s *SessionStore) AppendMessage(ctx context.Context, sessionID uuid.UUID, role Role, content string) (*Message, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("support: session store unavailable")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("support: message content is empty")
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM chat_sessions WHERE id = $1`, sessionID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("support: check session: %w", err)
	}

	msg := &Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.SessionID, string(msg.Role), msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("support: append message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a session's messages in chronological order.
func (s *SessionStore) ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]Message, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	query := `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("support: list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("support: scan message: %w", err)
		}
		msg.Role = Role(role)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("support: iterate messages: %w", err)
	}
	return out, nil
}
