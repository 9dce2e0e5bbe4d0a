// Package webchat exposes the support widget's transport: session and
// message endpoints, a WebSocket loop for the live conversation, and a
// redis cache that lets a session survive a process restart.
package webchat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/warmglow/reservation-platform/internal/conversation"
)

const sessionTTL = 24 * time.Hour

// maxCachedMessages bounds the redis transcript; PostgreSQL keeps the full log.
const maxCachedMessages = 100

// CachedMessage is one transcript entry kept in redis for fast history
// replay on reconnect.
type CachedMessage struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// StateCache snapshots conversation state and recent transcript per session.
type StateCache struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewStateCache builds a cache over the given client. A nil client is
// allowed; every method becomes a no-op so the widget still works, it just
// loses state on restart.
func NewStateCache(client *redis.Client) *StateCache {
	return &StateCache{
		redis:  client,
		tracer: otel.Tracer("warmglow.internal.webchat"),
	}
}

func stateKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("chat_state:%s", sessionID)
}

func historyKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("chat_history:%s", sessionID)
}

// SaveState persists a session's conversation position.
func (c *StateCache) SaveState(ctx context.Context, sessionID uuid.UUID, state conversation.State) error {
	if c == nil || c.redis == nil {
		return nil
	}
	ctx, span := c.tracer.Start(ctx, "webchat.save_state")
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("webchat: marshal state: %w", err)
	}
	if err := c.redis.Set(ctx, stateKey(sessionID), data, sessionTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("webchat: persist state: %w", err)
	}
	return nil
}

// LoadState restores a session's conversation position. A missing key
// returns ok=false with no error.
func (c *StateCache) LoadState(ctx context.Context, sessionID uuid.UUID) (conversation.State, bool, error) {
	if c == nil || c.redis == nil {
		return conversation.State{}, false, nil
	}
	ctx, span := c.tracer.Start(ctx, "webchat.load_state")
	defer span.End()

	data, err := c.redis.Get(ctx, stateKey(sessionID)).Bytes()
	if err == redis.Nil {
		return conversation.State{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return conversation.State{}, false, fmt.Errorf("webchat: load state: %w", err)
	}

	var state conversation.State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return conversation.State{}, false, fmt.Errorf("webchat: decode state: %w", err)
	}
	return state, true, nil
}

// AppendHistory records one transcript entry and trims the list.
func (c *StateCache) AppendHistory(ctx context.Context, sessionID uuid.UUID, msg CachedMessage) error {
	if c == nil || c.redis == nil {
		return nil
	}
	ctx, span := c.tracer.Start(ctx, "webchat.append_history")
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("webchat: marshal history entry: %w", err)
	}

	key := historyKey(sessionID)
	pipe := c.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -maxCachedMessages, -1)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("webchat: persist history entry: %w", err)
	}
	return nil
}

// History returns a session's cached transcript, oldest first.
func (c *StateCache) History(ctx context.Context, sessionID uuid.UUID) ([]CachedMessage, error) {
	if c == nil || c.redis == nil {
		return nil, nil
	}
	ctx, span := c.tracer.Start(ctx, "webchat.load_history")
	defer span.End()

	raw, err := c.redis.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("webchat: load history: %w", err)
	}

	out := make([]CachedMessage, 0, len(raw))
	for _, item := range raw {
		var msg CachedMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("webchat: decode history entry: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}
