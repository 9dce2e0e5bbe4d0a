package webchat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmglow/reservation-platform/internal/conversation"
)

func newTestCache(t *testing.T) (*StateCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStateCache(client), mr
}

func TestStateCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	sessionID := uuid.New()
	ctx := context.Background()

	state := conversation.State{
		Step: conversation.StepBookingAskPeople,
		Draft: conversation.Draft{
			Date:       "2025-12-10",
			TimeSlotID: "MORNING_2",
		},
	}
	require.NoError(t, cache.SaveState(ctx, sessionID, state))

	got, ok, err := cache.LoadState(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.Step, got.Step)
	assert.Equal(t, state.Draft, got.Draft)
}

func TestStateCacheMissingSession(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok, err := cache.LoadState(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	sessionID := uuid.New()
	ctx := context.Background()

	require.NoError(t, cache.SaveState(ctx, sessionID, conversation.NewState()))
	mr.FastForward(sessionTTL + time.Minute)

	_, ok, err := cache.LoadState(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistoryAppendAndReplay(t *testing.T) {
	cache, _ := newTestCache(t)
	sessionID := uuid.New()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, cache.AppendHistory(ctx, sessionID, CachedMessage{Role: "user", Text: "我要預約", Timestamp: now}))
	require.NoError(t, cache.AppendHistory(ctx, sessionID, CachedMessage{Role: "bot", Text: "請選擇時段", Timestamp: now.Add(time.Second)}))

	history, err := cache.History(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "我要預約", history[0].Text)
	assert.Equal(t, "bot", history[1].Role)
}

func TestHistoryTrimsToBound(t *testing.T) {
	cache, _ := newTestCache(t)
	sessionID := uuid.New()
	ctx := context.Background()

	for i := 0; i < maxCachedMessages+10; i++ {
		require.NoError(t, cache.AppendHistory(ctx, sessionID, CachedMessage{
			Role: "bot", Text: "reply", Timestamp: time.Now().UTC(),
		}))
	}

	history, err := cache.History(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, history, maxCachedMessages)
}

func TestNilClientIsNoOp(t *testing.T) {
	cache := NewStateCache(nil)
	sessionID := uuid.New()
	ctx := context.Background()

	assert.NoError(t, cache.SaveState(ctx, sessionID, conversation.NewState()))
	assert.NoError(t, cache.AppendHistory(ctx, sessionID, CachedMessage{Role: "user", Text: "hi"}))

	_, ok, err := cache.LoadState(ctx, sessionID)
	assert.NoError(t, err)
	assert.False(t, ok)

	history, err := cache.History(ctx, sessionID)
	assert.NoError(t, err)
	assert.Nil(t, history)
}
