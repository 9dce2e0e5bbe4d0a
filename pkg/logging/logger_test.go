package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
		warnOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"nonsense", false, true},
	}
	for _, tt := range tests {
		l := New(tt.level)
		require.NotNil(t, l)
		ctx := context.Background()
		assert.Equal(t, tt.debugOn, l.Enabled(ctx, slog.LevelDebug), "level %q debug", tt.level)
		assert.Equal(t, tt.warnOn, l.Enabled(ctx, slog.LevelWarn), "level %q warn", tt.level)
	}
}

func TestDefault(t *testing.T) {
	l := Default()
	require.NotNil(t, l)
	assert.True(t, l.Enabled(context.Background(), slog.LevelInfo))
}

func TestComponent(t *testing.T) {
	l := Default().Component("conversation")
	require.NotNil(t, l)
	assert.NotNil(t, l.Logger)
}
