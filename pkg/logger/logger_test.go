package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_AddsIDs(t *testing.T) {
	base := NewTestLogger()
	ctx := WithSessionID(WithRequestID(context.Background(), "req-1"), "sess-1")

	FromContext(ctx, base).Info("hello")

	entries := base.GetEntries()
	require.Len(t, entries, 1)
	keys := make([]string, 0, len(entries[0].Fields))
	for _, f := range entries[0].Fields {
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"request_id", "session_id"}, keys)
	assert.Equal(t, "sess-1", SessionID(ctx))
}

func TestFromContext_PlainContext(t *testing.T) {
	base := NewTestLogger()
	assert.Same(t, base, FromContext(context.Background(), base))
	assert.Equal(t, "", SessionID(context.Background()))
}

func TestTestLogger_ChildrenShareEntries(t *testing.T) {
	base := NewTestLogger()
	base.Named("resume").With(String("taskId", "t1")).Warn("slow")
	base.Error("failed")

	assert.Equal(t, 1, base.Count("WARN"))
	assert.Equal(t, 1, base.Count("ERROR"))
	assert.Equal(t, "resume", base.GetEntries()[0].Logger)

	base.Clear()
	assert.Empty(t, base.GetEntries())
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(WithLevel("debug"), WithEncoding("console"), WithService("test"), WithOutputPaths([]string{"stdout"}))
	require.NoError(t, err)
	l.Debug("ready", Int("n", 1))
	_ = l.Sync()

	_, err = NewLogger(WithLevel("loud"), WithOutputPaths([]string{"stdout"}))
	assert.Error(t, err)
}

func TestWithDevelopment(t *testing.T) {
	c := &Config{InitialFields: map[string]interface{}{}}
	WithDevelopment(true)(c)
	assert.True(t, c.Development)

	l, err := NewLogger(WithDevelopment(true), WithOutputPaths([]string{"stdout"}))
	require.NoError(t, err)
	l.Warn("development logger", Int("n", 1))
	_ = l.Sync()
}
