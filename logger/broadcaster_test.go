package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterFanOut(t *testing.T) {
	var buf bytes.Buffer
	b := NewBroadcaster(&buf)

	ch := b.Subscribe()
	n, err := b.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "hello\n", buf.String())
	assert.Equal(t, "hello\n", <-ch)

	b.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)

	// double unsubscribe must not panic on a closed channel
	b.Unsubscribe(ch)
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	b := NewBroadcaster(&buf)
	ch := b.Subscribe()

	for i := 0; i < 150; i++ {
		_, err := b.Write([]byte("x"))
		require.NoError(t, err)
	}
	assert.Len(t, ch, 100)
	assert.Equal(t, 150, buf.Len())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}
