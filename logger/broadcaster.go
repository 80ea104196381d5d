package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Broadcaster is an io.Writer that copies every log line to its sink and to
// all subscribed channels (admin websocket sessions).
type Broadcaster struct {
	mu          sync.Mutex
	out         io.Writer
	subscribers map[chan string]struct{}
}

var Instance = NewBroadcaster(os.Stdout)

func NewBroadcaster(out io.Writer) *Broadcaster {
	return &Broadcaster{
		out:         out,
		subscribers: make(map[chan string]struct{}),
	}
}

func (b *Broadcaster) Write(p []byte) (int, error) {
	msg := string(p)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.out.Write(p); err != nil {
		return 0, err
	}

	for ch := range b.subscribers {
		// slow readers drop lines instead of stalling the logger
		select {
		case ch <- msg:
		default:
		}
	}

	return len(p), nil
}

// Subscribe returns a buffered channel receiving every subsequent log line.
func (b *Broadcaster) Subscribe() chan string {
	ch := make(chan string, 100)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan string) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func GetWriter() io.Writer {
	return Instance
}

// Init installs a text slog handler writing through the broadcaster as the default logger.
func Init(level string) {
	h := slog.NewTextHandler(GetWriter(), &slog.HandlerOptions{Level: ParseLogLevel(level)})
	slog.SetDefault(slog.New(h))
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo for unrecognized strings.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
