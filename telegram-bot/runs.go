package main

import (
	"context"
	"sync"
	"time"
)

// runTracker keeps at most one running analysis per chat. Starting a new one
// cancels the previous run.
type runTracker struct {
	mu      sync.Mutex
	seq     uint64
	running map[int64]run
}

type run struct {
	id     uint64
	cancel context.CancelFunc
}

func newRunTracker() *runTracker {
	return &runTracker{running: map[int64]run{}}
}

// start registers a run for chatID. done must be called when the run ends;
// it only unregisters the run it belongs to.
func (t *runTracker) start(chatID int64, timeout time.Duration) (ctx context.Context, done func()) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	t.mu.Lock()
	if prev, ok := t.running[chatID]; ok {
		prev.cancel()
	}
	t.seq++
	id := t.seq
	t.running[chatID] = run{id: id, cancel: cancel}
	t.mu.Unlock()

	return ctx, func() {
		cancel()
		t.mu.Lock()
		if cur, ok := t.running[chatID]; ok && cur.id == id {
			delete(t.running, chatID)
		}
		t.mu.Unlock()
	}
}

// cancel stops the chat's running analysis and reports whether there was one.
func (t *runTracker) cancel(chatID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.running[chatID]
	if ok {
		r.cancel()
		delete(t.running, chatID)
	}
	return ok
}
