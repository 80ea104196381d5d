package services

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	UpstreamFactCheck   = "factcheck"
	UpstreamHuggingFace = "huggingface"
)

// UpstreamStatus is the latest response metadata seen from one upstream API.
type UpstreamStatus struct {
	Provider string `json:"provider"`

	StatusCode int  `json:"status_code"`
	Throttled  bool `json:"throttled"` // last response was 429

	// -1 when the upstream does not send the header
	LimitRequests     int    `json:"limit_requests"`
	RemainingRequests int    `json:"remaining_requests"`
	Reset             string `json:"reset,omitempty"`

	UpdatedAt  int64  `json:"updated_at"` // unix ms
	UpdatedAgo string `json:"updated_ago"`
}

// UpstreamTracker records UpstreamStatus per provider. A nil tracker ignores updates.
type UpstreamTracker struct {
	mu    sync.RWMutex
	store map[string]*UpstreamStatus
	now   func() time.Time
}

func NewUpstreamTracker() *UpstreamTracker {
	return &UpstreamTracker{
		store: map[string]*UpstreamStatus{},
		now:   time.Now,
	}
}

// Update reads status and rate-limit headers from an upstream response.
func (t *UpstreamTracker) Update(provider string, resp *http.Response) {
	if t == nil || resp == nil {
		return
	}

	st := &UpstreamStatus{
		Provider:          provider,
		StatusCode:        resp.StatusCode,
		Throttled:         resp.StatusCode == http.StatusTooManyRequests,
		LimitRequests:     headerInt(resp, "X-Ratelimit-Limit-Requests", "X-Ratelimit-Limit"),
		RemainingRequests: headerInt(resp, "X-Ratelimit-Remaining-Requests", "X-Ratelimit-Remaining"),
		Reset:             firstHeader(resp, "X-Ratelimit-Reset-Requests", "X-Ratelimit-Reset", "Retry-After"),
		UpdatedAt:         t.now().UnixMilli(),
	}

	t.mu.Lock()
	t.store[provider] = st
	t.mu.Unlock()
}

// Snapshot returns copies of all recorded statuses.
func (t *UpstreamTracker) Snapshot() map[string]*UpstreamStatus {
	out := map[string]*UpstreamStatus{}
	if t == nil {
		return out
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	for k, v := range t.store {
		cp := *v
		ago := now.Sub(time.UnixMilli(v.UpdatedAt))
		if ago < time.Minute {
			cp.UpdatedAgo = strconv.Itoa(int(ago.Seconds())) + "s ago"
		} else {
			cp.UpdatedAgo = strconv.Itoa(int(ago.Minutes())) + "m ago"
		}
		out[k] = &cp
	}
	return out
}

func firstHeader(resp *http.Response, keys ...string) string {
	for _, k := range keys {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func headerInt(resp *http.Response, keys ...string) int {
	v := firstHeader(resp, keys...)
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
