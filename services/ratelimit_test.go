package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamTrackerUpdate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := NewUpstreamTracker()
	tr.now = func() time.Time { return now }

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set("X-Ratelimit-Limit-Requests", "100")
	resp.Header.Set("X-Ratelimit-Remaining", "0")
	resp.Header.Set("Retry-After", "30")
	tr.Update(UpstreamFactCheck, resp)

	now = now.Add(90 * time.Second)
	snap := tr.Snapshot()
	st := snap[UpstreamFactCheck]
	require.NotNil(t, st)
	assert.True(t, st.Throttled)
	assert.Equal(t, 100, st.LimitRequests)
	assert.Equal(t, 0, st.RemainingRequests)
	assert.Equal(t, "30", st.Reset)
	assert.Equal(t, "1m ago", st.UpdatedAgo)

	// snapshot entries are copies
	st.StatusCode = 0
	assert.Equal(t, http.StatusTooManyRequests, tr.Snapshot()[UpstreamFactCheck].StatusCode)
}

func TestUpstreamTrackerBadHeaders(t *testing.T) {
	tr := NewUpstreamTracker()
	resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
	resp.Header.Set("X-Ratelimit-Remaining", "lots")
	tr.Update(UpstreamHuggingFace, resp)

	st := tr.Snapshot()[UpstreamHuggingFace]
	assert.Equal(t, -1, st.RemainingRequests)
	assert.False(t, st.Throttled)
	assert.Equal(t, "0s ago", st.UpdatedAgo)
}

func TestUpstreamTrackerNil(t *testing.T) {
	var tr *UpstreamTracker
	tr.Update(UpstreamFactCheck, &http.Response{})
	assert.Empty(t, tr.Snapshot())

	tr = NewUpstreamTracker()
	tr.Update(UpstreamFactCheck, nil)
	assert.Empty(t, tr.Snapshot())
}
