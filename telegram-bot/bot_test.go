package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	assert.Equal(t, analyzeRequest{URL: "https://example.com/a"}, newRequest("https://example.com/a"))
	assert.Equal(t, analyzeRequest{Text: "plain text"}, newRequest("plain text"))

	post := "https://example.com/a\nShocking miracle cure doctors hate"
	assert.Equal(t, analyzeRequest{Text: post}, newRequest(post))
	assert.Equal(t, analyzeRequest{Text: "https://example.com/a read this"}, newRequest("https://example.com/a read this"))

	long := newRequest(strings.Repeat("я", maxTextRunes+10))
	assert.Len(t, []rune(long.Text), maxTextRunes)
}

func TestStreamAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze/stream", r.URL.Path)
		var req analyzeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: start\ndata: 🚀 Starting\n\n" +
			"event: progress\ndata: step\n\n" +
			`event: result` + "\n" + `data: {"id":7,"prediction":"Fake News","confidence":63,"fake_probability":54.98,"real_probability":45.02,"details":["a"]}` + "\n\n" +
			"event: done\ndata: ok\n\n"))
	}))
	defer srv.Close()

	var events []SSEEvent
	err := StreamAnalyze(context.Background(), srv.URL, analyzeRequest{Text: "hello"}, func(ev SSEEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "progress", events[1].Type)
	assert.Equal(t, "step", events[1].Data)

	r, err := ParseResult(events[2].Data)
	require.NoError(t, err)
	assert.Equal(t, int64(7), r.ID)
	assert.True(t, r.IsFake())
	assert.Equal(t, srv.URL+"/s/7", ShareURL(srv.URL, r))
}

func TestStreamAnalyzeJoinsDataLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: progress\ndata: 📥 Fetching x\ndata: event: result\n\n" +
			"event: done\ndata: ok\n\n"))
	}))
	defer srv.Close()

	var events []SSEEvent
	err := StreamAnalyze(context.Background(), srv.URL, analyzeRequest{Text: "x"}, func(ev SSEEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	assert.Equal(t, []SSEEvent{
		{Type: "progress", Data: "📥 Fetching x\nevent: result"},
		{Type: "done", Data: "ok"},
	}, events)
}

func TestStreamAnalyzeStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Service is paused, try again later"}`))
	}))
	defer srv.Close()

	err := StreamAnalyze(context.Background(), srv.URL, analyzeRequest{Text: "x"}, func(SSEEvent) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "paused")
}

func TestShareURL(t *testing.T) {
	assert.Empty(t, ShareURL("http://api", nil))
	assert.Empty(t, ShareURL("http://api", &AnalysisResult{}))
	assert.Equal(t, "http://api/s/3", ShareURL("http://api/", &AnalysisResult{ID: 3}))
}

func TestFormatResult(t *testing.T) {
	r := &AnalysisResult{
		Prediction:      "Fake News",
		Confidence:      63,
		FakeProbability: 54.98,
		RealProbability: 45.02,
		Details:         []string{"🚨 Sensational words detected (1).", "<b>raw</b>"},
		SourceURL:       "https://example.com/a?x=1&y=2",
	}

	out := FormatResult(r, "Daily Channel")
	assert.True(t, strings.HasPrefix(out, "📢 <b>Source:</b> Daily Channel\n"))
	assert.Contains(t, out, "🔴 <b>FAKE NEWS</b>")
	assert.Contains(t, out, "<code>[██████░░░░]</code> confidence 63.00%")
	assert.Contains(t, out, "fake 54.98% · real 45.02%")
	assert.Contains(t, out, "• &lt;b&gt;raw&lt;/b&gt;")
	assert.Contains(t, out, "x=1&amp;y=2")

	r.Prediction, r.FakeProbability, r.RealProbability = "Real News", 30, 70
	assert.Contains(t, FormatResult(r, ""), "🟢 <b>REAL NEWS</b>")
}

func TestFormatResultFollowsPrediction(t *testing.T) {
	r, err := ParseResult(`{"prediction":"Fake News","confidence":55,"fake_probability":50,"real_probability":50}`)
	require.NoError(t, err)
	assert.True(t, r.IsFake())
	assert.Contains(t, FormatResult(r, ""), "🔴 <b>FAKE NEWS</b>")

	r.Prediction = "Real News"
	assert.False(t, r.IsFake())
	assert.Contains(t, FormatResult(r, ""), "🟢 <b>REAL NEWS</b>")
}

func TestFormatResultCapsDetails(t *testing.T) {
	r := &AnalysisResult{Details: []string{"1", "2", "3", "4", "5", "6", "7", "8"}}
	out := FormatResult(r, "")
	assert.Equal(t, maxDetails, strings.Count(out, "• "))
}

func TestConfidenceBar(t *testing.T) {
	assert.Equal(t, "[░░░░░░░░░░]", confidenceBar(0))
	assert.Equal(t, "[██████████]", confidenceBar(96))
	assert.Equal(t, "[██████████]", confidenceBar(150))
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "⏳ <b>Analyzing...</b>", FormatProgress(nil))
	assert.Contains(t, FormatProgress([]string{"a", "x < y"}), "<code>x &lt; y</code>")
}

func TestGetResultKeyboard(t *testing.T) {
	kb := GetResultKeyboard("", "")
	assert.Empty(t, kb.InlineKeyboard)

	kb = GetResultKeyboard("http://api/s/1", `{"text":"hi"}`)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	require.NotNil(t, kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, `rescan:{"text":"hi"}`, *kb.InlineKeyboard[0][1].CallbackData)
}

func TestRescanRoundTrip(t *testing.T) {
	short := analyzeRequest{URL: "https://e.com/a"}
	data := rescanKey(1, 2, short)
	assert.False(t, strings.HasPrefix(data, "key:"))
	got, ok := rescanRequest(data)
	require.True(t, ok)
	assert.Equal(t, short, got)

	long := analyzeRequest{Text: strings.Repeat("word ", 40)}
	data = rescanKey(1, 3, long)
	assert.Equal(t, "key:1:3", data)
	got, ok = rescanRequest(data)
	require.True(t, ok)
	assert.Equal(t, long, got)

	_, ok = rescanRequest("key:9:9")
	assert.False(t, ok)
	_, ok = rescanRequest("{}")
	assert.False(t, ok)
}

func TestForwardSource(t *testing.T) {
	msg := &tgbotapi.Message{ForwardFromChat: &tgbotapi.Chat{Title: "News & Co", UserName: "newsco"}}
	assert.Equal(t, `<a href="https://t.me/newsco">News &amp; Co</a>`, forwardSource(msg))

	msg = &tgbotapi.Message{ForwardFrom: &tgbotapi.User{FirstName: "Ann", LastName: "Lee"}}
	assert.Equal(t, "Ann Lee", forwardSource(msg))

	assert.Empty(t, forwardSource(&tgbotapi.Message{}))
}

func TestFirstLink(t *testing.T) {
	text := "read https://e.com/x now"
	msg := &tgbotapi.Message{Entities: []tgbotapi.MessageEntity{{Type: "url", Offset: 5, Length: 15}}}
	assert.Equal(t, "https://e.com/x", firstLink(msg, text))

	msg = &tgbotapi.Message{CaptionEntities: []tgbotapi.MessageEntity{{Type: "text_link", URL: "https://e.com/y"}}}
	assert.Equal(t, "https://e.com/y", firstLink(msg, "caption"))

	assert.Empty(t, firstLink(&tgbotapi.Message{}, text))
}

func TestRunTracker(t *testing.T) {
	rt := newRunTracker()

	first, doneFirst := rt.start(1, time.Minute)
	second, doneSecond := rt.start(1, time.Minute)
	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())

	// a finished older run must not unregister the newer one
	doneFirst()
	assert.True(t, rt.cancel(1))
	assert.ErrorIs(t, second.Err(), context.Canceled)
	assert.False(t, rt.cancel(1))

	doneSecond()
	assert.False(t, rt.cancel(1))

	other, doneOther := rt.start(2, time.Minute)
	doneOther()
	assert.ErrorIs(t, other.Err(), context.Canceled)
	assert.False(t, rt.cancel(2))
}
