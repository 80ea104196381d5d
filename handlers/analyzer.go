package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"news-verifier/models"
	"news-verifier/services"
)

const (
	msgProvideText = "Please provide text"
	msgInvalidURL  = "Please provide a valid http(s) URL"
)

type AnalyzerHandler struct {
	service *services.AnalyzerService
	tracker *services.UpstreamTracker
}

func NewAnalyzerHandler(service *services.AnalyzerService, tracker *services.UpstreamTracker) *AnalyzerHandler {
	return &AnalyzerHandler{service: service, tracker: tracker}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (models.AnalysisRequest, error) {
	var req models.AnalysisRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	return req, err
}

func (h *AnalyzerHandler) run(ctx context.Context, req models.AnalysisRequest, progress func(string)) (*models.AnalysisResponse, error) {
	if strings.TrimSpace(req.URL) != "" {
		return h.service.AnalyzeURL(ctx, req.URL, progress)
	}
	return h.service.AnalyzeText(ctx, req.Text, progress)
}

// statusFor maps a service error to an HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyText):
		return http.StatusBadRequest, msgProvideText
	case errors.Is(err, services.ErrInvalidURL):
		return http.StatusBadRequest, msgInvalidURL
	case errors.Is(err, services.ErrPaused):
		return http.StatusServiceUnavailable, "Service is paused, try again later"
	case errors.Is(err, services.ErrThinContent):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusBadGateway, "Analysis failed: " + err.Error()
	}
}

// Analyze handles POST /api/analyze.
func (h *AnalyzerHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgProvideText)
		return
	}

	slog.Info("[HANDLER] 📥 analyze", "remote", r.RemoteAddr, "url", req.URL, "text_len", len(req.Text))

	result, err := h.run(r.Context(), req, nil)
	if err != nil {
		status, msg := statusFor(err)
		slog.Warn("[HANDLER] analyze rejected", "status", status, "error", err)
		writeError(w, status, msg)
		return
	}

	slog.Info("[HANDLER] ✅ done", "prediction", result.Prediction, "elapsed", time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

// AnalyzeStream handles POST /api/analyze/stream and reports progress as
// server-sent events: start, progress*, then result and done, or error.
func (h *AnalyzerHandler) AnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgProvideText)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	req.Text = strings.TrimSpace(req.Text)
	if req.URL == "" && req.Text == "" {
		writeError(w, http.StatusBadRequest, msgProvideText)
		return
	}
	if req.URL != "" {
		if _, err := services.ValidateURL(req.URL); err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidURL)
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(event, data string) {
		writeEvent(w, event, data)
		flusher.Flush()
	}

	send("start", "🚀 Starting analysis...")

	result, err := h.run(r.Context(), req, func(msg string) { send("progress", msg) })
	if err != nil {
		_, msg := statusFor(err)
		send("error", "❌ "+msg)
		return
	}

	b, err := json.Marshal(result)
	if err != nil {
		send("error", "❌ "+err.Error())
		return
	}
	send("result", string(b))
	send("done", "✅ Analysis complete")
}

// writeEvent writes one server-sent event. Every line of data gets its own
// "data:" field so a line break can never start a new field or event.
func writeEvent(w io.Writer, event, data string) {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\r", "\n")

	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	io.WriteString(w, "\n")
}

// Health handles GET /api/health.
func (h *AnalyzerHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"paused": h.service.IsPaused(),
	})
}

// Limits handles GET /api/limits with the last status seen from each upstream.
func (h *AnalyzerHandler) Limits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}
