package handlers

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"news-verifier/services"
)

// homepageInput is what the landing page form posts, as JSON or as a form.
type homepageInput struct {
	Text      string `json:"text"`
	NewsInput string `json:"newsInput"`
}

func readHomepageInput(w http.ResponseWriter, r *http.Request) (string, error) {
	var in homepageInput
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		in.Text, in.NewsInput = r.PostFormValue("text"), r.PostFormValue("newsInput")
	} else if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		return "", err
	}

	if s := strings.TrimSpace(in.Text); s != "" {
		return s, nil
	}
	return strings.TrimSpace(in.NewsInput), nil
}

type HomepageHandler struct {
	analyzer *services.AnalyzerService
}

func NewHomepageHandler(analyzer *services.AnalyzerService) *HomepageHandler {
	return &HomepageHandler{analyzer: analyzer}
}

// CheckNews handles POST /check-news against the known headline lists.
// Unreadable bodies are treated as empty input.
func (h *HomepageHandler) CheckNews(w http.ResponseWriter, r *http.Request) {
	input, err := readHomepageInput(w, r)
	if err != nil {
		slog.Debug("[HOMEPAGE] unreadable check-news body", "error", err)
	}
	writeJSON(w, http.StatusOK, services.CheckHeadline(input))
}

type fallbackError struct {
	Error    string `json:"error"`
	Fallback bool   `json:"fallback"`
}

// FactCheck handles POST /factcheck, the landing page's route into the full
// analysis. Any analysis failure yields a fallback body the page can render.
func (h *HomepageHandler) FactCheck(w http.ResponseWriter, r *http.Request) {
	text, err := readHomepageInput(w, r)
	if err != nil || text == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}

	result, err := h.analyzer.AnalyzeText(r.Context(), text)
	if err != nil {
		slog.Warn("[HOMEPAGE] fact check failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, fallbackError{
			Error:    "Analysis service unavailable or failed",
			Fallback: true,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}
