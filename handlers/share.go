package handlers

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"news-verifier/database"
	"news-verifier/models"
	"news-verifier/services"
)

// ShareHandler serves stored analyses by id, as JSON and as a shareable page.
type ShareHandler struct {
	analyzer *services.AnalyzerService
}

func NewShareHandler(analyzer *services.AnalyzerService) *ShareHandler {
	return &ShareHandler{analyzer: analyzer}
}

func (h *ShareHandler) lookup(r *http.Request) (*models.AnalysisRecord, int) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, http.StatusNotFound
	}
	rec, err := h.analyzer.Analysis(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrNoStore), errors.Is(err, database.ErrNotFound):
		return nil, http.StatusNotFound
	case err != nil:
		slog.Error("[SHARE] analysis query failed", "id", id, "error", err)
		return nil, http.StatusInternalServerError
	}
	return rec, http.StatusOK
}

// GetAnalysis handles GET /api/analysis/{id}.
func (h *ShareHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, status := h.lookup(r)
	if rec == nil {
		writeError(w, status, http.StatusText(status))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type sharePage struct {
	Record     *models.AnalysisRecord
	Prediction string
	Fake       float64
	Real       float64
	Confidence float64
}

var shareTmpl = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Prediction}} · News Verifier</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{background:#0a0e1a;color:#e2e8f0;font-family:'Segoe UI',system-ui,sans-serif;min-height:100vh;display:flex;align-items:center;justify-content:center;padding:20px}
.card{background:#111827;border:1px solid #1f2937;border-radius:16px;max-width:680px;width:100%;padding:32px}
.verdict{font-size:40px;font-weight:800}
.verdict.fake{color:#ef4444}.verdict.real{color:#22c55e}
.numbers{color:#94a3b8;margin:8px 0 24px}
.excerpt{color:#cbd5e1;line-height:1.6;margin-bottom:24px;font-style:italic}
ul{list-style:none}li{padding:4px 0;color:#cbd5e1}
.badge{font-size:12px;color:#475569;margin-top:24px}
a{color:#3b82f6}
</style>
</head>
<body>
<div class="card">
  <div class="verdict {{if .Record.IsFake}}fake{{else}}real{{end}}">{{.Prediction}}</div>
  <div class="numbers">Confidence {{printf "%.2f" .Confidence}}% · fake {{printf "%.2f" .Fake}}% · real {{printf "%.2f" .Real}}%</div>
  <div class="excerpt">“{{.Record.Excerpt}}”</div>
  {{if .Record.SourceURL}}<p><a href="{{.Record.SourceURL}}" rel="nofollow noopener">{{.Record.SourceURL}}</a></p>{{end}}
  <ul>{{range .Record.Details}}<li>{{.}}</li>{{end}}</ul>
  <div class="badge">Checked {{.Record.CreatedAt}} by News Verifier</div>
</div>
</body>
</html>`))

// ShowPage handles GET /s/{id}.
func (h *ShareHandler) ShowPage(w http.ResponseWriter, r *http.Request) {
	rec, status := h.lookup(r)
	if rec == nil {
		http.Error(w, "This link has expired or does not exist", status)
		return
	}

	view := models.NewAnalysisResponse(&models.AnalysisResult{
		IsFake:          rec.IsFake,
		FakeProbability: rec.FakeProbability,
		RealProbability: rec.RealProbability,
		Confidence:      rec.Confidence,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := shareTmpl.Execute(w, sharePage{
		Record:     rec,
		Prediction: view.Prediction,
		Fake:       view.FakeProbability,
		Real:       view.RealProbability,
		Confidence: view.Confidence,
	})
	if err != nil {
		slog.Warn("[SHARE] render failed", "error", err)
	}
}
