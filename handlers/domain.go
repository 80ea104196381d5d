package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"news-verifier/database"
	"news-verifier/services"
)

const (
	defaultTopDomains = 20
	maxTopDomains     = 100
)

type DomainHandler struct {
	analyzer *services.AnalyzerService
}

func NewDomainHandler(analyzer *services.AnalyzerService) *DomainHandler {
	return &DomainHandler{analyzer: analyzer}
}

// GetDomain handles GET /api/domain/{domain}.
func (h *DomainHandler) GetDomain(w http.ResponseWriter, r *http.Request) {
	st, err := h.analyzer.Domain(r.Context(), r.PathValue("domain"))
	switch {
	case errors.Is(err, services.ErrNoStore), errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "domain not found")
		return
	case errors.Is(err, services.ErrInvalidDomain):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("[DOMAIN] domain query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetTopDomains handles GET /api/domains/top?limit=N.
func (h *DomainHandler) GetTopDomains(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTopDomains, maxTopDomains)

	list, err := h.analyzer.TopDomains(r.Context(), limit)
	if err != nil {
		slog.Error("[DOMAIN] top domains query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
