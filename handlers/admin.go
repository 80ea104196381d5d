package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"news-verifier/logger"
	"news-verifier/services"
)

const (
	defaultRecent = 10
	maxRecent     = 100
	wsWriteWait   = 10 * time.Second
)

type AdminHandler struct {
	token    string
	analyzer *services.AnalyzerService
	logs     *logger.Broadcaster
}

func NewAdminHandler(token string, analyzer *services.AnalyzerService, logs *logger.Broadcaster) *AdminHandler {
	return &AdminHandler{
		token:    token,
		analyzer: analyzer,
		logs:     logs,
	}
}

// authorized rejects everything while no admin token is configured.
func (h *AdminHandler) authorized(token string) bool {
	if h.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}

// AuthMiddleware checks the X-Admin-Token header.
func (h *AdminHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.authorized(r.Header.Get("X-Admin-Token")) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

func (h *AdminHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.analyzer.Pause()
	slog.Info("[ADMIN] ⏸ analysis paused by administrator")
	h.GetStatus(w, r)
}

func (h *AdminHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.analyzer.Resume()
	slog.Info("[ADMIN] ▶ analysis resumed by administrator")
	h.GetStatus(w, r)
}

func (h *AdminHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"is_paused": h.analyzer.IsPaused()})
}

// GetStats handles GET /api/admin/stats?recent=N.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	recent := queryInt(r, "recent", defaultRecent, maxRecent)

	stats, err := h.analyzer.Stats(r.Context(), recent)
	if err != nil {
		slog.Error("[ADMIN] stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error querying stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamLogs upgrades to a websocket and forwards every log line until the
// client disconnects. Browsers cannot set headers on websocket requests, so
// the token travels in the query string.
func (h *AdminHandler) StreamLogs(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.URL.Query().Get("token")) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[ADMIN] websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// the hijacked conn keeps the server's Read/WriteTimeout deadlines
	_ = conn.NetConn().SetDeadline(time.Time{})

	lines := h.logs.Subscribe()
	defer h.logs.Unsubscribe(lines)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-lines:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func queryInt(r *http.Request, key string, def, ceiling int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	if v > ceiling {
		return ceiling
	}
	return v
}
