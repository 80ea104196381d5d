package handlers

import (
	"net/http"

	"news-verifier/logger"
	"news-verifier/services"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Analyzer   *services.AnalyzerService
	Accounts   *services.AccountService
	Tracker    *services.UpstreamTracker
	AdminToken string
	Logs       *logger.Broadcaster
}

func NewRouter(d Deps) http.Handler {
	if d.Logs == nil {
		d.Logs = logger.Instance
	}
	if d.Accounts == nil {
		d.Accounts = services.NewAccountService(nil)
	}

	analyzer := NewAnalyzerHandler(d.Analyzer, d.Tracker)
	domain := NewDomainHandler(d.Analyzer)
	share := NewShareHandler(d.Analyzer)
	admin := NewAdminHandler(d.AdminToken, d.Analyzer, d.Logs)
	homepage := NewHomepageHandler(d.Analyzer)
	accounts := NewAccountHandler(d.Accounts)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/analyze", analyzer.Analyze)
	mux.HandleFunc("POST /api/analyze/stream", analyzer.AnalyzeStream)
	mux.HandleFunc("GET /api/health", analyzer.Health)
	mux.HandleFunc("GET /api/limits", analyzer.Limits)

	mux.HandleFunc("GET /api/analysis/{id}", share.GetAnalysis)
	mux.HandleFunc("GET /s/{id}", share.ShowPage)

	mux.HandleFunc("GET /api/domain/{domain}", domain.GetDomain)
	mux.HandleFunc("GET /api/domains/top", domain.GetTopDomains)

	// Landing page
	mux.HandleFunc("POST /check-news", homepage.CheckNews)
	mux.HandleFunc("POST /factcheck", homepage.FactCheck)
	mux.HandleFunc("POST /login/register", accounts.Register)
	mux.HandleFunc("POST /login/signin", accounts.SignIn)

	// Admin API
	mux.HandleFunc("GET /api/admin/stats", admin.AuthMiddleware(admin.GetStats))
	mux.HandleFunc("POST /api/admin/pause", admin.AuthMiddleware(admin.Pause))
	mux.HandleFunc("POST /api/admin/resume", admin.AuthMiddleware(admin.Resume))
	mux.HandleFunc("GET /api/admin/status", admin.AuthMiddleware(admin.GetStatus))
	mux.HandleFunc("GET /api/admin/logs", admin.StreamLogs)

	return withCORS(mux)
}
