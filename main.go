package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"news-verifier/cache"
	"news-verifier/config"
	"news-verifier/database"
	"news-verifier/handlers"
	"news-verifier/logger"
	"news-verifier/sentiment"
	"news-verifier/services"
)

const (
	serverShutdownWait = 5 * time.Second
	// must exceed a page fetch plus the classifier's retry budget
	serverTimeout      = 120 * time.Second
	startupTimeout     = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ failed to load configuration:", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	slog.Info("🚀 Starting News Verifier...")
	logKey("GOOGLE_API_KEY", cfg.GoogleAPIKey, cfg.FactCheckEnabled())
	logKey("NEWS_API_KEY", cfg.NewsAPIKey, cfg.NewsAPIKey != "")

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	tracker := services.NewUpstreamTracker()

	classifier, err := newClassifier(cfg, tracker)
	if err != nil {
		slog.Error("❌ classifier setup failed", "error", err)
		os.Exit(1)
	}

	analyzer := sentiment.New()
	if cfg.LexiconPath != "" {
		lex, err := sentiment.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			slog.Error("❌ failed to load lexicon", "path", cfg.LexiconPath, "error", err)
			os.Exit(1)
		}
		analyzer = sentiment.NewWithLexicon(lex)
		slog.Info("✓ Custom sentiment lexicon loaded", "path", cfg.LexiconPath)
	}

	redis := cache.New(ctx, cfg.RedisUrl)
	defer redis.Close()

	var factChecker services.FactChecker
	if cfg.FactCheckEnabled() {
		var fc services.FactChecker = services.NewGoogleFactCheckClient(
			cfg.GoogleAPIKey, cfg.FactCheckTimeout, cfg.FactCheckRPS, tracker)
		if redis != nil {
			fc = services.NewCachedFactChecker(fc, redis, cfg.FactCheckCacheTTL)
			slog.Info("✓ Fact-check results cached in Redis", "ttl", cfg.FactCheckCacheTTL)
		}
		factChecker = fc
		slog.Info("✓ Google Fact Check client initialized")
	} else {
		slog.Info("  - Google Fact Check API: disabled")
	}

	var (
		store services.Store
		users services.UserStore
	)
	if cfg.DbUrl != "" {
		db, err := database.Open(ctx, cfg.DbUrl)
		if err != nil {
			slog.Warn("⚠ database unavailable, history and domain stats disabled", "error", err)
		} else {
			defer db.Close()
			store, users = db, db
		}
	}

	engine := services.NewEngine(classifier, analyzer, factChecker)
	service := services.NewAnalyzerService(engine, services.NewContentFetcher(), store)
	accounts := services.NewAccountService(users)
	slog.Info("✓ Services initialized")

	router := handlers.NewRouter(handlers.Deps{
		Analyzer:   service,
		Accounts:   accounts,
		Tracker:    tracker,
		AdminToken: cfg.AdminToken,
	})
	if cfg.AdminToken == "" {
		slog.Warn("⚠ ADMIN_TOKEN not set, admin API disabled")
	}

	addr := ":" + cfg.Port
	s := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       serverTimeout,
		WriteTimeout:      serverTimeout,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ server failed", "error", err)
			os.Exit(1)
		}
	}()

	printBanner(addr, cfg)

	<-done
	slog.Info("🛑 Shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), serverShutdownWait)
	defer cancelShutdown()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
}

func newClassifier(cfg *config.Config, tracker *services.UpstreamTracker) (services.Classifier, error) {
	switch cfg.Classifier {
	case config.ClassifierHuggingFace:
		if cfg.HFAPIToken == "" {
			slog.Warn("⚠ HF_API_TOKEN not set, inference API may reject requests")
		}
		slog.Info("🤖 Classifier: Hugging Face", "model", cfg.HFModel)
		return services.NewHuggingFaceClassifier(cfg.HFAPIToken, cfg.HFModel, tracker), nil
	case config.ClassifierLocal:
		c, err := services.LoadLocalClassifier(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		slog.Info("🤖 Classifier: local model", "path", cfg.ModelPath)
		return c, nil
	case config.ClassifierNone:
		slog.Warn("⚠ Classifier disabled, model signal stays neutral")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier)
	}
}

func logKey(name, value string, usable bool) {
	switch {
	case usable:
		slog.Info("  - "+name+": loaded ✓", "prefix", firstChars(value, 4))
	case value != "":
		slog.Warn("  - " + name + ": present but not usable")
	default:
		slog.Info("  - " + name + ": not set")
	}
}

func firstChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func printBanner(addr string, cfg *config.Config) {
	line := strings.Repeat("=", 50)
	fmt.Println("\n" + line)
	fmt.Printf("🎯 Server listening on http://localhost%s\n", addr)
	fmt.Printf("🤖 Classifier: %s\n", cfg.Classifier)
	fmt.Println(line)
	fmt.Println("\n📝 Examples:")
	fmt.Printf(`   curl -X POST http://localhost%s/api/analyze -H "Content-Type: application/json" -d '{"text": "..."}'`+"\n", addr)
	fmt.Printf(`   curl -X POST http://localhost%s/api/analyze -H "Content-Type: application/json" -d '{"url": "https://..."}'`+"\n", addr)
	fmt.Println("\n" + line + "\n")
}
