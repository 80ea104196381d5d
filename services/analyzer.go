package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"unicode"

	"news-verifier/models"
)

const excerptRunes = 280

var (
	ErrEmptyText     = errors.New("empty text")
	ErrPaused        = errors.New("analysis is paused by the administrator")
	ErrNoStore       = errors.New("no database configured")
	ErrInvalidDomain = errors.New("invalid domain")
	ErrInvalidURL    = errors.New("invalid url")
)

// Store persists analyses and per-domain counters.
type Store interface {
	SaveAnalysis(ctx context.Context, rec *models.AnalysisRecord) (int64, error)
	GetAnalysis(ctx context.Context, id int64) (*models.AnalysisRecord, error)
	UpsertDomain(ctx context.Context, domain string, isFake bool) error
	GetDomain(ctx context.Context, domain string) (*models.DomainStats, error)
	TopDomains(ctx context.Context, limit int) ([]models.DomainStats, error)
	Stats(ctx context.Context, recent int) (*models.AdminStats, error)
}

// AnalyzerService is the request-facing side of the engine: input checks,
// URL fetching, progress reporting and persistence. store may be nil.
type AnalyzerService struct {
	engine  *Engine
	fetcher *ContentFetcher
	store   Store

	paused atomic.Bool
}

func NewAnalyzerService(engine *Engine, fetcher *ContentFetcher, store Store) *AnalyzerService {
	return &AnalyzerService{
		engine:  engine,
		fetcher: fetcher,
		store:   store,
	}
}

func (s *AnalyzerService) Pause()         { s.paused.Store(true) }
func (s *AnalyzerService) Resume()        { s.paused.Store(false) }
func (s *AnalyzerService) IsPaused() bool { return s.paused.Load() }

func reporter(progress []func(string)) func(string) {
	return func(msg string) {
		slog.Info("[ANALYZER] progress", "step", msg)
		if len(progress) > 0 && progress[0] != nil {
			progress[0](msg)
		}
	}
}

// AnalyzeText runs the engine on text. Surrounding whitespace is ignored and
// blank text is rejected with ErrEmptyText.
func (s *AnalyzerService) AnalyzeText(ctx context.Context, text string, progress ...func(string)) (*models.AnalysisResponse, error) {
	return s.analyze(ctx, text, "", reporter(progress))
}

// ValidateURL returns the trimmed form of raw if it is an absolute http(s)
// URL with a host and no control characters.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return "", ErrInvalidURL
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}
	return raw, nil
}

// AnalyzeURL fetches the article at rawURL and analyzes its text. URLs
// rejected by ValidateURL fail with ErrInvalidURL before anything is fetched.
func (s *AnalyzerService) AnalyzeURL(ctx context.Context, rawURL string, progress ...func(string)) (*models.AnalysisResponse, error) {
	report := reporter(progress)

	if s.IsPaused() {
		return nil, ErrPaused
	}
	if s.fetcher == nil {
		return nil, errors.New("url fetching is disabled")
	}
	pageURL, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	report("📥 Fetching " + pageURL)
	content, err := s.fetcher.FetchURL(ctx, pageURL)
	if err != nil {
		report(fmt.Sprintf("❌ Could not load page: %v", err))
		return nil, err
	}
	report(fmt.Sprintf("✓ Page loaded (%d characters)", len([]rune(content))))

	return s.analyze(ctx, content, pageURL, report)
}

func (s *AnalyzerService) analyze(ctx context.Context, text, sourceURL string, report func(string)) (*models.AnalysisResponse, error) {
	if s.IsPaused() {
		return nil, ErrPaused
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	report(fmt.Sprintf("📝 Analyzing text (%d characters)", len([]rune(text))))
	result := s.engine.Analyze(ctx, text)

	resp := models.NewAnalysisResponse(result)
	resp.SourceURL = sourceURL
	report(fmt.Sprintf("📊 %s, confidence %.2f%%", resp.Prediction, resp.Confidence))

	if s.store != nil {
		resp.ID = s.persist(ctx, text, sourceURL, result)
	}
	return resp, nil
}

// persist never fails the request; errors are logged and the id is left 0.
func (s *AnalyzerService) persist(ctx context.Context, text, sourceURL string, result *models.AnalysisResult) int64 {
	rec := &models.AnalysisRecord{
		Excerpt:         firstRunes(text, excerptRunes),
		SourceURL:       sourceURL,
		IsFake:          result.IsFake,
		FakeProbability: result.FakeProbability,
		RealProbability: result.RealProbability,
		Confidence:      result.Confidence,
		Details:         result.Details,
	}
	id, err := s.store.SaveAnalysis(ctx, rec)
	if err != nil {
		slog.Warn("[ANALYZER] ⚠ could not save analysis", "error", err)
	}

	if sourceURL != "" {
		if domain := NormalizeDomain(sourceURL); domain != "" {
			if err := s.store.UpsertDomain(ctx, domain, result.IsFake); err != nil {
				slog.Warn("[DOMAIN] ⚠ could not update stats", "domain", domain, "error", err)
			} else {
				slog.Debug("[DOMAIN] ✓ stats updated", "domain", domain, "fake", result.IsFake)
			}
		}
	}
	return id
}

func (s *AnalyzerService) Analysis(ctx context.Context, id int64) (*models.AnalysisRecord, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.GetAnalysis(ctx, id)
}

// Domain returns the reputation of the domain named by raw, which may be a
// full URL or a bare host.
func (s *AnalyzerService) Domain(ctx context.Context, raw string) (*models.DomainStats, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	domain := NormalizeDomain(raw)
	if domain == "" {
		return nil, fmt.Errorf("%w %q", ErrInvalidDomain, raw)
	}
	st, err := s.store.GetDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	st.Verdict = DomainVerdict(st.FakeRatio)
	return st, nil
}

func (s *AnalyzerService) TopDomains(ctx context.Context, limit int) ([]models.DomainStats, error) {
	if s.store == nil {
		return []models.DomainStats{}, nil
	}
	list, err := s.store.TopDomains(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Verdict = DomainVerdict(list[i].FakeRatio)
	}
	return list, nil
}

func (s *AnalyzerService) Stats(ctx context.Context, recent int) (*models.AdminStats, error) {
	if s.store == nil {
		return &models.AdminStats{RecentRequests: []models.AnalysisRecord{}}, nil
	}
	return s.store.Stats(ctx, recent)
}
