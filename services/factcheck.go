package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const factCheckURL = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

var (
	ErrNoCredential      = errors.New("fact check credential missing")
	ErrMalformedResponse = errors.New("malformed fact check response")
)

// ClaimRating is the first review of the best matching claim.
type ClaimRating struct {
	Claim     string `json:"claim"`
	Rating    string `json:"rating"`
	Publisher string `json:"publisher,omitempty"`
	URL       string `json:"url,omitempty"`
}

// FactChecker looks up published claim reviews. A nil rating with a nil
// error means no claim matched.
type FactChecker interface {
	Lookup(ctx context.Context, query string) (*ClaimRating, error)
}

type GoogleFactCheckClient struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter
	tracker    *UpstreamTracker
}

func NewGoogleFactCheckClient(apiKey string, timeout time.Duration, rps float64, tracker *UpstreamTracker) *GoogleFactCheckClient {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &GoogleFactCheckClient{
		APIKey:     apiKey,
		BaseURL:    factCheckURL,
		Timeout:    timeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, 1),
		tracker:    tracker,
	}
}

type googleFactCheckResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

func (c *GoogleFactCheckClient) Lookup(ctx context.Context, query string) (*ClaimRating, error) {
	if c.APIKey == "" {
		return nil, ErrNoCredential
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	slog.Debug("[FACTCHECK] 🔍 querying Google Fact Check", "query", query)

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("[FACTCHECK] ❌ network error", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	c.tracker.Update(UpstreamFactCheck, resp)

	if resp.StatusCode != http.StatusOK {
		slog.Warn("[FACTCHECK] ❌ bad status", "status", resp.StatusCode)
		return nil, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	var out googleFactCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(out.Claims) == 0 {
		return nil, nil
	}
	claim := out.Claims[0]
	if len(claim.ClaimReview) == 0 {
		return nil, fmt.Errorf("%w: claim without review", ErrMalformedResponse)
	}
	review := claim.ClaimReview[0]

	return &ClaimRating{
		Claim:     claim.Text,
		Rating:    review.TextualRating,
		Publisher: review.Publisher.Name,
		URL:       review.URL,
	}, nil
}

// KeyValueCache is the subset of the redis cache the decorator needs.
type KeyValueCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedFactChecker memoizes successful lookups, including "no claim" answers.
type CachedFactChecker struct {
	next  FactChecker
	cache KeyValueCache
	ttl   time.Duration
}

func NewCachedFactChecker(next FactChecker, cache KeyValueCache, ttl time.Duration) *CachedFactChecker {
	return &CachedFactChecker{next: next, cache: cache, ttl: ttl}
}

func factCheckKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "factcheck:" + hex.EncodeToString(sum[:])
}

func (c *CachedFactChecker) Lookup(ctx context.Context, query string) (*ClaimRating, error) {
	key := factCheckKey(query)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var rating *ClaimRating
		if err := json.Unmarshal([]byte(raw), &rating); err == nil {
			slog.Debug("[FACTCHECK] cache hit", "key", key)
			return rating, nil
		}
	}

	rating, err := c.next.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(rating)
	if err == nil {
		if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
			slog.Debug("[FACTCHECK] cache write failed", "error", err)
		}
	}
	return rating, nil
}
