package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const (
	// maxTextRunes keeps forwarded posts well under the API body limit.
	maxTextRunes = 3500

	predictionFake = "Fake News"
)

var apiClient = &http.Client{Timeout: 3 * time.Minute}

type SSEEvent struct {
	Type string
	Data string
}

// AnalysisResult mirrors the verifier's /api/analyze response.
type AnalysisResult struct {
	ID              int64    `json:"id,omitempty"`
	Prediction      string   `json:"prediction"`
	Confidence      float64  `json:"confidence"`
	FakeProbability float64  `json:"fake_probability"`
	RealProbability float64  `json:"real_probability"`
	Details         []string `json:"details"`
	SourceURL       string   `json:"source_url,omitempty"`
}

// IsFake follows the server's verdict; rounded probabilities can tie.
func (r *AnalysisResult) IsFake() bool {
	return r.Prediction == predictionFake
}

type analyzeRequest struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// newRequest sends a lone link as a URL. A link followed by any other words
// is a post and goes as text.
func newRequest(input string) analyzeRequest {
	if isURL(input) && !strings.ContainsFunc(input, unicode.IsSpace) {
		return analyzeRequest{URL: input}
	}
	if r := []rune(input); len(r) > maxTextRunes {
		input = string(r[:maxTextRunes])
	}
	return analyzeRequest{Text: input}
}

// StreamAnalyze posts to /api/analyze/stream and calls cb for each SSE event.
func StreamAnalyze(ctx context.Context, apiBase string, payload analyzeRequest, cb func(SSEEvent)) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/api/analyze/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := apiClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, apiError(resp.Body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	var eventType string
	var eventData []string
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "data:"):
			eventData = append(eventData, strings.TrimSpace(line[5:]))
		case line == "" && eventType != "":
			cb(SSEEvent{Type: eventType, Data: strings.Join(eventData, "\n")})
			eventType = ""
			eventData = nil
		}
	}
	return scanner.Err()
}

func apiError(body io.Reader) string {
	var e struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(body, 4096))
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}

// ParseResult parses the JSON result from the "result" SSE event.
func ParseResult(data string) (*AnalysisResult, error) {
	var r AnalysisResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ShareURL links to the stored analysis page, empty when nothing was stored.
func ShareURL(apiBase string, r *AnalysisResult) string {
	if r == nil || r.ID <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/s/%d", strings.TrimRight(apiBase, "/"), r.ID)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
