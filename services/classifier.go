package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"news-verifier/ml"
)

const (
	hfInferenceURL = "https://api-inference.huggingface.co/models/"
	hfMaxRetries   = 3
	hfTimeout      = 30 * time.Second
	// hfBudget caps all attempts of one Classify call, waits included.
	// fetchTimeout plus hfBudget must stay under the server WriteTimeout.
	hfBudget = 45 * time.Second
)

// ModelPrediction is the top label a classifier assigned and its score in [0,1].
type ModelPrediction struct {
	Label string
	Score float64
}

// Classifier scores text as fake or real. Labels containing "fake"
// (any case) mean fake; anything else means real.
type Classifier interface {
	Classify(ctx context.Context, text string) (ModelPrediction, error)
}

// HuggingFaceClassifier calls a text-classification model on the Inference API.
type HuggingFaceClassifier struct {
	APIToken  string
	Model     string
	BaseURL   string
	RetryWait time.Duration
	// Budget bounds a whole Classify call; zero means no bound.
	Budget time.Duration

	httpClient *http.Client
	tracker    *UpstreamTracker
}

func NewHuggingFaceClassifier(apiToken, model string, tracker *UpstreamTracker) *HuggingFaceClassifier {
	return &HuggingFaceClassifier{
		APIToken:   apiToken,
		Model:      model,
		BaseURL:    hfInferenceURL,
		RetryWait:  5 * time.Second,
		Budget:     hfBudget,
		httpClient: &http.Client{Timeout: hfTimeout},
		tracker:    tracker,
	}
}

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *HuggingFaceClassifier) Classify(ctx context.Context, text string) (ModelPrediction, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return ModelPrediction{}, fmt.Errorf("marshal request: %w", err)
	}

	if c.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Budget)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= hfMaxRetries; attempt++ {
		if attempt > 1 {
			slog.Info("[HF] ⏳ retrying", "attempt", attempt, "max", hfMaxRetries, "wait", c.RetryWait)
			select {
			case <-ctx.Done():
				return ModelPrediction{}, ctx.Err()
			case <-time.After(c.RetryWait):
			}
		}

		pred, retry, err := c.call(ctx, body)
		if err == nil {
			return pred, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return ModelPrediction{}, fmt.Errorf("huggingface %s: %w", c.Model, lastErr)
}

func (c *HuggingFaceClassifier) call(ctx context.Context, body []byte) (pred ModelPrediction, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+c.Model, bytes.NewReader(body))
	if err != nil {
		return pred, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("[HF] ❌ request failed", "error", err)
		return pred, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	c.tracker.Update(UpstreamHuggingFace, resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return pred, true, fmt.Errorf("read response: %w", err)
	}
	slog.Debug("[HF] response", "status", resp.StatusCode, "elapsed", time.Since(start), "bytes", len(data))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		// 503 while the model is loading
		return pred, true, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))
	case resp.StatusCode != http.StatusOK:
		return pred, false, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	pred, err = parseHFLabels(data)
	return pred, false, err
}

// parseHFLabels accepts both [[{label,score}]] and [{label,score}] and
// returns the highest scoring label.
func parseHFLabels(data []byte) (ModelPrediction, error) {
	var nested [][]hfLabel
	var labels []hfLabel
	if err := json.Unmarshal(data, &nested); err == nil && len(nested) > 0 {
		labels = nested[0]
	} else if err := json.Unmarshal(data, &labels); err != nil {
		return ModelPrediction{}, fmt.Errorf("unexpected response: %w", err)
	}
	if len(labels) == 0 {
		return ModelPrediction{}, fmt.Errorf("response has no labels")
	}

	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return ModelPrediction{Label: best.Label, Score: best.Score}, nil
}

// LocalClassifier serves a model produced by the trainer.
type LocalClassifier struct {
	model *ml.Model
}

func NewLocalClassifier(m *ml.Model) *LocalClassifier {
	return &LocalClassifier{model: m}
}

func LoadLocalClassifier(path string) (*LocalClassifier, error) {
	m, err := ml.Load(path)
	if err != nil {
		return nil, err
	}
	return NewLocalClassifier(m), nil
}

func (c *LocalClassifier) Classify(_ context.Context, text string) (ModelPrediction, error) {
	label, score := c.model.Predict(text)
	return ModelPrediction{Label: label, Score: score}, nil
}

func isFakeLabel(label string) bool {
	return strings.Contains(strings.ToLower(label), "fake")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
