package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"news-verifier/models"
	"news-verifier/sentiment"
)

const (
	classifierInputRunes = 512
	factCheckQueryRunes  = 80

	maxModelScore  = 0.95
	externalSignal = 0.9
)

// Engine gathers the model, tone and fact-check signals for a text and fuses
// them into one verdict. It holds no per-call state and is safe for
// concurrent use. classifier and factChecker may be nil.
type Engine struct {
	classifier  Classifier
	sentiment   SentimentAnalyzer
	factChecker FactChecker
}

func NewEngine(classifier Classifier, analyzer SentimentAnalyzer, factChecker FactChecker) *Engine {
	if analyzer == nil {
		analyzer = sentiment.New()
	}
	return &Engine{
		classifier:  classifier,
		sentiment:   analyzer,
		factChecker: factChecker,
	}
}

type modelOutcome struct {
	pred ModelPrediction
	err  error
}

type factCheckOutcome struct {
	rating *ClaimRating
	err    error
}

// Analyze always returns a complete result; collaborator failures fall back
// to neutral scores and are reported in Details.
func (e *Engine) Analyze(ctx context.Context, text string) *models.AnalysisResult {
	var (
		model modelOutcome
		fact  factCheckOutcome
		g     errgroup.Group
	)

	if e.classifier != nil {
		g.Go(func() error {
			model.pred, model.err = e.classifier.Classify(ctx, firstRunes(text, classifierInputRunes))
			return nil
		})
	}
	if e.factChecker != nil {
		g.Go(func() error {
			fact.rating, fact.err = e.factChecker.Lookup(ctx, firstRunes(text, factCheckQueryRunes))
			return nil
		})
	}

	tone := Tone(text, e.sentiment.Sentiment(text))

	_ = g.Wait()

	scores := NeutralScores()
	var details []string

	switch {
	case e.classifier == nil:
		details = append(details, "⚠️ Model unavailable, using neutral scores.")
	case model.err != nil:
		slog.Warn("[ENGINE] classifier failed", "error", model.err)
		details = append(details, fmt.Sprintf("⚠️ Model error: %v", model.err))
	default:
		scores.ModelFake, scores.ModelReal = ModelScores(model.pred)
		details = append(details, fmt.Sprintf("🤖 Model classified as '%s' (%.2f)",
			strings.ToLower(model.pred.Label), model.pred.Score))
	}

	details = append(details, fmt.Sprintf("🧠 Sentiment polarity=%.2f, subjectivity=%.2f",
		tone.Sentiment.Polarity, tone.Sentiment.Subjectivity))
	if tone.Emotional {
		details = append(details, "⚠️ Highly emotional or biased tone.")
	} else if tone.Objective {
		details = append(details, "✅ Objective or neutral tone detected.")
	}
	if tone.SensationalHits > 0 {
		details = append(details, fmt.Sprintf("🚨 Sensational words detected (%d).", tone.SensationalHits))
	}
	if tone.CredibleHits > 0 {
		details = append(details, fmt.Sprintf("✅ Credible terms found (%d).", tone.CredibleHits))
	}
	scores.ToneFake, scores.ToneReal = tone.Fake, tone.Real

	switch {
	case e.factChecker == nil || errors.Is(fact.err, ErrNoCredential):
		details = append(details, "ℹ️ FactCheck lookup not configured.")
	case fact.err != nil:
		slog.Warn("[ENGINE] fact check failed", "error", fact.err)
		details = append(details, "⚠️ FactCheck API unavailable.")
	case fact.rating != nil:
		var line string
		scores.ExternalFake, scores.ExternalReal, line = ExternalScores(fact.rating.Rating)
		if line != "" {
			details = append(details, line)
		}
	}

	v := Fuse(scores)
	slog.Debug("[ENGINE] fused",
		"fake", v.FakeProbability, "real", v.RealProbability, "confidence", v.Confidence)

	return &models.AnalysisResult{
		IsFake:          v.IsFake,
		FakeProbability: v.FakeProbability,
		RealProbability: v.RealProbability,
		Confidence:      v.Confidence,
		Details:         details,
	}
}

// ModelScores clamps the classifier's confidence for its label to 0.95 and
// gives the other class the complement.
func ModelScores(p ModelPrediction) (fake, real float64) {
	clamped := math.Max(0, math.Min(p.Score, maxModelScore))
	if isFakeLabel(p.Label) {
		return clamped, 1 - clamped
	}
	return 1 - clamped, clamped
}

// ExternalScores maps a textual claim rating to a signal. "false" wins over
// "true" when both appear; other ratings carry no signal.
func ExternalScores(rating string) (fake, real float64, detail string) {
	r := strings.ToLower(rating)
	switch {
	case strings.Contains(r, "false"):
		return externalSignal, 0, fmt.Sprintf("📡 FactCheck: Marked False (%s)", r)
	case strings.Contains(r, "true"):
		return 0, externalSignal, fmt.Sprintf("📡 FactCheck: Marked True (%s)", r)
	default:
		return 0, 0, ""
	}
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
