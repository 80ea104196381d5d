package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-verifier/sentiment"
)

type stubClassifier struct {
	mu   sync.Mutex
	pred ModelPrediction
	err  error
	got  string
}

func (s *stubClassifier) Classify(_ context.Context, text string) (ModelPrediction, error) {
	s.mu.Lock()
	s.got = text
	s.mu.Unlock()
	return s.pred, s.err
}

type stubFactChecker struct {
	mu     sync.Mutex
	rating *ClaimRating
	err    error
	got    string
}

func (s *stubFactChecker) Lookup(_ context.Context, query string) (*ClaimRating, error) {
	s.mu.Lock()
	s.got = query
	s.mu.Unlock()
	return s.rating, s.err
}

type fixedSentiment sentiment.Sentiment

func (f fixedSentiment) Sentiment(string) sentiment.Sentiment { return sentiment.Sentiment(f) }

func neutralModel() *stubClassifier {
	return &stubClassifier{pred: ModelPrediction{Label: "REAL", Score: 0.5}}
}

func TestEngineShockingScenario(t *testing.T) {
	e := NewEngine(neutralModel(), nil, nil)

	res := e.Analyze(context.Background(), "This is shocking!")

	assert.True(t, res.IsFake)
	assert.InDelta(t, 0.5498, res.FakeProbability, 1e-4)
	assert.InDelta(t, 0.630, res.Confidence, 1e-3)
	assert.InDelta(t, 1.0, res.FakeProbability+res.RealProbability, 1e-9)

	require.Len(t, res.Details, 5)
	assert.Equal(t, "🤖 Model classified as 'real' (0.50)", res.Details[0])
	assert.Equal(t, "🧠 Sentiment polarity=-1.00, subjectivity=1.00", res.Details[1])
	assert.Equal(t, "⚠️ Highly emotional or biased tone.", res.Details[2])
	assert.Equal(t, "🚨 Sensational words detected (1).", res.Details[3])
	assert.Equal(t, "ℹ️ FactCheck lookup not configured.", res.Details[4])
}

func TestEngineFactCheckFalseScenario(t *testing.T) {
	fc := &stubFactChecker{rating: &ClaimRating{Claim: "x", Rating: "Mostly False"}}
	e := NewEngine(neutralModel(), fixedSentiment{Polarity: 0.1, Subjectivity: 0.5}, fc)

	res := e.Analyze(context.Background(), "The moon is made of cheese")

	assert.True(t, res.IsFake)
	assert.InDelta(t, 0.5449, res.FakeProbability, 1e-3)
	assert.Contains(t, res.Details, "📡 FactCheck: Marked False (mostly false)")
}

func TestEngineFactCheckTrue(t *testing.T) {
	fc := &stubFactChecker{rating: &ClaimRating{Rating: "True"}}
	e := NewEngine(neutralModel(), fixedSentiment{Polarity: 0.1, Subjectivity: 0.5}, fc)

	res := e.Analyze(context.Background(), "Water boils at 100C at sea level")

	assert.False(t, res.IsFake)
	assert.Contains(t, res.Details, "📡 FactCheck: Marked True (true)")
}

func TestEngineUnrecognisedRatingCarriesNoSignal(t *testing.T) {
	fc := &stubFactChecker{rating: &ClaimRating{Rating: "Misleading"}}
	e := NewEngine(neutralModel(), fixedSentiment{Polarity: 0.1, Subjectivity: 0.5}, fc)

	res := e.Analyze(context.Background(), "something")

	assert.False(t, res.IsFake)
	assert.Equal(t, 0.5, res.FakeProbability)
	for _, d := range res.Details {
		assert.NotContains(t, d, "FactCheck")
	}
}

func TestEngineNoClaimsLeavesNoLine(t *testing.T) {
	fc := &stubFactChecker{}
	e := NewEngine(neutralModel(), fixedSentiment{Polarity: 0.1, Subjectivity: 0.5}, fc)

	res := e.Analyze(context.Background(), "something")

	assert.Equal(t, []string{
		"🤖 Model classified as 'real' (0.50)",
		"🧠 Sentiment polarity=0.10, subjectivity=0.50",
	}, res.Details)
}

func TestEngineModelErrorFallsBackToNeutral(t *testing.T) {
	clf := &stubClassifier{err: errors.New("connection refused")}
	e := NewEngine(clf, fixedSentiment{Polarity: 0.1, Subjectivity: 0.5}, nil)

	res := e.Analyze(context.Background(), "something")

	assert.False(t, res.IsFake)
	assert.Equal(t, 0.5, res.FakeProbability)
	assert.Equal(t, 0.5, res.RealProbability)
	require.NotEmpty(t, res.Details)
	assert.Contains(t, strings.ToLower(res.Details[0]), "model error")
	assert.Contains(t, res.Details[0], "connection refused")
}

func TestEngineNilClassifier(t *testing.T) {
	e := NewEngine(nil, fixedSentiment{Polarity: 0.1, Subjectivity: 0.5}, nil)

	res := e.Analyze(context.Background(), "something")

	assert.Equal(t, 0.5, res.FakeProbability)
	assert.Equal(t, "⚠️ Model unavailable, using neutral scores.", res.Details[0])
}

func TestEngineFactCheckErrors(t *testing.T) {
	e := NewEngine(neutralModel(), fixedSentiment{}, &stubFactChecker{err: ErrNoCredential})
	res := e.Analyze(context.Background(), "something")
	assert.Contains(t, res.Details, "ℹ️ FactCheck lookup not configured.")

	e = NewEngine(neutralModel(), fixedSentiment{}, &stubFactChecker{err: errors.New("bad status code: 500")})
	res = e.Analyze(context.Background(), "something")
	assert.Contains(t, res.Details, "⚠️ FactCheck API unavailable.")
	// neutral model and objective tone: external failure must not push towards fake
	assert.False(t, res.IsFake)
}

func TestEngineModelScoreClamped(t *testing.T) {
	clf := &stubClassifier{pred: ModelPrediction{Label: "FAKE", Score: 0.999}}
	e := NewEngine(clf, fixedSentiment{Polarity: 0.1, Subjectivity: 0.5}, nil)

	res := e.Analyze(context.Background(), "something")

	// 0.95*0.55 vs 0.05*0.55
	assert.InDelta(t, 1/(1+math.Exp(-0.495)), res.FakeProbability, 1e-9)
	assert.Equal(t, "🤖 Model classified as 'fake' (1.00)", res.Details[0])
}

func TestEngineTruncatesCollaboratorInput(t *testing.T) {
	clf := neutralModel()
	fc := &stubFactChecker{}
	e := NewEngine(clf, fixedSentiment{}, fc)

	text := strings.Repeat("ж", 1000)
	e.Analyze(context.Background(), text)

	assert.Equal(t, 512, utf8.RuneCountInString(clf.got))
	assert.Equal(t, 80, utf8.RuneCountInString(fc.got))
	assert.True(t, utf8.ValidString(clf.got))
}

func TestModelScores(t *testing.T) {
	fake, real := ModelScores(ModelPrediction{Label: "LABEL_FAKE", Score: 0.7})
	assert.Equal(t, 0.7, fake)
	assert.InDelta(t, 0.3, real, 1e-12)

	fake, real = ModelScores(ModelPrediction{Label: "LABEL_0", Score: 0.99})
	assert.InDelta(t, 0.05, fake, 1e-12)
	assert.Equal(t, 0.95, real)
}

func TestExternalScores(t *testing.T) {
	fake, real, line := ExternalScores("False")
	assert.Equal(t, 0.9, fake)
	assert.Equal(t, 0.0, real)
	assert.Equal(t, "📡 FactCheck: Marked False (false)", line)

	// "false" is checked first
	fake, real, _ = ExternalScores("Not true, false")
	assert.Equal(t, 0.9, fake)
	assert.Equal(t, 0.0, real)

	fake, real, line = ExternalScores("Half True")
	assert.Equal(t, 0.0, fake)
	assert.Equal(t, 0.9, real)
	assert.Equal(t, "📡 FactCheck: Marked True (half true)", line)

	_, _, line = ExternalScores("Pants on fire")
	assert.Empty(t, line)
}

func TestFirstRunes(t *testing.T) {
	assert.Equal(t, "héll", firstRunes("héllo", 4))
	assert.Equal(t, "hi", firstRunes("hi", 80))
	assert.Equal(t, "", firstRunes("", 5))
}
