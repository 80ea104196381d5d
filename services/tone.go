package services

import (
	"math"
	"strings"

	"news-verifier/sentiment"
)

const (
	sentimentToneScore = 0.7
	keywordToneScore   = 0.8
)

var (
	sensationalTerms = []string{
		"shocking", "unbelievable", "miracle", "banned", "cure", "alien",
		"secret", "exposed", "flat earth", "proof", "viral", "you won't believe",
	}
	credibleTerms = []string{
		"report", "data", "study", "research", "university", "official", "analysis",
	}
)

// SentimentAnalyzer returns polarity in [-1,1] and subjectivity in [0,1].
type SentimentAnalyzer interface {
	Sentiment(text string) sentiment.Sentiment
}

// ToneSignal is the outcome of the sentiment and keyword passes.
type ToneSignal struct {
	Sentiment       sentiment.Sentiment
	Fake, Real      float64
	Emotional       bool
	Objective       bool
	SensationalHits int
	CredibleHits    int
}

// SentimentTone applies the polarity/subjectivity rule.
func SentimentTone(s sentiment.Sentiment) (fake, real float64) {
	switch {
	case s.Subjectivity > 0.7 && math.Abs(s.Polarity) > 0.5:
		return sentimentToneScore, 0
	case s.Subjectivity < 0.4 && math.Abs(s.Polarity) < 0.3:
		return 0, sentimentToneScore
	default:
		return 0, 0
	}
}

// KeywordHits counts how many terms of each list appear in the text.
func KeywordHits(text string) (sensational, credible int) {
	lower := strings.ToLower(text)
	return countTerms(lower, sensationalTerms), countTerms(lower, credibleTerms)
}

func countTerms(lower string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			n++
		}
	}
	return n
}

// Tone runs the sentiment rule and then the keyword rule. The keyword rule
// only raises a score, the two never add up.
func Tone(text string, s sentiment.Sentiment) ToneSignal {
	sig := ToneSignal{Sentiment: s}
	sig.Fake, sig.Real = SentimentTone(s)
	sig.Emotional = sig.Fake > 0
	sig.Objective = sig.Real > 0

	sig.SensationalHits, sig.CredibleHits = KeywordHits(text)
	if sig.SensationalHits > 0 {
		sig.Fake = math.Max(sig.Fake, keywordToneScore)
	}
	if sig.CredibleHits > 0 {
		sig.Real = math.Max(sig.Real, keywordToneScore)
	}
	return sig
}
