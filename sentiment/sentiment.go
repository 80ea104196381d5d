// Package sentiment scores text polarity and subjectivity against a word lexicon.
//
// Every lexicon word found in the text contributes one assessment. An
// intensifier directly before a word scales both its polarity and
// subjectivity; a negator up to three tokens before it flips polarity and
// halves it. The text score is the mean of all assessments, clamped to
// polarity [-1,1] and subjectivity [0,1]. Text without lexicon words is
// neutral and objective (0, 0).
package sentiment

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

const (
	negationFactor = -0.5
	negationWindow = 3
)

//go:embed lexicon.json
var defaultLexicon []byte

var tokenRe = regexp.MustCompile(`[a-z]+(?:['’-][a-z]+)*`)

// Sentiment holds polarity in [-1,1] and subjectivity in [0,1].
type Sentiment struct {
	Polarity     float64
	Subjectivity float64
}

type Lexicon struct {
	Intensifiers map[string]float64    `json:"intensifiers"`
	Negators     []string              `json:"negators"`
	Words        map[string][2]float64 `json:"words"`
}

type Analyzer struct {
	lex      *Lexicon
	negators map[string]struct{}
}

// New returns an analyzer backed by the embedded lexicon.
func New() *Analyzer {
	lex, err := parseLexicon(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return NewWithLexicon(lex)
}

func NewWithLexicon(lex *Lexicon) *Analyzer {
	neg := make(map[string]struct{}, len(lex.Negators))
	for _, n := range lex.Negators {
		neg[n] = struct{}{}
	}
	return &Analyzer{lex: lex, negators: neg}
}

// LoadLexicon reads a lexicon JSON file from disk.
func LoadLexicon(path string) (*Lexicon, error) {
	slog.Info("[SENTIMENT] loading lexicon", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	lex, err := parseLexicon(data)
	if err != nil {
		return nil, err
	}

	slog.Info("[SENTIMENT] ✓ lexicon loaded", "words", len(lex.Words), "intensifiers", len(lex.Intensifiers))
	return lex, nil
}

func parseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := json.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}
	if len(lex.Words) == 0 {
		return nil, fmt.Errorf("lexicon has no words")
	}
	return &lex, nil
}

// Sentiment scores the text. It never fails.
func (a *Analyzer) Sentiment(text string) Sentiment {
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)

	var sumPol, sumSubj float64
	var count int

	intensity := 1.0
	negatedAt := -1 - negationWindow

	for i, tok := range tokens {
		if a.isNegator(tok) {
			negatedAt = i
			continue
		}
		if k, ok := a.lex.Intensifiers[tok]; ok {
			intensity = k
			continue
		}

		entry, ok := a.lex.Words[tok]
		if !ok {
			intensity = 1.0
			continue
		}

		pol := entry[0] * intensity
		subj := entry[1] * intensity
		if i-negatedAt <= negationWindow {
			pol *= negationFactor
			negatedAt = -1 - negationWindow
		}

		sumPol += clamp(pol, -1, 1)
		sumSubj += clamp(subj, 0, 1)
		count++
		intensity = 1.0
	}

	if count == 0 {
		return Sentiment{}
	}
	return Sentiment{
		Polarity:     clamp(sumPol/float64(count), -1, 1),
		Subjectivity: clamp(sumSubj/float64(count), 0, 1),
	}
}

func (a *Analyzer) isNegator(tok string) bool {
	if _, ok := a.negators[tok]; ok {
		return true
	}
	return strings.HasSuffix(tok, "n't") || strings.HasSuffix(tok, "n’t")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
