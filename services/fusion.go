package services

import "math"

const (
	transformerWeight = 0.55
	linguisticWeight  = 0.25
	externalWeight    = 0.20

	baseConfidence     = 0.55
	confidenceSlope    = 0.8
	extremeProbability = 0.85
	extremeBoost       = 0.05
	maxConfidence      = 0.96
)

// Scores are the per-signal (fake, real) pairs fed into Fuse.
type Scores struct {
	ModelFake, ModelReal       float64
	ToneFake, ToneReal         float64
	ExternalFake, ExternalReal float64
}

// NeutralScores is the starting point before any signal is read:
// an undecided model and no tone or external evidence.
func NeutralScores() Scores {
	return Scores{ModelFake: 0.5, ModelReal: 0.5}
}

// Verdict is the normalized outcome of Fuse.
type Verdict struct {
	IsFake          bool
	FakeProbability float64
	RealProbability float64
	Confidence      float64
}

// Raw returns the weighted, pre-normalization score of each class.
func (s Scores) Raw() (rawFake, rawReal float64) {
	rawFake = s.ModelFake*transformerWeight + s.ToneFake*linguisticWeight + s.ExternalFake*externalWeight
	rawReal = s.ModelReal*transformerWeight + s.ToneReal*linguisticWeight + s.ExternalReal*externalWeight
	return rawFake, rawReal
}

// Normalize is a two-class softmax in logistic form. realProb is the
// complement, so the pair sums to one.
func Normalize(rawFake, rawReal float64) (fakeProb, realProb float64) {
	fakeProb = 1 / (1 + math.Exp(rawReal-rawFake))
	return fakeProb, 1 - fakeProb
}

// Confidence maps the probability gap into [0.55, 0.96]. The boost is added
// before the ceiling is applied.
func Confidence(fakeProb, realProb float64) float64 {
	c := baseConfidence + math.Abs(fakeProb-realProb)*confidenceSlope
	if realProb > extremeProbability || fakeProb > extremeProbability {
		c += extremeBoost
	}
	return math.Min(c, maxConfidence)
}

// Fuse combines the three signals into one verdict. Ties resolve to real.
func Fuse(s Scores) Verdict {
	fakeProb, realProb := Normalize(s.Raw())
	return Verdict{
		IsFake:          fakeProb > realProb,
		FakeProbability: fakeProb,
		RealProbability: realProb,
		Confidence:      Confidence(fakeProb, realProb),
	}
}
