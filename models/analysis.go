package models

import "math"

const (
	PredictionFake = "Fake News"
	PredictionReal = "Real News"
)

type AnalysisRequest struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// AnalysisResult is the fused verdict for one piece of text. Probabilities
// and confidence are fractions in [0,1].
type AnalysisResult struct {
	IsFake          bool
	FakeProbability float64
	RealProbability float64
	Confidence      float64
	Details         []string
}

// AnalysisResponse is the JSON shape returned by the analyze endpoints.
// Percentages are rounded to two decimals.
type AnalysisResponse struct {
	ID              int64    `json:"id,omitempty"`
	Prediction      string   `json:"prediction"`
	Confidence      float64  `json:"confidence"`
	FakeProbability float64  `json:"fake_probability"`
	RealProbability float64  `json:"real_probability"`
	Details         []string `json:"details"`
	SourceURL       string   `json:"source_url,omitempty"`
}

func NewAnalysisResponse(r *AnalysisResult) *AnalysisResponse {
	prediction := PredictionReal
	if r.IsFake {
		prediction = PredictionFake
	}
	details := r.Details
	if details == nil {
		details = []string{}
	}
	return &AnalysisResponse{
		Prediction: prediction,
		// confidence is reported at two decimals before being scaled
		Confidence:      Round2(Round2(r.Confidence) * 100),
		FakeProbability: Round2(r.FakeProbability * 100),
		RealProbability: Round2(r.RealProbability * 100),
		Details:         details,
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type ErrorResponse struct {
	Error string `json:"error"`
}
