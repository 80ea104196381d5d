package models

// AnalysisRecord is a persisted analysis.
type AnalysisRecord struct {
	ID              int64    `json:"id"`
	Excerpt         string   `json:"excerpt"`
	SourceURL       string   `json:"source_url,omitempty"`
	IsFake          bool     `json:"is_fake"`
	FakeProbability float64  `json:"fake_probability"`
	RealProbability float64  `json:"real_probability"`
	Confidence      float64  `json:"confidence"`
	Details         []string `json:"details"`
	CreatedAt       string   `json:"created_at"`
}

type DomainStats struct {
	Domain         string  `json:"domain"`
	TotalAnalyses  int     `json:"total_analyses"`
	FakeCount      int     `json:"fake_count"`
	FakeRatio      float64 `json:"fake_ratio"`
	Verdict        string  `json:"verdict"`
	LastAnalyzedAt string  `json:"last_analyzed_at"`
}

type AdminStats struct {
	TotalRequests     int              `json:"total_requests"`
	FakeCount         int              `json:"fake_count"`
	RealCount         int              `json:"real_count"`
	AverageConfidence float64          `json:"average_confidence"`
	RecentRequests    []AnalysisRecord `json:"recent_requests"`
}
