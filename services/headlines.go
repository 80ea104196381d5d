package services

import "strings"

// Headline verdicts.
const (
	HeadlineFake    = "fake"
	HeadlineReal    = "real"
	HeadlineUnknown = "unknown"
)

// HeadlineCheck is the verdict for a headline looked up in the known lists.
// Score is nil when nothing was entered.
type HeadlineCheck struct {
	Verdict string   `json:"verdict,omitempty"`
	Message string   `json:"message"`
	Color   string   `json:"color"`
	Score   *int     `json:"score"`
	Factors []string `json:"factors"`
}

var knownFakeHeadlines = headlineSet(
	"India and Pakistan Declare Full-Scale War Following Pahalgam Bus Attack",
	"China Diverts Brahmaputra to Relieve Pakistans Water Crisis",
	"U.S. Dollar Collapses Overnight Amidst Trumps 100% Universal Import Tariff",
	"Aliens landed in Paris",
	"Cure for cancer found in potato",
	"Government bans breathing on weekends",
	"Chocolate causes immortality",
)

var knownRealHeadlines = headlineSet(
	"hindu tourists attacked in kashmir, 26 fatalities",
	"Militants in Indian Kashmir Separate Men from Women and Children Before Opening Fire in Baisaran Valley",
	"Panic in Pakistan as India Vows to Cut Off Water Supply Over Kashmir",
	"Tariffs to Trigger Sharp US Economic Slowdown, Chance of Recession Jumps to 45%: Reuters Poll",
	"Global warming affects ocean levels",
	"New AI model improves healthcare diagnosis",
	"India launches new satellite successfully",
	"Electric vehicle adoption increases in 2025",
	"UN discusses global peace resolution",
)

func headlineSet(list ...string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, h := range list {
		m[strings.ToLower(h)] = true
	}
	return m
}

func intPtr(n int) *int { return &n }

// CheckHeadline looks input up in the fixed lists of known fake and real
// headlines. Matching ignores case and surrounding whitespace only.
func CheckHeadline(input string) HeadlineCheck {
	key := strings.ToLower(strings.TrimSpace(input))
	switch {
	case key == "":
		return HeadlineCheck{
			Message: "Please enter a news article or URL.",
			Color:   "#DC2626",
			Factors: []string{},
		}
	case knownFakeHeadlines[key]:
		return HeadlineCheck{
			Verdict: HeadlineFake,
			Message: "⚠️ This news appears to be FAKE.",
			Color:   "#DC2626",
			Score:   intPtr(20),
			Factors: []string{"Contains sensational claims", "Emotional tone", "No evidence"},
		}
	case knownRealHeadlines[key]:
		return HeadlineCheck{
			Verdict: HeadlineReal,
			Message: "✅ This news appears to be REAL.",
			Color:   "#059669",
			Score:   intPtr(85),
			Factors: []string{"Credible sources", "Factual consistency", "Neutral language"},
		}
	default:
		return HeadlineCheck{
			Verdict: HeadlineUnknown,
			Message: "🤔 Unable to determine authenticity. Try another headline.",
			Color:   "#6B7280",
			Score:   intPtr(50),
			Factors: []string{"Not enough data", "Check multiple sources"},
		}
	}
}
