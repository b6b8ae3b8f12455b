package domain

// CategoryScores holds the per-category risk intensity, each in [0,100].
// Always recomputed from the full red-flag collection, never patched.
type CategoryScores struct {
	Communication         float64 `json:"communication"`
	Trust                 float64 `json:"trust"`
	EmotionalIntelligence float64 `json:"emotionalIntelligence"`
	FutureAlignment       float64 `json:"futureAlignment"`
}

// Advice is the discrete investment-advice tier derived from the
// overall risk score.
type Advice string

const (
	AdviceCriticalRisk Advice = "Critical Risk - Consider Ending"
	AdviceHighRisk     Advice = "High Risk - Proceed with Caution"
	AdviceModerateRisk Advice = "Moderate Risk - Address Concerns"
	AdviceLowRisk      Advice = "Low Risk - Healthy Foundation"
)

// RiskAnalysis is the final report produced once when a session
// completes. Immutable thereafter; both OverallScore and Categories are
// derived from the same red-flag snapshot.
type RiskAnalysis struct {
	OverallScore     int            `json:"overallScore"`
	Categories       CategoryScores `json:"categories"`
	RedFlags         []RedFlag      `json:"redFlags"`
	Recommendation   string         `json:"recommendation"`
	NextSteps        []string       `json:"nextSteps"`
	InvestmentAdvice Advice         `json:"investmentAdvice"`
}
