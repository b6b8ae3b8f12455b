// Package scoring turns a collection of categorized, severity-rated red
// flags into category scores, an overall risk score, an investment-advice
// tier, and narrative guidance. All functions are pure and stateless.
package scoring

import (
	"math"

	"github.com/mventris/heartlens/internal/domain"
)

// severityWeights maps each severity to its score multiplier.
var severityWeights = map[domain.Severity]float64{
	domain.SeverityLow:      1,
	domain.SeverityMedium:   2.5,
	domain.SeverityHigh:     5,
	domain.SeverityCritical: 10,
}

// categoryWeights combines the four category scores into the overall
// risk score. Must sum to 1.0.
var categoryWeights = struct {
	communication         float64
	trust                 float64
	emotionalIntelligence float64
	futureAlignment       float64
}{
	communication:         0.30,
	trust:                 0.35,
	emotionalIntelligence: 0.20,
	futureAlignment:       0.15,
}

// maxFlagWeight is the upper bound of the extraction step's 1-10 weight.
const maxFlagWeight = 10

// maxNextSteps caps the suggestion list. Safety steps for critical flags
// can crowd out category-specific steps under this cap.
const maxNextSteps = 5

// CategoryScore returns the severity-weighted intensity of the flags in
// one category, in [0,100]. Category matching folds case and strips
// whitespace, so "Future Alignment" and "futurealignment" are the same
// target. An empty category scores 0.
//
// The denominator is the theoretical maximum of the flags actually seen
// (count x weight 10 x critical severity), so a lone critical flag scores
// high while the same flag diluted among many low-severity observations
// scores lower.
func CategoryScore(flags []domain.RedFlag, category string) float64 {
	norm := domain.NormalizeCategory(category)

	var total float64
	count := 0
	for _, f := range flags {
		if domain.NormalizeCategory(string(f.Category)) != norm {
			continue
		}
		total += f.Weight * severityWeights[f.Severity]
		count++
	}
	if count == 0 {
		return 0
	}

	maxPossible := float64(count) * maxFlagWeight * severityWeights[domain.SeverityCritical]
	return math.Min(100, total/maxPossible*100)
}

// CategoryScores computes all four category scores from one flag set.
func CategoryScores(flags []domain.RedFlag) domain.CategoryScores {
	return domain.CategoryScores{
		Communication:         CategoryScore(flags, string(domain.CategoryCommunication)),
		Trust:                 CategoryScore(flags, string(domain.CategoryTrust)),
		EmotionalIntelligence: CategoryScore(flags, string(domain.CategoryEmotionalIntelligence)),
		FutureAlignment:       CategoryScore(flags, string(domain.CategoryFutureAlignment)),
	}
}

// OverallScore combines the category scores via the fixed weights,
// rounded to the nearest integer. Inputs are already in [0,100] and the
// weights sum to 1, so no clamping is needed.
func OverallScore(c domain.CategoryScores) int {
	weighted := c.Communication*categoryWeights.communication +
		c.Trust*categoryWeights.trust +
		c.EmotionalIntelligence*categoryWeights.emotionalIntelligence +
		c.FutureAlignment*categoryWeights.futureAlignment
	return int(math.Round(weighted))
}

// InvestmentAdvice maps the overall score to its risk tier. Ties at a
// threshold go to the higher-severity tier.
func InvestmentAdvice(score int) domain.Advice {
	switch {
	case score >= 75:
		return domain.AdviceCriticalRisk
	case score >= 50:
		return domain.AdviceHighRisk
	case score >= 25:
		return domain.AdviceModerateRisk
	default:
		return domain.AdviceLowRisk
	}
}

// Recommendation selects the narrative guidance for a session. The
// severity of the flag set can override the score: any critical flag
// forces the most severe narrative, and two or more high flags force at
// least the second tier.
func Recommendation(score int, flags []domain.RedFlag) string {
	critical := countSeverity(flags, domain.SeverityCritical)
	high := countSeverity(flags, domain.SeverityHigh)

	switch {
	case score >= 75 || critical > 0:
		return recommendationCritical
	case score >= 50 || high >= 2:
		return recommendationHigh
	case score >= 25:
		return recommendationModerate
	default:
		return recommendationHealthy
	}
}

// NextSteps builds the ordered, capped suggestion list: safety steps
// first if any flag is critical, then two steps per category present (in
// canonical category order), then the generic-positive fallback when
// nothing else applied. The result is truncated to maxNextSteps entries.
func NextSteps(_ int, flags []domain.RedFlag) []string {
	steps := []string{}

	if countSeverity(flags, domain.SeverityCritical) > 0 {
		steps = append(steps, criticalSteps...)
	}

	for _, cat := range domain.Categories {
		if hasCategory(flags, cat) {
			steps = append(steps, categorySteps[cat]...)
		}
	}

	if len(steps) == 0 {
		steps = append(steps, healthySteps...)
	}

	if len(steps) > maxNextSteps {
		steps = steps[:maxNextSteps]
	}
	return steps
}

// Analyze runs the full pipeline over one red-flag snapshot and produces
// the immutable session report. The overall score and category scores
// are always derived from the same snapshot.
func Analyze(flags []domain.RedFlag) domain.RiskAnalysis {
	categories := CategoryScores(flags)
	overall := OverallScore(categories)

	snapshot := make([]domain.RedFlag, len(flags))
	copy(snapshot, flags)

	return domain.RiskAnalysis{
		OverallScore:     overall,
		Categories:       categories,
		RedFlags:         snapshot,
		Recommendation:   Recommendation(overall, flags),
		NextSteps:        NextSteps(overall, flags),
		InvestmentAdvice: InvestmentAdvice(overall),
	}
}

func countSeverity(flags []domain.RedFlag, sev domain.Severity) int {
	n := 0
	for _, f := range flags {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

func hasCategory(flags []domain.RedFlag, cat domain.Category) bool {
	for _, f := range flags {
		if cat.Matches(string(f.Category)) {
			return true
		}
	}
	return false
}
