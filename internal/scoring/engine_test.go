package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mventris/heartlens/internal/domain"
)

func flag(cat domain.Category, sev domain.Severity, weight float64) domain.RedFlag {
	return domain.RedFlag{Category: cat, Severity: sev, Weight: weight}
}

func TestCategoryScoreEmpty(t *testing.T) {
	t.Parallel()

	assert.Zero(t, CategoryScore(nil, "Trust"))
	assert.Zero(t, CategoryScore([]domain.RedFlag{}, "Trust"))

	// Flags in other categories do not leak in.
	flags := []domain.RedFlag{flag(domain.CategoryCommunication, domain.SeverityCritical, 10)}
	assert.Zero(t, CategoryScore(flags, "Trust"))
}

func TestCategoryScoreSingleCriticalMaxWeight(t *testing.T) {
	t.Parallel()

	flags := []domain.RedFlag{flag(domain.CategoryTrust, domain.SeverityCritical, 10)}
	assert.InDelta(t, 100, CategoryScore(flags, "Trust"), 1e-9)
}

func TestCategoryScoreTwoLowFlags(t *testing.T) {
	t.Parallel()

	flags := []domain.RedFlag{
		flag(domain.CategoryTrust, domain.SeverityLow, 1),
		flag(domain.CategoryTrust, domain.SeverityLow, 1),
	}
	// ((1*1)+(1*1)) / (2*100) * 100 = 1
	assert.InDelta(t, 1, CategoryScore(flags, "Trust"), 1e-9)
}

func TestCategoryScoreDilution(t *testing.T) {
	t.Parallel()

	lone := []domain.RedFlag{flag(domain.CategoryTrust, domain.SeverityCritical, 8)}
	diluted := append([]domain.RedFlag{
		flag(domain.CategoryTrust, domain.SeverityLow, 1),
		flag(domain.CategoryTrust, domain.SeverityLow, 1),
		flag(domain.CategoryTrust, domain.SeverityLow, 1),
	}, lone...)

	assert.Greater(t, CategoryScore(lone, "Trust"), CategoryScore(diluted, "Trust"),
		"a lone critical flag should outscore the same flag diluted among low-severity observations")
}

func TestCategoryScoreMatchingIsCaseAndWhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	flags := []domain.RedFlag{flag(domain.CategoryFutureAlignment, domain.SeverityHigh, 4)}

	spaced := CategoryScore(flags, "Future Alignment")
	folded := CategoryScore(flags, "futurealignment")
	shouty := CategoryScore(flags, "  FUTURE   ALIGNMENT ")

	assert.Equal(t, spaced, folded)
	assert.Equal(t, spaced, shouty)
	assert.Greater(t, spaced, 0.0)
}

func TestCategoryScoreClampedAt100(t *testing.T) {
	t.Parallel()

	// Weight above the assumed 1-10 bound: intermediate value exceeds
	// 100, the final clamp bounds it.
	flags := []domain.RedFlag{flag(domain.CategoryTrust, domain.SeverityCritical, 15)}
	assert.InDelta(t, 100, CategoryScore(flags, "Trust"), 1e-9)
}

func TestCategoryScoresAllBounded(t *testing.T) {
	t.Parallel()

	flags := []domain.RedFlag{
		flag(domain.CategoryCommunication, domain.SeverityMedium, 5),
		flag(domain.CategoryTrust, domain.SeverityCritical, 10),
		flag(domain.CategoryEmotionalIntelligence, domain.SeverityLow, 2),
		flag(domain.CategoryFutureAlignment, domain.SeverityHigh, 7),
	}
	c := CategoryScores(flags)
	for name, v := range map[string]float64{
		"communication":         c.Communication,
		"trust":                 c.Trust,
		"emotionalIntelligence": c.EmotionalIntelligence,
		"futureAlignment":       c.FutureAlignment,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 100.0, name)
	}
}

func TestOverallScoreWeighting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   domain.CategoryScores
		want int
	}{
		{"all zero", domain.CategoryScores{}, 0},
		{"all hundred", domain.CategoryScores{Communication: 100, Trust: 100, EmotionalIntelligence: 100, FutureAlignment: 100}, 100},
		{"trust only", domain.CategoryScores{Trust: 100}, 35},
		{"communication only", domain.CategoryScores{Communication: 100}, 30},
		{"ei only", domain.CategoryScores{EmotionalIntelligence: 100}, 20},
		{"future only", domain.CategoryScores{FutureAlignment: 100}, 15},
		{"half up", domain.CategoryScores{Communication: 30, Trust: 90}, 41}, // 9 + 31.5 = 40.5
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallScore(tt.in))
		})
	}
}

func TestInvestmentAdviceThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  domain.Advice
	}{
		{100, domain.AdviceCriticalRisk},
		{75, domain.AdviceCriticalRisk},
		{74, domain.AdviceHighRisk},
		{50, domain.AdviceHighRisk},
		{49, domain.AdviceModerateRisk},
		{25, domain.AdviceModerateRisk},
		{24, domain.AdviceLowRisk},
		{0, domain.AdviceLowRisk},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InvestmentAdvice(tt.score), "score %d", tt.score)
	}
}

func TestRecommendationOverrides(t *testing.T) {
	t.Parallel()

	// A single critical flag forces the most severe narrative even at a
	// low score.
	critical := []domain.RedFlag{flag(domain.CategoryTrust, domain.SeverityCritical, 1)}
	assert.Equal(t, recommendationCritical, Recommendation(5, critical))

	// Two high flags force at least the second tier.
	twoHigh := []domain.RedFlag{
		flag(domain.CategoryTrust, domain.SeverityHigh, 1),
		flag(domain.CategoryCommunication, domain.SeverityHigh, 1),
	}
	assert.Equal(t, recommendationHigh, Recommendation(10, twoHigh))

	// One high flag does not.
	oneHigh := twoHigh[:1]
	assert.Equal(t, recommendationHealthy, Recommendation(10, oneHigh))

	// Pure score tiers.
	assert.Equal(t, recommendationCritical, Recommendation(80, nil))
	assert.Equal(t, recommendationHigh, Recommendation(60, nil))
	assert.Equal(t, recommendationModerate, Recommendation(30, nil))
	assert.Equal(t, recommendationHealthy, Recommendation(10, nil))
}

func TestNextStepsNoFlags(t *testing.T) {
	t.Parallel()

	steps := NextSteps(0, nil)
	require.Len(t, steps, 3)
	assert.Equal(t, healthySteps, steps)
}

func TestNextStepsCategoryOrder(t *testing.T) {
	t.Parallel()

	// Flags arrive out of canonical order; steps still come out in
	// Communication, Trust, EI, Future Alignment order.
	flags := []domain.RedFlag{
		flag(domain.CategoryTrust, domain.SeverityLow, 1),
		flag(domain.CategoryCommunication, domain.SeverityLow, 1),
	}
	steps := NextSteps(2, flags)
	require.Len(t, steps, 4)
	assert.Equal(t, categorySteps[domain.CategoryCommunication], steps[:2])
	assert.Equal(t, categorySteps[domain.CategoryTrust], steps[2:4])
}

func TestNextStepsTruncation(t *testing.T) {
	t.Parallel()

	flags := []domain.RedFlag{
		flag(domain.CategoryCommunication, domain.SeverityCritical, 9),
		flag(domain.CategoryTrust, domain.SeverityHigh, 5),
		flag(domain.CategoryEmotionalIntelligence, domain.SeverityMedium, 3),
		flag(domain.CategoryFutureAlignment, domain.SeverityLow, 1),
	}
	steps := NextSteps(90, flags)
	require.Len(t, steps, 5)

	// The three safety steps come first, in their original order; the
	// cap then leaves room for only the first category's two steps.
	assert.Equal(t, criticalSteps, steps[:3])
	assert.Equal(t, categorySteps[domain.CategoryCommunication], steps[3:5])
}

func TestAnalyzeEndToEnd(t *testing.T) {
	t.Parallel()

	flags := []domain.RedFlag{
		flag(domain.CategoryTrust, domain.SeverityCritical, 9),
		flag(domain.CategoryCommunication, domain.SeverityHigh, 6),
	}
	report := Analyze(flags)

	assert.InDelta(t, 90, report.Categories.Trust, 1e-9)
	assert.InDelta(t, 30, report.Categories.Communication, 1e-9)
	assert.Zero(t, report.Categories.EmotionalIntelligence)
	assert.Zero(t, report.Categories.FutureAlignment)

	// round(90*0.35 + 30*0.30) = round(40.5) = 41
	assert.Equal(t, 41, report.OverallScore)
	assert.Equal(t, domain.AdviceModerateRisk, report.InvestmentAdvice)

	// Critical flag present: most severe narrative despite moderate score.
	assert.Equal(t, recommendationCritical, report.Recommendation)
	require.Len(t, report.RedFlags, 2)
}

func TestAnalyzeIdempotent(t *testing.T) {
	t.Parallel()

	flags := []domain.RedFlag{
		flag(domain.CategoryTrust, domain.SeverityCritical, 9),
		flag(domain.CategoryEmotionalIntelligence, domain.SeverityMedium, 4),
	}

	first, err := json.Marshal(Analyze(flags))
	require.NoError(t, err)
	second, err := json.Marshal(Analyze(flags))
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input must yield byte-identical reports")
}

func TestAnalyzeSnapshotIsolation(t *testing.T) {
	t.Parallel()

	flags := []domain.RedFlag{flag(domain.CategoryTrust, domain.SeverityLow, 2)}
	report := Analyze(flags)

	// Mutating the caller's slice must not reach the report.
	flags[0].Severity = domain.SeverityCritical
	assert.Equal(t, domain.SeverityLow, report.RedFlags[0].Severity)
}
