package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSolution = `Steg 1: Vi har ekvationen 2x + 5 = 11.
Steg 2: Vi subtraherar 5 från båda sidor, därför blir 2x = 6.
Steg 3: Sedan dividerar vi med 2 och får x = 3.
Kontroll: 2 * 3 + 5 = 11 stämmer.
Svar: x = 3`

func TestRubricPoints(t *testing.T) {
	assert.Equal(t, 100, RubricPoints(1, 0, 1, 1))
	assert.Equal(t, 40, RubricPoints(0.5, 1, 0.5, 0.5))
	assert.Equal(t, 0, RubricPoints(0, 2, 0, 0))
	assert.Equal(t, 60, RubricPoints(1, 0, 0, 0))
	assert.Equal(t, 30, RubricPoints(0.3, 0, 0.7, 0))
}

func TestRubricPointsStaysOnTheTenPointGrid(t *testing.T) {
	levels := []float64{0, 0.3, 0.5, 1}
	for _, method := range levels {
		for errs := 0; errs <= 3; errs++ {
			for _, clarity := range levels {
				for _, units := range levels {
					got := RubricPoints(method, errs, clarity, units)
					require.GreaterOrEqual(t, got, 0)
					require.LessOrEqual(t, got, 100)
					require.Zero(t, got%10)
				}
			}
		}
	}
}

func TestBandFor(t *testing.T) {
	cases := map[float64]Band{
		95: BandA, 90: BandA, 89.9: BandB, 85: BandB, 75: BandC,
		65: BandD, 55: BandE, 50: BandE, 49.9: BandF, 10: BandF, 0: BandF,
	}
	for score, expected := range cases {
		assert.Equal(t, expected, BandFor(score), "score %v", score)
	}
}

func TestBandIsMonotonic(t *testing.T) {
	rank := map[Band]int{}
	for i, b := range Bands() {
		rank[b] = i
	}
	previous := rank[BandFor(100)]
	for score := 100.0; score >= 0; score -= 0.5 {
		current := rank[BandFor(score)]
		require.GreaterOrEqual(t, current, previous, "score %v", score)
		previous = current
	}
}

func TestScoreToBandNil(t *testing.T) {
	require.Nil(t, ScoreToBand(nil))

	score := 72.5
	band := ScoreToBand(&score)
	require.NotNil(t, band)
	require.Equal(t, BandC, *band)
}

func uniformAnalysis(v float64) Analysis {
	return Analysis{
		ContentQuality:        v,
		MathematicalRigor:     v,
		StructureOrganization: v,
		LanguageClarity:       v,
		SubjectRelevance:      v,
		Completeness:          v,
	}
}

func TestFinalScoreBonusSchedule(t *testing.T) {
	assert.InDelta(t, 0, FinalScore(uniformAnalysis(0)), 1e-9)
	assert.InDelta(t, 100, FinalScore(uniformAnalysis(1)), 1e-9)

	// 0.4 sits in the basic-effort tier (+0.15) plus both math effort bonuses.
	assert.InDelta(t, 65, FinalScore(uniformAnalysis(0.4)), 1e-9)
	// 0.6 sits in the good-work tier (+0.12), a smaller bonus than basic effort.
	assert.InDelta(t, 82, FinalScore(uniformAnalysis(0.6)), 1e-9)
	// 0.2 gets the very-minimal tier and the basic math bonus only.
	assert.InDelta(t, 35, FinalScore(uniformAnalysis(0.2)), 1e-9)
}

func TestFinalScoreComprehensiveBonus(t *testing.T) {
	a := Analysis{MathematicalRigor: 0.8, StructureOrganization: 0.8, Completeness: 0.8}
	// weighted 0.24+0.16+0.04 = 0.44, tier +0.15, comprehensive +0.05, math +0.10
	assert.InDelta(t, 74, FinalScore(a), 1e-9)
}

func TestConfidence(t *testing.T) {
	a := Analysis{Length: 500, MathematicalRigor: 0.5, StructureOrganization: 0.4}
	assert.InDelta(t, 0.74, Confidence(a, 50), 1e-9)
	assert.InDelta(t, 0.6, Confidence(a, 10), 1e-9)
	assert.InDelta(t, 1.0, Confidence(Analysis{Length: 5000, MathematicalRigor: 1, StructureOrganization: 1}, 50), 1e-9)
}

func TestExplain(t *testing.T) {
	a := Analysis{ContentQuality: 0.95, MathematicalRigor: 0.1, StructureOrganization: 0.5, Completeness: 0.7}
	require.Equal(t,
		"Score based on exceptional content quality, limited mathematical content, well-organized structure, complete work shown",
		Explain(a))

	require.Equal(t,
		"Score based on basic content quality, limited mathematical content, needs better organization",
		Explain(Analysis{}))
}

func TestAnalyzeBounds(t *testing.T) {
	for _, text := range []string{"", "hej", sampleSolution, strings.Repeat("typ liksom asså kanske ", 10)} {
		a := Analyze(text, "mathematics")
		for name, v := range map[string]float64{
			"content":      a.ContentQuality,
			"rigor":        a.MathematicalRigor,
			"structure":    a.StructureOrganization,
			"language":     a.LanguageClarity,
			"relevance":    a.SubjectRelevance,
			"completeness": a.Completeness,
		} {
			require.GreaterOrEqual(t, v, 0.0, name)
			require.LessOrEqual(t, v, 1.0, name)
		}
	}
}

func TestAnalyzeSubjectRelevance(t *testing.T) {
	require.Equal(t, 0.5, Analyze(sampleSolution, "history").SubjectRelevance)
	require.Greater(t, Analyze(sampleSolution, "mathematics").SubjectRelevance, 0.5)
}

func TestScorerMinimumLengthBoundary(t *testing.T) {
	scorer := NewScorer(Config{})
	content := []rune(strings.Repeat("2+2=4.", 10))

	short := scorer.Score(string(content[:49]), "mathematics", "")
	require.True(t, short.Disqualified())
	require.Nil(t, short.Band)
	require.Zero(t, short.Confidence)
	require.Equal(t, "Submission too short (minimum 50 characters required)", short.Reason)
	require.Equal(t, map[string]any{"error": "insufficient_length", "length": 49}, short.AnalysisData)

	enough := scorer.Score(string(content[:50]), "mathematics", "")
	require.False(t, enough.Disqualified())
	require.NotNil(t, enough.Band)
}

func TestScorerTrimsBeforeMeasuring(t *testing.T) {
	scorer := NewScorer(Config{})
	padded := "    " + strings.Repeat("a", 49) + "\n\n   "
	require.True(t, scorer.Score(padded, "mathematics", "").Disqualified())
}

func TestScorerEmptySubmission(t *testing.T) {
	result := NewScorer(Config{}).Score("", "mathematics", "")
	require.True(t, result.Disqualified())
	require.Equal(t, DefaultModelName, result.ModelUsed)
}

func TestScorerScoresValidSubmission(t *testing.T) {
	scorer := NewScorer(Config{MinLength: 50, ModelName: "custom"})
	result := scorer.Score(sampleSolution, "mathematics", "Lös ekvationen 2x + 5 = 11")

	require.NotNil(t, result.Score)
	require.GreaterOrEqual(t, *result.Score, 0.0)
	require.LessOrEqual(t, *result.Score, 100.0)
	require.Equal(t, BandFor(*result.Score), *result.Band)
	require.GreaterOrEqual(t, result.Confidence, 0.0)
	require.LessOrEqual(t, result.Confidence, 1.0)
	require.True(t, strings.HasPrefix(result.Reason, "Score based on "))
	require.Equal(t, "custom", result.ModelUsed)
	require.Equal(t, "Ekvationer", result.AnalysisData["topic"])
	require.Equal(t, 1, result.AnalysisData["difficulty"])
}

func TestScorerIsIdempotent(t *testing.T) {
	scorer := NewScorer(Config{})
	first := scorer.Score(sampleSolution, "mathematics", "")
	second := scorer.Score(sampleSolution, "mathematics", "")

	second.ProcessingTimeMs = first.ProcessingTimeMs + 42
	require.True(t, first.Equal(second))

	other := scorer.Score(sampleSolution+"\nSlutsats: klart.", "mathematics", "")
	require.False(t, first.Equal(other))
}
