package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalizeUsesParsedConfidence(t *testing.T) {
	p := DefaultPolicy()
	env := p.Finalize(Parsed{Answer: "Employees get 20 days.", Confidence: 0.9, HasConfidence: true}, 0.3, "vacation days?")
	assert.Equal(t, 0.9, env.Confidence)
	assert.False(t, env.NeedsEscalation)
}

func TestFinalizeFallsBackToSimilarity(t *testing.T) {
	p := DefaultPolicy()
	env := p.Finalize(Parsed{Answer: "Employees get 20 days."}, 0.72, "vacation days?")
	assert.Equal(t, 0.72, env.Confidence)
	assert.False(t, env.NeedsEscalation)
}

func TestFinalizeMissingInfoCap(t *testing.T) {
	p := DefaultPolicy()
	env := p.Finalize(Parsed{
		Answer:        "I don't have that information in the HR documents. Please contact HR for assistance.",
		Confidence:    0.95,
		HasConfidence: true,
	}, 0.9, "quantum policy?")
	assert.LessOrEqual(t, env.Confidence, 0.40)
	assert.True(t, env.NeedsEscalation)
	assert.Contains(t, env.Reason, "not found")
}

func TestFinalizeMarkerMatchIsCaseInsensitive(t *testing.T) {
	p := DefaultPolicy()
	env := p.Finalize(Parsed{Answer: "That information is NOT AVAILABLE here.", Confidence: 0.9, HasConfidence: true}, 0.9, "parking?")
	assert.LessOrEqual(t, env.Confidence, 0.40)
}

func TestFinalizeOverlapBoost(t *testing.T) {
	p := DefaultPolicy()
	question := "how many vacation days do full time employees receive"
	answer := "Full time employees receive twenty vacation days each calendar year, and these vacation days accrue monthly. How the days accrue is described in the handbook, and employees do carry days over."
	if len(answer) <= p.DetailedAnswerChars {
		t.Fatalf("test answer must exceed %d chars", p.DetailedAnswerChars)
	}
	env := p.Finalize(Parsed{Answer: answer, Confidence: 0.7, HasConfidence: true}, 0.7, question)
	assert.Equal(t, 0.8, env.Confidence)
}

func TestFinalizeNoBoostForShortAnswer(t *testing.T) {
	p := DefaultPolicy()
	env := p.Finalize(Parsed{Answer: "Twenty days.", Confidence: 0.7, HasConfidence: true}, 0.7, "how many vacation days?")
	assert.Equal(t, 0.7, env.Confidence)
}

func TestFinalizeBoostNeverExceedsOne(t *testing.T) {
	p := DefaultPolicy()
	question := "vacation days accrual employees receive"
	answer := "Employees receive vacation days under the accrual schedule. The accrual of vacation days for employees happens monthly so employees always know how many vacation days they can receive and plan around."
	env := p.Finalize(Parsed{Answer: answer, Confidence: 0.98, HasConfidence: true}, 0.9, question)
	assert.LessOrEqual(t, env.Confidence, 1.0)
}

func TestFinalizeRoundsToTwoDecimals(t *testing.T) {
	p := DefaultPolicy()
	env := p.Finalize(Parsed{Answer: "Short answer."}, 0.70000001, "anything")
	assert.Equal(t, 0.7, env.Confidence)
}

func TestFinalizeEscalationThreshold(t *testing.T) {
	p := DefaultPolicy()

	env := p.Finalize(Parsed{Answer: "Maybe.", Confidence: 0.59, HasConfidence: true}, 0.59, "q")
	assert.True(t, env.NeedsEscalation)

	env = p.Finalize(Parsed{Answer: "Certain.", Confidence: 0.60, HasConfidence: true}, 0.60, "q")
	assert.False(t, env.NeedsEscalation)
}

func TestFinalizeParsedEscalationIgnored(t *testing.T) {
	// Even when the model self-reports high confidence prose, the flag
	// follows the computed confidence alone.
	p := DefaultPolicy()
	env := p.Finalize(Parsed{Answer: "Low.", Confidence: 0.2, HasConfidence: true}, 0.9, "q")
	assert.True(t, env.NeedsEscalation)
	assert.Equal(t, 0.2, env.Confidence)
}

func TestFinalizeEmptyAnswerSubstituted(t *testing.T) {
	p := DefaultPolicy()
	env := p.Finalize(Parsed{Answer: "   "}, 0.3, "q")
	assert.Equal(t, unableAnswer, env.Answer)
	assert.True(t, env.NeedsEscalation)
}

func TestFinalizeReasonBands(t *testing.T) {
	p := DefaultPolicy()

	env := p.Finalize(Parsed{Answer: "Clear answer."}, 0.85, "q")
	assert.Equal(t, "Answer is explicitly stated in the HR documents", env.Reason)

	env = p.Finalize(Parsed{Answer: "Partial answer."}, 0.65, "q")
	assert.Equal(t, "Answer is partially supported by the HR documents", env.Reason)

	env = p.Finalize(Parsed{Answer: "Weak answer."}, 0.30, "q")
	assert.Equal(t, "Retrieved documents have low similarity to the question", env.Reason)
}

func TestFinalizeBandReasonOutranksLowSimilarity(t *testing.T) {
	// A model-reported confidence in a band keeps the band reason even when
	// retrieval similarity was poor.
	p := DefaultPolicy()

	env := p.Finalize(Parsed{Answer: "Explicit answer.", Confidence: 0.9, HasConfidence: true}, 0.3, "q")
	assert.Equal(t, 0.9, env.Confidence)
	assert.Equal(t, "Answer is explicitly stated in the HR documents", env.Reason)

	env = p.Finalize(Parsed{Answer: "Partial answer.", Confidence: 0.55, HasConfidence: true}, 0.2, "q")
	assert.Equal(t, "Answer is partially supported by the HR documents", env.Reason)
}

func TestFinalizeParsedReasonWins(t *testing.T) {
	p := DefaultPolicy()
	env := p.Finalize(Parsed{Answer: "A.", Reason: "model supplied reason"}, 0.9, "q")
	assert.Equal(t, "model supplied reason", env.Reason)
}

func TestFinalizeConfidenceWithinBounds(t *testing.T) {
	p := DefaultPolicy()
	for _, sim := range []float64{-0.4, 0, 0.3, 0.99, 1.5} {
		env := p.Finalize(Parsed{Answer: strings.Repeat("word ", 50)}, sim, "word question")
		assert.GreaterOrEqual(t, env.Confidence, 0.0)
		assert.LessOrEqual(t, env.Confidence, 1.0)
	}
}
