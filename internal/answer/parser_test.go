package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWellFormedJSON(t *testing.T) {
	raw := `{"answer": "Employees get 20 days.", "confidence": 0.9, "needsEscalation": false, "reason": "explicit"}`
	p := Parse(raw, 0.5)
	assert.Equal(t, "Employees get 20 days.", p.Answer)
	assert.Equal(t, 0.9, p.Confidence)
	assert.True(t, p.HasConfidence)
	assert.Equal(t, "explicit", p.Reason)
}

func TestParseEmptyInput(t *testing.T) {
	p := Parse("", 0.42)
	assert.Equal(t, "", p.Answer)
	assert.Equal(t, 0.42, p.Confidence)
	assert.False(t, p.HasConfidence)
}

func TestParsePlainProse(t *testing.T) {
	p := Parse("not json at all", 0.33)
	assert.Equal(t, "not json at all", p.Answer)
	assert.Equal(t, 0.33, p.Confidence)
	assert.False(t, p.HasConfidence)
}

func TestParsePartialObject(t *testing.T) {
	p := Parse(`{"answer":"x"}`, 0.7)
	assert.Equal(t, "x", p.Answer)
	assert.Equal(t, 0.7, p.Confidence)
	assert.False(t, p.HasConfidence)
	assert.Equal(t, "", p.Reason)
}

func TestParseConfidenceAsString(t *testing.T) {
	p := Parse(`{"answer":"y","confidence":"0.75"}`, 0.2)
	assert.Equal(t, 0.75, p.Confidence)
	assert.True(t, p.HasConfidence)
}

func TestParseConfidenceNotANumber(t *testing.T) {
	p := Parse(`{"answer":"y","confidence":"not-a-number"}`, 0.2)
	assert.Equal(t, 0.2, p.Confidence)
	assert.False(t, p.HasConfidence)
}

func TestParseFencedJSON(t *testing.T) {
	raw := "```json\n{\"answer\": \"fenced\", \"confidence\": 0.8}\n```"
	p := Parse(raw, 0.1)
	assert.Equal(t, "fenced", p.Answer)
	assert.Equal(t, 0.8, p.Confidence)
	assert.True(t, p.HasConfidence)
}

func TestParseBareFence(t *testing.T) {
	raw := "```\n{\"answer\": \"bare\"}\n```"
	p := Parse(raw, 0.1)
	assert.Equal(t, "bare", p.Answer)
}

func TestParseJSONEmbeddedInProse(t *testing.T) {
	raw := `Here is my response: {"answer": "embedded", "confidence": 0.6} hope that helps`
	p := Parse(raw, 0.1)
	assert.Equal(t, "embedded", p.Answer)
	assert.Equal(t, 0.6, p.Confidence)
}

func TestParseNestedBraces(t *testing.T) {
	raw := `{"answer": "uses {curly} braces", "confidence": 0.5, "reason": "see {sec 2}"}`
	p := Parse(raw, 0.1)
	assert.Equal(t, "uses {curly} braces", p.Answer)
	assert.Equal(t, "see {sec 2}", p.Reason)
}

func TestParseMalformedJSONFallsBack(t *testing.T) {
	raw := `{"answer": "broken`
	p := Parse(raw, 0.25)
	assert.Equal(t, raw, p.Answer)
	assert.Equal(t, 0.25, p.Confidence)
	assert.False(t, p.HasConfidence)
}

func TestParseClampsConfidence(t *testing.T) {
	p := Parse(`{"answer":"z","confidence":1.7}`, 0.1)
	assert.Equal(t, 1.0, p.Confidence)

	p = Parse(`{"answer":"z","confidence":-2}`, 0.1)
	assert.Equal(t, 0.0, p.Confidence)
}

func TestParseBlankAnswerFieldKeepsText(t *testing.T) {
	raw := `{"answer": "  ", "confidence": 0.4}`
	p := Parse(raw, 0.1)
	// A blank answer field is useless; the raw text is kept instead.
	assert.Equal(t, raw, p.Answer)
	assert.Equal(t, 0.4, p.Confidence)
}
