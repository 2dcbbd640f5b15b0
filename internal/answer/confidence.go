package answer

import (
	"math"
	"regexp"
	"strings"

	"hrchat/internal/domain"
)

// Policy holds the tunable constants of the confidence calculation. The
// zero value is not usable; start from DefaultPolicy.
type Policy struct {
	// EscalationThreshold is the confidence below which an answer is
	// flagged for human follow-up.
	EscalationThreshold float64 `yaml:"escalation_threshold"`
	// MissingInfoCap caps confidence when the answer admits the documents
	// do not cover the question.
	MissingInfoCap float64 `yaml:"missing_info_cap"`
	// OverlapBoost is added when a detailed answer echoes most of the
	// question's vocabulary.
	OverlapBoost        float64 `yaml:"overlap_boost"`
	OverlapThreshold    float64 `yaml:"overlap_threshold"`
	DetailedAnswerChars int     `yaml:"detailed_answer_chars"`

	MissingInfoMarkers []string `yaml:"missing_info_markers"`
}

// DefaultPolicy returns the standard scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		EscalationThreshold: 0.60,
		MissingInfoCap:      0.40,
		OverlapBoost:        0.10,
		OverlapThreshold:    0.5,
		DetailedAnswerChars: 100,
		MissingInfoMarkers: []string{
			"don't have",
			"not in the",
			"not available",
			"contact hr",
			"not found",
			"unable to find",
			"no information",
		},
	}
}

const unableAnswer = "Unable to confidently answer based on HR documents."

// Finalize combines the parsed model output with the retrieval similarity
// into the envelope returned to the caller. This is the only place the
// escalation flag is computed.
func (p Policy) Finalize(parsed Parsed, avgSimilarity float64, question string) domain.AnswerEnvelope {
	answerText := strings.TrimSpace(parsed.Answer)
	if answerText == "" {
		answerText = unableAnswer
	}

	conf := clamp(avgSimilarity)
	if parsed.HasConfidence {
		conf = parsed.Confidence
	}

	missing := p.hasMissingInfoMarker(answerText)
	if missing {
		conf = math.Min(conf, p.MissingInfoCap)
	}

	if len(answerText) > p.DetailedAnswerChars && wordOverlap(question, answerText) > p.OverlapThreshold {
		conf += p.OverlapBoost
	}

	conf = clamp(conf)
	conf = math.Round(conf*100) / 100

	env := domain.AnswerEnvelope{
		Answer:          answerText,
		Confidence:      conf,
		NeedsEscalation: conf < p.EscalationThreshold,
		Reason:          parsed.Reason,
	}
	if env.Reason == "" {
		env.Reason = p.reason(conf, avgSimilarity, missing)
	}
	return env
}

func (p Policy) hasMissingInfoMarker(answer string) bool {
	lower := strings.ToLower(answer)
	for _, marker := range p.MissingInfoMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// reason picks the explanation for the final confidence. The bands take
// precedence; similarity and missing-info markers only explain scores that
// fell below them.
func (p Policy) reason(conf, avgSimilarity float64, missing bool) string {
	switch {
	case conf >= 0.80:
		return "Answer is explicitly stated in the HR documents"
	case conf >= 0.50:
		return "Answer is partially supported by the HR documents"
	case avgSimilarity < 0.5:
		return "Retrieved documents have low similarity to the question"
	case missing:
		return "The requested information was not found in the HR documents"
	default:
		return "Answer may be incomplete or uncertain"
	}
}

var overlapWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// wordOverlap is the fraction of distinct question words that also appear
// in the answer.
func wordOverlap(question, answer string) float64 {
	qWords := overlapWordRe.FindAllString(strings.ToLower(question), -1)
	if len(qWords) == 0 {
		return 0
	}
	aWords := make(map[string]struct{})
	for _, w := range overlapWordRe.FindAllString(strings.ToLower(answer), -1) {
		aWords[w] = struct{}{}
	}
	seen := make(map[string]struct{}, len(qWords))
	matched := 0
	for _, w := range qWords {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := aWords[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(seen))
}
