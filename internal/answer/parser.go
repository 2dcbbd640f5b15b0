// Package answer turns raw model output into the final structured answer:
// defensive parsing of maybe-JSON completions, then confidence scoring and
// the escalation decision.
package answer

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Parsed is the structure recovered from one model completion. Confidence
// carries the model's self-reported value only when HasConfidence is set;
// otherwise it holds the caller-supplied baseline.
type Parsed struct {
	Answer        string
	Confidence    float64
	HasConfidence bool
	Reason        string
}

// Parse recovers a structured answer from model output that is expected but
// not guaranteed to be JSON. It is total: any input, including empty or
// plain prose, yields a valid Parsed with the whole text as the answer and
// the baseline as confidence.
func Parse(raw string, baseline float64) Parsed {
	baseline = clamp(baseline)
	text := stripFences(strings.TrimSpace(raw))

	fallback := Parsed{Answer: text, Confidence: baseline}

	span, ok := extractObject(text)
	if !ok {
		return fallback
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return fallback
	}

	p := Parsed{Answer: text, Confidence: baseline}
	if v, ok := fields["answer"].(string); ok && strings.TrimSpace(v) != "" {
		p.Answer = strings.TrimSpace(v)
	}
	if conf, ok := coerceFloat(fields["confidence"]); ok {
		p.Confidence = clamp(conf)
		p.HasConfidence = true
	}
	if v, ok := fields["reason"].(string); ok {
		p.Reason = strings.TrimSpace(v)
	}
	// A needsEscalation field may be present but is ignored: escalation is
	// always recomputed from the final confidence in one place.
	return p
}

// stripFences removes a leading ```json or ``` marker and a trailing ```.
func stripFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimSpace(text[len("```json"):])
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimSpace(text[len("```"):])
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSpace(text[:len(text)-len("```")])
	}
	return text
}

// extractObject locates the first balanced {...} span by brace counting,
// which handles nested objects that a naive regex would truncate.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
