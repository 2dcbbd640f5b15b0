package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const mockSentenceLimit = 300

// Mock is a deterministic provider for development and tests. It answers
// with the first context sentence sharing keywords with the question, the
// canonical no-information message when no keyword matches, and a generic
// acknowledgment otherwise. No network calls.
type Mock struct{}

// NewMock creates the mock provider.
func NewMock() *Mock { return &Mock{} }

// Name returns the provider identifier.
func (m *Mock) Name() string { return "mock" }

var (
	mockWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	mockLabelRe = regexp.MustCompile(`(?m)^\[Document Excerpt \d+\]\n?`)
)

// Generate extracts a document-based answer from the prompt context.
func (m *Mock) Generate(_ context.Context, p Prompt) (string, error) {
	docText := mockLabelRe.ReplaceAllString(p.Context, "")
	contextLower := strings.ToLower(docText)

	var relevant []string
	for _, kw := range mockWordRe.FindAllString(strings.ToLower(p.Question), -1) {
		if len(kw) > 3 && strings.Contains(contextLower, kw) {
			relevant = append(relevant, kw)
		}
	}
	if len(relevant) == 0 {
		return NoInformationMessage, nil
	}

	for _, sentence := range strings.Split(docText, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, kw := range relevant {
			if strings.Contains(lower, kw) {
				return truncateSentence(sentence), nil
			}
		}
	}

	return fmt.Sprintf("Based on the HR documents provided, I can help answer your question about %q. Please review the relevant policy sections in the documents above for detailed information.", p.Question), nil
}

// truncateSentence cuts on a rune boundary so multibyte text stays valid.
func truncateSentence(sentence string) string {
	if len(sentence) <= mockSentenceLimit {
		return sentence
	}
	cut := mockSentenceLimit
	for cut > 0 && !utf8.RuneStart(sentence[cut]) {
		cut--
	}
	return sentence[:cut] + "..."
}
