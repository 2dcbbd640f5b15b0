package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hrchat/internal/domain"
	"hrchat/internal/llm"
)

// Generator produces the raw answer text for a question, falling back to a
// direct excerpt quote when the model provider fails.
type Generator struct {
	provider llm.Provider
	log      *zap.SugaredLogger
}

func NewGenerator(provider llm.Provider, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Generator{provider: provider, log: log}
}

// ProviderName reports the backing provider, for logging and health output.
func (g *Generator) ProviderName() string {
	return g.provider.Name()
}

// Answer generates a grounded answer from the retrieved excerpts. It never
// returns an empty string: with no excerpts it returns the standard
// no-information message, and on provider failure it quotes the best excerpt.
func (g *Generator) Answer(ctx context.Context, question string, results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return llm.NoInformationMessage
	}

	excerpts := make([]string, 0, len(results))
	for _, r := range results {
		excerpts = append(excerpts, r.Text)
	}
	prompt := llm.BuildPrompt(question, excerpts)

	raw, err := g.provider.Generate(ctx, prompt)
	if err != nil {
		g.log.Warnw("generation failed, using excerpt fallback",
			"provider", g.provider.Name(), "error", err)
		return fallbackAnswer(results)
	}
	if strings.TrimSpace(raw) == "" {
		g.log.Warnw("empty completion, using excerpt fallback",
			"provider", g.provider.Name())
		return fallbackAnswer(results)
	}
	return raw
}

// fallbackAnswer quotes the highest-scoring excerpt directly so the user
// still gets document content when generation is unavailable.
func fallbackAnswer(results []domain.RetrievalResult) string {
	top := strings.TrimSpace(results[0].Text)
	answer := fmt.Sprintf("Based on the HR documents:\n\n%s", top)
	if len(results) > 1 {
		answer += "\n\nFor complete details, please review the full policy or contact HR."
	}
	return answer
}
