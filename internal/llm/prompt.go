package llm

import (
	"fmt"
	"strings"
)

// NoInformationMessage is the canonical reply when the documents cannot
// answer the question. The answer pipeline also treats it as a
// missing-information marker when scoring confidence.
const NoInformationMessage = "I don't have that information in the HR documents. Please contact HR for assistance."

// systemPromptTemplate restricts the model to the supplied excerpts. The
// rules are load-bearing: the confidence calculator depends on the model
// admitting ignorance in recognizable phrases instead of guessing.
const systemPromptTemplate = `You are an HR Policy Assistant.

You must answer employee questions STRICTLY using ONLY the provided HR document excerpts below.
You must NEVER use external knowledge, assumptions, or general HR information.

CRITICAL RULES:
1. Answer ONLY using the provided HR document excerpts
2. If the answer is not clearly present in the documents, explicitly state: "%s"
3. Do NOT guess, infer, or fabricate policies
4. Do NOT provide legal, medical, or financial advice
5. Be concise, professional, and employee-friendly
6. If information is incomplete or ambiguous, state that clearly
7. If multiple excerpts mention the same policy, prefer the most recent one

OUTPUT FORMAT (MANDATORY):
You MUST output ONLY valid JSON. Never include markdown, explanations, or text outside the JSON object.

Required JSON structure:
{
  "answer": "string - your answer based on documents",
  "confidence": 0.0-1.0,
  "needsEscalation": true or false,
  "reason": "string - explanation for confidence and escalation"
}

CONFIDENCE RULES:
- 0.80 - 1.00: Answer is explicitly stated in documents
- 0.50 - 0.79: Answer is partially stated or requires inference
- Below 0.50: Answer is unclear or missing from documents

ESCALATION RULE:
- needsEscalation = true when confidence < 0.60

TONE:
- Neutral
- Helpful
- Professional
- No emojis
- No speculation

HR DOCUMENT EXCERPTS:
%s`

// BuildPrompt renders the grounding prompt for a question over the given
// context excerpts, labeled in retrieval order.
func BuildPrompt(question string, excerpts []string) Prompt {
	var b strings.Builder
	for i, text := range excerpts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Document Excerpt %d]\n%s", i+1, text)
	}
	contextBlock := b.String()

	return Prompt{
		System:   fmt.Sprintf(systemPromptTemplate, NoInformationMessage, contextBlock),
		User:     fmt.Sprintf("Employee Question: %s\n\nPlease provide a clear, helpful answer based on the HR documents provided above.", question),
		Question: question,
		Context:  contextBlock,
	}
}
