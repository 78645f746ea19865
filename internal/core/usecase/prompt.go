package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

const decisionPromptTemplate = `You are an expert insurance claims processor. Analyze the query against the policy document excerpts in CONTEXT and produce a decision.

%sCONTEXT:
%s

QUERY: %s

Follow these steps:
1. Find the clauses in CONTEXT that apply to the query. Use only the provided context; never rely on outside knowledge.
2. Decide whether the claim or question is covered. If the context does not contain the information needed, the decision is "Information Not Found".
3. If an underinsurance situation applies, use exactly one of these two rules, checked in this order:
   a. If the sum insured is less than 85%% of the property value, apply the proportionate rule: payable amount = (sum insured / property value) * assessed loss.
   b. Otherwise the underinsurance is 15%% or less and is waived: the full assessed loss is payable, capped at the sum insured.
4. Set "amount" to the payable amount. Only an "Approved" decision may carry a non-zero amount.
5. Quote the clauses you relied on verbatim, word for word as they appear in CONTEXT, in "source_clauses".

Respond with a single JSON object and nothing else, in exactly this format:
{"decision": "Approved" or "Rejected" or "Information Not Found", "amount": <number>, "justification": "<why>", "source_clauses": ["<verbatim clause>", ...]}`

// buildDecisionPrompt renders the synthesis prompt. The optional history is
// the interactive session's prior turns; the batch path passes nil.
func buildDecisionPrompt(query string, hits []domain.ScoredChunk, history []domain.Message) string {
	return fmt.Sprintf(decisionPromptTemplate, formatHistory(history), formatContext(hits), query)
}

// formatContext joins retrieved chunks with their source so the model can
// cite where a clause came from.
func formatContext(hits []domain.ScoredChunk) string {
	if len(hits) == 0 {
		return "(no relevant excerpts found)"
	}
	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		header := domain.MetadataString(hit.Chunk.Metadata, "source")
		if page := domain.MetadataInt(hit.Chunk.Metadata, "page"); page > 0 {
			header = fmt.Sprintf("%s, page %d", header, page)
		}
		if header != "" {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", header, hit.Chunk.Text))
		} else {
			parts = append(parts, hit.Chunk.Text)
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func formatHistory(history []domain.Message) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("PRIOR CONVERSATION:\n")
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteByte('\n')
	}
	b.WriteString("\n")
	return b.String()
}

// parseDecision turns raw model output into a validated, normalized
// decision. Models wrap JSON in prose or code fences often enough that the
// first balanced object is extracted before unmarshalling.
func parseDecision(raw string) (domain.PolicyDecision, error) {
	var decision domain.PolicyDecision
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &decision); err != nil {
		return domain.PolicyDecision{}, fmt.Errorf("parse decision json: %w", err)
	}
	if err := decision.Validate(); err != nil {
		return domain.PolicyDecision{}, fmt.Errorf("invalid decision: %w", err)
	}
	decision.Normalize()
	return decision, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
