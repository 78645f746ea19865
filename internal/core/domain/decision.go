package domain

import (
	"fmt"
	"strings"
)

// Decision values the model is instructed to produce. Any other non-empty
// value is accepted but treated as non-approving for the amount invariant.
const (
	DecisionApproved = "Approved"
	DecisionRejected = "Rejected"
	DecisionNotFound = "Information Not Found"
	DecisionError    = "Error"
)

// PolicyDecision is the structured verdict produced for one query.
type PolicyDecision struct {
	Decision      string   `json:"decision"`
	Amount        float64  `json:"amount"`
	Justification string   `json:"justification"`
	SourceClauses []string `json:"source_clauses"`
}

// Validate reports why a parsed decision violates the schema.
func (d PolicyDecision) Validate() error {
	if strings.TrimSpace(d.Decision) == "" {
		return fmt.Errorf("decision is empty")
	}
	if d.Amount < 0 {
		return fmt.Errorf("amount is negative: %v", d.Amount)
	}
	return nil
}

// Normalize enforces the schema invariants on a freshly parsed decision:
// a non-approving decision carries no amount, and source_clauses is never nil.
func (d *PolicyDecision) Normalize() {
	d.Decision = strings.TrimSpace(d.Decision)
	if d.Decision != DecisionApproved {
		d.Amount = 0
	}
	if d.SourceClauses == nil {
		d.SourceClauses = []string{}
	}
}

// NonVerbatimCitations returns the source clauses that are not exact
// substrings of the supplied context. The citation contract is asked of the
// model, not enforced; this makes violations observable.
func (d PolicyDecision) NonVerbatimCitations(context string) []string {
	var out []string
	for _, clause := range d.SourceClauses {
		if clause == "" || !strings.Contains(context, clause) {
			out = append(out, clause)
		}
	}
	return out
}

// FormatAnswer renders the single-line answer string used by the batch API.
func (d PolicyDecision) FormatAnswer() string {
	return fmt.Sprintf("Decision: %s, Amount: %.2f, Justification: %s", d.Decision, d.Amount, d.Justification)
}

// ErrorDecision is the fallback record absorbing synthesis failures so that
// callers always receive a well-formed result.
func ErrorDecision(reason string) PolicyDecision {
	return PolicyDecision{
		Decision:      DecisionError,
		Amount:        0,
		Justification: reason,
		SourceClauses: []string{},
	}
}

// UnderinsurancePayable applies the policy's underinsurance adjudication to a
// claim. The proportionate clause is checked first: when the sum insured is
// below 85% of the property value the loss is reduced by sumInsured/property.
// Otherwise the underinsurance (15% or less) is waived and the full loss is
// payable, capped at the sum insured. The two branches are mutually
// exclusive.
//
// The same rule is spelled out in the synthesis prompt; this helper exists so
// the numeric behavior stays verifiable without a model in the loop.
func UnderinsurancePayable(sumInsured, propertyValue, loss float64) float64 {
	if propertyValue <= 0 {
		return 0
	}
	if sumInsured < 0.85*propertyValue {
		return (sumInsured / propertyValue) * loss
	}
	if loss > sumInsured {
		return sumInsured
	}
	return loss
}
