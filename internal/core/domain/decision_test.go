package domain

import (
	"math"
	"testing"
)

func TestNormalizeZeroesAmountForNonApproval(t *testing.T) {
	d := PolicyDecision{Decision: DecisionRejected, Amount: 1200.50}
	d.Normalize()
	if d.Amount != 0 {
		t.Fatalf("expected amount=0 for rejected decision, got %v", d.Amount)
	}
	if d.SourceClauses == nil {
		t.Fatalf("expected non-nil source clauses")
	}
}

func TestNormalizeKeepsApprovedAmount(t *testing.T) {
	d := PolicyDecision{Decision: " Approved ", Amount: 35}
	d.Normalize()
	if d.Decision != DecisionApproved {
		t.Fatalf("expected trimmed decision, got %q", d.Decision)
	}
	if d.Amount != 35 {
		t.Fatalf("expected amount preserved, got %v", d.Amount)
	}
}

func TestValidateRejectsEmptyDecision(t *testing.T) {
	if err := (PolicyDecision{Decision: "  "}).Validate(); err == nil {
		t.Fatalf("expected validation error for blank decision")
	}
	if err := (PolicyDecision{Decision: "Approved", Amount: -1}).Validate(); err == nil {
		t.Fatalf("expected validation error for negative amount")
	}
}

func TestNonVerbatimCitations(t *testing.T) {
	context := "Clause 4.2: the sum insured shall not exceed the property value."
	d := PolicyDecision{SourceClauses: []string{
		"the sum insured shall not exceed",
		"a clause the model invented",
	}}
	bad := d.NonVerbatimCitations(context)
	if len(bad) != 1 || bad[0] != "a clause the model invented" {
		t.Fatalf("unexpected non-verbatim set: %v", bad)
	}
}

func TestUnderinsuranceProportionateClause(t *testing.T) {
	got := UnderinsurancePayable(70, 100, 50)
	if math.Abs(got-35.0) > 1e-9 {
		t.Fatalf("expected proportionate payable 35.0, got %v", got)
	}
}

func TestUnderinsuranceWaiverClause(t *testing.T) {
	got := UnderinsurancePayable(87, 100, 50)
	if got != 50.0 {
		t.Fatalf("expected full loss payable 50.0, got %v", got)
	}
}

func TestUnderinsuranceWaiverCappedAtSumInsured(t *testing.T) {
	got := UnderinsurancePayable(90, 100, 95)
	if got != 90.0 {
		t.Fatalf("expected payable capped at sum insured 90.0, got %v", got)
	}
}
