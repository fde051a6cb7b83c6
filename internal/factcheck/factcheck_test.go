package factcheck

import (
	"strings"
	"testing"

	"github.com/halcyonvc/memoforge/internal/model"
)

func TestExtractClaims_Classification(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     model.ClaimType
	}{
		{"funding round", "MemoCo raised a $12 million Series A round in early 2023.", model.ClaimTypeFundingRound},
		{"valuation", "The company is currently valued at $80 million after the round.", model.ClaimTypeValuation},
		{"pricing", "Pricing starts at $49 per seat per month on the team plan.", model.ClaimTypePricing},
		{"runway", "Management reports 18 months of runway at the current burn.", model.ClaimTypeRunway},
		{"team size", "A team of 25 engineers operates out of the Berlin office.", model.ClaimTypeTeamSize},
		{"growth", "Revenue grew by 40% year over year in the latest period.", model.ClaimTypeGrowth},
		{"financial", "The business reported ARR of $5 million for the fiscal year.", model.ClaimTypeFinancial},
		{"percentage", "Annual churn sits at 3% for the self-serve product.", model.ClaimTypePercentage},
		{"customer name", "Customers include Siemens and two regional logistics firms.", model.ClaimTypeCustomerName},
		{"metric", "The platform serves 12,000 users across fourteen countries.", model.ClaimTypeMetric},
		{"date", "The company was founded in 2019 by two former engineers.", model.ClaimTypeDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := ExtractClaims(tt.sentence)
			if len(claims) != 1 {
				t.Fatalf("got %d claims, want 1", len(claims))
			}
			if claims[0].Type != tt.want {
				t.Errorf("type = %q, want %q", claims[0].Type, tt.want)
			}
		})
	}
}

func TestExtractClaims_SkipsUnavailableData(t *testing.T) {
	body := "Revenue figures for 2024 are not disclosed by the company.\n" +
		"Headcount data is unavailable in public sources at this time."
	if claims := ExtractClaims(body); len(claims) != 0 {
		t.Errorf("got %d claims from unavailable-data sentences, want 0", len(claims))
	}
}

func TestExtractClaims_SourcedFlag(t *testing.T) {
	body := "Revenue grew by 40% year over year [^2]. The team plans to raise a Series B in 2026."
	claims := ExtractClaims(body)
	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(claims))
	}
	if !claims[0].Sourced {
		t.Error("cited claim not marked sourced")
	}
	if claims[1].Sourced {
		t.Error("uncited claim marked sourced")
	}
}

func TestExtractClaims_IgnoresCitationBlocks(t *testing.T) {
	body := "The product is popular with mid-market teams in logistics.\n\n" +
		"### Citations\n\n" +
		"[^1]: TechCrunch, 2024-03-01, company raised $12 million Series A, https://example.com/a\n"
	if claims := ExtractClaims(body); len(claims) != 0 {
		t.Errorf("got %d claims, want 0: citation definitions are not prose", len(claims))
	}
}

func TestCheckSection_NoClaims(t *testing.T) {
	c := NewChecker(model.DefaultConfig().FactCheck)
	sec := c.CheckSection(1, "Executive Summary", "A qualitative overview with no factual assertions to speak of here.", "")
	if sec.Score != 1.0 {
		t.Errorf("score = %v, want 1.0 for a claim-free section", sec.Score)
	}
	if sec.RequiresRewrite {
		t.Error("claim-free section flagged for rewrite")
	}
}

func TestCheckSection_UnsourcedWithOverlap(t *testing.T) {
	c := NewChecker(model.DefaultConfig().FactCheck)
	body := "The platform serves 12,000 users across fourteen countries."
	corpus := "Their site claims the platform now serves 12,000 users globally."

	sec := c.CheckSection(3, "Product", body, corpus)
	if len(sec.Claims) != 1 {
		t.Fatalf("got %d claims, want 1", len(sec.Claims))
	}
	claim := sec.Claims[0]
	if claim.Confidence != model.ConfidenceUnsourced {
		t.Errorf("confidence = %q, want unsourced", claim.Confidence)
	}
	if claim.Action != model.ActionRequestSource {
		t.Errorf("action = %q, want request_source", claim.Action)
	}
	if claim.Severity != model.SeverityHigh {
		t.Errorf("severity = %q, want high for a high-risk claim type", claim.Severity)
	}
}

func TestCheckSection_SuspiciousLowRisk(t *testing.T) {
	c := NewChecker(model.DefaultConfig().FactCheck)
	body := "Customers include Globex and several unnamed logistics firms."

	sec := c.CheckSection(4, "Traction", body, "nothing relevant here")
	if len(sec.Claims) != 1 {
		t.Fatalf("got %d claims, want 1", len(sec.Claims))
	}
	claim := sec.Claims[0]
	if claim.Confidence != model.ConfidenceSuspicious {
		t.Errorf("confidence = %q, want suspicious", claim.Confidence)
	}
	if claim.Action != model.ActionFlagForReview {
		t.Errorf("action = %q, want flag_for_review for an entity claim", claim.Action)
	}
	if claim.Severity == model.SeverityCritical {
		t.Error("entity claim escalated to critical")
	}
}

// A single fabricated financial figure forces a rewrite even when the rest of
// the section is fully cited and the score clears the strictness threshold.
func TestCheckSection_CriticalOverride(t *testing.T) {
	sentences := []string{
		"MemoCo raised a $12 million Series A round in early 2023 [^1].",
		"The company is currently valued at $80 million after the round [^2].",
		"Pricing starts at $49 per seat per month on the team plan [^3].",
		"Management reports 18 months of runway at the current burn [^4].",
		"A team of 25 engineers operates out of the Berlin office [^5].",
		"Revenue grew by 40% year over year in the latest period [^6].",
		"Annual churn sits at 3% for the self-serve product [^7].",
		"The platform serves 12,000 users across fourteen countries [^8].",
		"The company was founded in 2019 by two former engineers [^9].",
		"ARR reached $5 million in the most recent quarter.",
	}
	body := strings.Join(sentences, " ")

	cfg := model.DefaultConfig().FactCheck
	cfg.Strictness = "high"
	c := NewChecker(cfg)

	sec := c.CheckSection(2, "Financials", body, "unrelated research notes")
	if len(sec.Claims) != 10 {
		t.Fatalf("got %d claims, want 10", len(sec.Claims))
	}
	if sec.Score != 0.9 {
		t.Errorf("score = %v, want 0.9", sec.Score)
	}
	if !sec.RequiresRewrite {
		t.Error("section with a critical claim not flagged for rewrite")
	}

	last := sec.Claims[9]
	if last.Confidence != model.ConfidenceSuspicious {
		t.Errorf("uncited ARR claim confidence = %q, want suspicious", last.Confidence)
	}
	if last.Severity != model.SeverityCritical {
		t.Errorf("uncited ARR claim severity = %q, want critical", last.Severity)
	}
	if last.Action != model.ActionRemove {
		t.Errorf("uncited ARR claim action = %q, want remove", last.Action)
	}
}

func TestCheckSection_BelowThreshold(t *testing.T) {
	cfg := model.DefaultConfig().FactCheck
	cfg.Strictness = "medium"
	c := NewChecker(cfg)

	body := "The company was founded in 2019 by two former engineers. " +
		"A team of 25 engineers operates out of the Berlin office [^1]."
	sec := c.CheckSection(7, "Team", body, "no supporting research")
	if sec.Score != 0.5 {
		t.Fatalf("score = %v, want 0.5", sec.Score)
	}
	if !sec.RequiresRewrite {
		t.Error("section below the 0.6 medium threshold not flagged")
	}
}

func TestEntityMismatch(t *testing.T) {
	tests := []struct {
		expected string
		found    string
		want     bool
	}{
		{"example.org", "different-company.io", true},
		{"https://www.example.org/", "example.org", false},
		{"example.org", "https://app.example.org", false},
		{"", "example.org", false},
		{"example.org", "", false},
	}
	for _, tt := range tests {
		if got := EntityMismatch(tt.expected, tt.found); got != tt.want {
			t.Errorf("EntityMismatch(%q, %q) = %v, want %v", tt.expected, tt.found, got, tt.want)
		}
	}
}

func TestCheckDocument_EntityMismatchOverride(t *testing.T) {
	c := NewChecker(model.DefaultConfig().FactCheck)
	sections := map[int]Section{
		1: {Name: "Executive Summary", Body: "MemoCo raised a $12 million Series A round in early 2023 [^1]."},
		2: {Name: "Financials", Body: "Revenue grew by 40% year over year in the latest period [^2]."},
	}

	doc := c.CheckDocument(sections, "well supported corpus", "different-company.io", "example.org")
	if !doc.EntityMismatch {
		t.Fatal("entity mismatch not detected")
	}
	if doc.Score != 0 {
		t.Errorf("document score = %v, want 0 on entity mismatch", doc.Score)
	}
	for _, sec := range doc.Sections {
		if !sec.RequiresRewrite {
			t.Errorf("section %d not force-flagged for rewrite", sec.Section)
		}
		if sec.Score != 0 {
			t.Errorf("section %d score = %v, want 0", sec.Section, sec.Score)
		}
	}
}

func TestCheckDocument_Aggregation(t *testing.T) {
	c := NewChecker(model.DefaultConfig().FactCheck)
	sections := map[int]Section{
		1: {Name: "Executive Summary", Body: "A qualitative overview without hard figures in the opening."},
		2: {Name: "Financials", Body: "ARR reached $5 million in the most recent quarter."},
	}

	doc := c.CheckDocument(sections, "unrelated notes", "example.org", "https://example.org")
	if doc.EntityMismatch {
		t.Fatal("unexpected entity mismatch")
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(doc.Sections))
	}
	if doc.Sections[0].Section != 1 || doc.Sections[1].Section != 2 {
		t.Error("sections not ordered by number")
	}
	if doc.Score != 0.5 {
		t.Errorf("document score = %v, want 0.5", doc.Score)
	}
}
