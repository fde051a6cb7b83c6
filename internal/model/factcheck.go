package model

// ClaimType categorizes the shape of an extracted factual claim
type ClaimType string

const (
	ClaimTypeMetric       ClaimType = "metric"        // Numeric value with a unit (users, requests, ...)
	ClaimTypeFinancial    ClaimType = "financial"     // Currency amount (revenue, ARR, costs)
	ClaimTypePercentage   ClaimType = "percentage"    // Standalone percentage figure
	ClaimTypeGrowth       ClaimType = "growth"        // Growth-rate phrasing
	ClaimTypeDate         ClaimType = "date"          // Date or year expression
	ClaimTypeCustomerName ClaimType = "customer_name" // Named customer or partnership
	ClaimTypePricing      ClaimType = "pricing"       // Per-seat / per-month pricing
	ClaimTypeValuation    ClaimType = "valuation"     // Company valuation figure
	ClaimTypeRunway       ClaimType = "runway"        // Runway in months
	ClaimTypeTeamSize     ClaimType = "team_size"     // Headcount
	ClaimTypeFundingRound ClaimType = "funding_round" // Raised amount / round stage
)

// RiskTier groups claim types by how damaging a fabrication would be
type RiskTier int

const (
	RiskLow    RiskTier = 0
	RiskEntity RiskTier = 1 // Named-entity claims (customer, partnership)
	RiskMedium RiskTier = 2
	RiskHigh   RiskTier = 3
)

// Tier returns the risk tier for the claim type.
func (t ClaimType) Tier() RiskTier {
	switch t {
	case ClaimTypeFinancial, ClaimTypeMetric, ClaimTypePricing, ClaimTypeValuation,
		ClaimTypeGrowth, ClaimTypeFundingRound, ClaimTypePercentage:
		return RiskHigh
	case ClaimTypeDate, ClaimTypeTeamSize, ClaimTypeRunway:
		return RiskMedium
	case ClaimTypeCustomerName:
		return RiskEntity
	default:
		return RiskLow
	}
}

// Confidence classifies how well a claim is supported
type Confidence string

const (
	ConfidenceVerified  Confidence = "verified"  // Carries an inline citation
	ConfidenceUnsourced Confidence = "unsourced" // No citation, but corpus overlap
	// ConfidenceContradicts is reserved for checks that compare claimed figures
	// against corpus figures directly; the current classifier does not emit it.
	ConfidenceContradicts Confidence = "contradicts_source"
	ConfidenceSuspicious  Confidence = "suspicious" // No citation, no corpus support
)

// Severity indicates how urgently a claim needs attention
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Action is the recommended handling for a checked claim
type Action string

const (
	ActionAccept        Action = "accept"
	ActionRequestSource Action = "request_source"
	ActionFlagForReview Action = "flag_for_review"
	ActionRemove        Action = "remove"
)

// ClaimCheck is the fact-check record for a single extracted claim
type ClaimCheck struct {
	Text       string     `json:"text"`
	Type       ClaimType  `json:"type"`
	Sentence   int        `json:"sentence"` // Sentence index in the section (0-based)
	Sourced    bool       `json:"sourced"`  // Whether the sentence carries a citation marker
	Overlap    float64    `json:"overlap"`  // Key-term overlap ratio with the research corpus
	Confidence Confidence `json:"confidence"`
	Severity   Severity   `json:"severity"`
	Action     Action     `json:"action"`
}

// SectionFactCheck aggregates claim checks for one memo section
type SectionFactCheck struct {
	Section         int          `json:"section"`
	Name            string       `json:"name"`
	Claims          []ClaimCheck `json:"claims"`
	Score           float64      `json:"score"` // verified / total, 1.0 if no claims
	RequiresRewrite bool         `json:"requires_rewrite"`
}

// DocumentFactCheck is the fact-check result for the whole memo
type DocumentFactCheck struct {
	Sections       []SectionFactCheck `json:"sections"`
	Score          float64            `json:"score"` // Mean of section scores, 0 on entity mismatch
	EntityMismatch bool               `json:"entity_mismatch"`
	ExpectedEntity string             `json:"expected_entity,omitempty"`
	CorpusEntity   string             `json:"corpus_entity,omitempty"`
}
