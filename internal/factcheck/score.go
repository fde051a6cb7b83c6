package factcheck

import (
	"sort"
	"strings"

	"github.com/halcyonvc/memoforge/internal/model"
)

// Checker scores memo sections against a serialized research corpus.
type Checker struct {
	cfg model.FactCheckConfig
}

func NewChecker(cfg model.FactCheckConfig) *Checker {
	return &Checker{cfg: cfg}
}

// CheckSection extracts claims from one section body and classifies each one
// against the corpus. Score is verified/total; a section with no claims
// scores 1.0.
func (c *Checker) CheckSection(number int, name, body, corpus string) model.SectionFactCheck {
	result := model.SectionFactCheck{Section: number, Name: name, Score: 1.0}
	claims := ExtractClaims(body)
	if len(claims) == 0 {
		return result
	}

	verified := 0
	critical := false
	for _, claim := range claims {
		check := c.classify(claim, corpus)
		if check.Confidence == model.ConfidenceVerified {
			verified++
		}
		if check.Severity == model.SeverityCritical {
			critical = true
		}
		result.Claims = append(result.Claims, check)
	}

	result.Score = float64(verified) / float64(len(claims))
	// One fabricated high-risk figure is not outweighed by sourced claims
	// elsewhere in the section.
	result.RequiresRewrite = result.Score < c.cfg.MinScore() || critical
	return result
}

func (c *Checker) classify(claim Claim, corpus string) model.ClaimCheck {
	check := model.ClaimCheck{
		Text:     claim.Text,
		Type:     claim.Type,
		Sentence: claim.Sentence,
		Sourced:  claim.Sourced,
		Overlap:  overlapRatio(claim.Text, corpus),
	}

	if claim.Sourced {
		check.Confidence = model.ConfidenceVerified
		check.Severity = model.SeverityLow
		check.Action = model.ActionAccept
		return check
	}

	tier := claim.Type.Tier()
	if check.Overlap >= c.overlapThreshold(tier) {
		check.Confidence = model.ConfidenceUnsourced
		check.Action = model.ActionRequestSource
		if tier == model.RiskHigh {
			check.Severity = model.SeverityHigh
		} else {
			check.Severity = model.SeverityMedium
		}
		return check
	}

	// Likely hallucinated: no citation and the corpus does not back it up.
	check.Confidence = model.ConfidenceSuspicious
	switch tier {
	case model.RiskHigh:
		check.Severity = model.SeverityCritical
		check.Action = model.ActionRemove
	case model.RiskMedium:
		check.Severity = model.SeverityHigh
		check.Action = model.ActionFlagForReview
	default:
		check.Severity = model.SeverityMedium
		check.Action = model.ActionFlagForReview
	}
	return check
}

func (c *Checker) overlapThreshold(tier model.RiskTier) float64 {
	switch tier {
	case model.RiskHigh:
		return c.cfg.OverlapHigh
	case model.RiskMedium:
		return c.cfg.OverlapMedium
	default:
		return c.cfg.OverlapLow
	}
}

// CheckDocument runs the per-section check over every section and applies the
// entity-disambiguation guard. Sections is section number -> (name, body);
// corpus is the serialized research text; expectedEntity and corpusEntity are
// canonical identifiers (company URLs) for the memo subject and the research
// subject respectively.
func (c *Checker) CheckDocument(sections map[int]Section, corpus, expectedEntity, corpusEntity string) model.DocumentFactCheck {
	doc := model.DocumentFactCheck{
		ExpectedEntity: expectedEntity,
		CorpusEntity:   corpusEntity,
	}

	numbers := make([]int, 0, len(sections))
	for n := range sections {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var total float64
	for _, n := range numbers {
		s := sections[n]
		sec := c.CheckSection(n, s.Name, s.Body, corpus)
		total += sec.Score
		doc.Sections = append(doc.Sections, sec)
	}
	if len(doc.Sections) > 0 {
		doc.Score = total / float64(len(doc.Sections))
	} else {
		doc.Score = 1.0
	}

	// If the research corpus is about a different same-named entity, every
	// locally verified claim is meaningless. Hard override.
	if EntityMismatch(expectedEntity, corpusEntity) {
		doc.EntityMismatch = true
		doc.Score = 0
		for i := range doc.Sections {
			doc.Sections[i].Score = 0
			doc.Sections[i].RequiresRewrite = true
		}
	}
	return doc
}

// Section is one memo section handed to CheckDocument.
type Section struct {
	Name string
	Body string
}

// EntityMismatch reports whether two canonical identifiers refer to different
// entities. Identifiers are normalized before comparison, and a substring
// relationship in either direction is tolerated so protocol and subdomain
// variants of the same host do not trip the guard. Empty identifiers never
// mismatch.
func EntityMismatch(expected, found string) bool {
	e := normalizeEntity(expected)
	f := normalizeEntity(found)
	if e == "" || f == "" {
		return false
	}
	if strings.Contains(e, f) || strings.Contains(f, e) {
		return false
	}
	return true
}

func normalizeEntity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, prefix := range []string{"https://", "http://", "www."} {
		s = strings.TrimPrefix(s, prefix)
	}
	return strings.TrimRight(s, "/")
}
