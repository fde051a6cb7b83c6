// Package factcheck extracts factual claims from generated memo sections and
// scores how well the research corpus supports them.
package factcheck

import (
	"regexp"
	"strings"

	"github.com/halcyonvc/memoforge/internal/footnote"
	"github.com/halcyonvc/memoforge/internal/model"
)

// Claim is one extracted factual assertion, pre-classification
type Claim struct {
	Text     string
	Type     model.ClaimType
	Sentence int  // sentence index in the section (0-based)
	Sourced  bool // sentence carries an inline citation marker
}

// claimPattern pairs a claim type with the regex that recognizes it. Order
// matters: the first match wins, so the more specific money shapes (funding,
// valuation, pricing, runway) come before the generic financial one.
type claimPattern struct {
	ctype model.ClaimType
	re    *regexp.Regexp
}

var claimPatterns = []claimPattern{
	{model.ClaimTypeFundingRound, regexp.MustCompile(`(?i)\b(raised|seed round|series [a-f]\b)`)},
	{model.ClaimTypeValuation, regexp.MustCompile(`(?i)\b(valuation|valued at)\b`)},
	{model.ClaimTypePricing, regexp.MustCompile(`(?i)(per[- ](seat|user|month|year|license))|\$\d[\d,.]*\s*/\s*(mo|month|seat|user)`)},
	{model.ClaimTypeRunway, regexp.MustCompile(`(?i)(\d+\s*months?(\s+of)?\s+runway|runway\s+of\s+\d+)`)},
	{model.ClaimTypeTeamSize, regexp.MustCompile(`(?i)(\d+\s+(employees|engineers|people|FTEs)\b|(team|headcount)\s+of\s+\d+)`)},
	{model.ClaimTypeGrowth, regexp.MustCompile(`(?i)((grew|growing|increased|up|expanded)\s+(by\s+)?\d[\d,.]*\s*(%|percent|x)|\b\d+(\.\d+)?x\s+(growth|increase)|growth\s+(rate\s+)?of\s+\d)`)},
	{model.ClaimTypeFinancial, regexp.MustCompile(`(?i)([$€£]\s?\d[\d,.]*\s*(million|billion|[mbk])?\b|\b\d[\d,.]*\s*(million|billion)\s*(dollars|euros|pounds)|\b(ARR|MRR|revenue)\b.*?\d)`)},
	{model.ClaimTypePercentage, regexp.MustCompile(`\d+(\.\d+)?\s*(%|\bpercent\b)`)},
	{model.ClaimTypeCustomerName, regexp.MustCompile(`(?i)(customers?|clients?|partner(ship)?s?)\s+(include|with|such as|like)\s+[A-Z]`)},
	{model.ClaimTypeMetric, regexp.MustCompile(`(?i)\b\d[\d,.]*[km]?\+?\s*(users|customers|downloads|installs|deployments|transactions|requests|seats|subscribers|DAU|MAU)s?\b`)},
	{model.ClaimTypeDate, regexp.MustCompile(`(?i)\b(in|since|by|founded)\s+((January|February|March|April|May|June|July|August|September|October|November|December)\s+)?(19|20)\d{2}\b`)},
}

// unavailableRe matches sentences that explicitly state data is missing;
// those are not claims and are skipped entirely.
var unavailableRe = regexp.MustCompile(`(?i)(data\s+(is\s+)?(not|un)available|no\s+(public\s+)?data|not\s+disclosed|undisclosed|unavailable|could\s+not\s+be\s+(found|verified))`)

var sentenceEndRe = regexp.MustCompile(`([.!?])(\s+|$)`)

// ExtractClaims pulls sentence-level factual claims out of a section body.
// Citation blocks are excluded; only prose is scanned.
func ExtractClaims(body string) []Claim {
	var prose strings.Builder
	for _, seg := range footnote.Split(body) {
		if seg.Kind == footnote.Prose {
			prose.WriteString(seg.Content)
			prose.WriteString("\n")
		}
	}

	var claims []Claim
	for i, sentence := range splitSentences(prose.String()) {
		if unavailableRe.MatchString(sentence) {
			continue
		}
		ctype, ok := classify(sentence)
		if !ok {
			continue
		}
		claims = append(claims, Claim{
			Text:     sentence,
			Type:     ctype,
			Sentence: i,
			Sourced:  len(footnote.Markers(sentence)) > 0,
		})
	}
	return claims
}

func classify(sentence string) (model.ClaimType, bool) {
	for _, p := range claimPatterns {
		if p.re.MatchString(sentence) {
			return p.ctype, true
		}
	}
	return "", false
}

// splitSentences breaks prose into sentences on terminator punctuation.
// Very short fragments (headings, list bullets) are dropped.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	var sentences []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[last:loc[1]])
		last = loc[1]
		if len(s) >= 20 {
			sentences = append(sentences, s)
		}
	}
	if tail := strings.TrimSpace(text[last:]); len(tail) >= 20 {
		sentences = append(sentences, tail)
	}
	return sentences
}

var (
	numberRe = regexp.MustCompile(`\d[\d,.]*%?`)
	properRe = regexp.MustCompile(`\b[A-Z][A-Za-z0-9&-]{2,}\b`)
)

// keyTerms extracts the load-bearing tokens of a claim: numbers and
// proper-noun-like words. These are what must appear in the research corpus
// for the claim to count as supported.
func keyTerms(sentence string) []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(t string) {
		t = strings.ToLower(strings.Trim(t, ",."))
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	for _, n := range numberRe.FindAllString(sentence, -1) {
		add(n)
	}
	for _, w := range properRe.FindAllString(sentence, -1) {
		switch w {
		case "The", "This", "That", "These", "Those", "With", "From", "Citations":
			continue
		}
		add(w)
	}
	return terms
}

// overlapRatio measures how many of the claim's key terms appear in the
// serialized research corpus.
func overlapRatio(sentence, corpus string) float64 {
	terms := keyTerms(sentence)
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(corpus)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
