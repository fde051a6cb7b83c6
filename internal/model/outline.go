package model

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutlineSection describes one memo section as declared by the outline
type OutlineSection struct {
	Number   int      `yaml:"number" json:"number"`
	Name     string   `yaml:"name" json:"name"`
	Slug     string   `yaml:"slug" json:"slug"`
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// FileName returns the section file name, e.g. "01-executive-summary.md".
func (s OutlineSection) FileName() string {
	return fmt.Sprintf("%02d-%s.md", s.Number, s.Slug)
}

// Outline is the fixed section structure of a memo
type Outline struct {
	Sections []OutlineSection `yaml:"sections" json:"sections"`
}

// Count returns the expected number of sections.
func (o *Outline) Count() int {
	return len(o.Sections)
}

// TeamSection returns the team/organization section, if the outline has one.
func (o *Outline) TeamSection() (OutlineSection, bool) {
	for _, s := range o.Sections {
		lower := strings.ToLower(s.Name)
		if strings.Contains(lower, "team") || strings.Contains(lower, "organization") ||
			strings.Contains(lower, "founders") {
			return s, true
		}
	}
	return OutlineSection{}, false
}

// LoadOutline reads an outline definition from a YAML file.
func LoadOutline(path string) (*Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outline: %w", err)
	}
	var o Outline
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse outline: %w", err)
	}
	if len(o.Sections) == 0 {
		return nil, fmt.Errorf("outline %s declares no sections", path)
	}
	for i, s := range o.Sections {
		if s.Number != i+1 {
			return nil, fmt.Errorf("outline section %q has number %d, want %d", s.Name, s.Number, i+1)
		}
		if s.Slug == "" {
			return nil, fmt.Errorf("outline section %q has no slug", s.Name)
		}
	}
	return &o, nil
}

// DefaultOutline returns the standard 12-section investment memo structure.
func DefaultOutline() *Outline {
	return &Outline{Sections: []OutlineSection{
		{Number: 1, Name: "Executive Summary", Slug: "executive-summary", Keywords: []string{"overview", "thesis"}},
		{Number: 2, Name: "Company Overview", Slug: "company-overview", Keywords: []string{"company", "history", "mission"}},
		{Number: 3, Name: "Market Opportunity", Slug: "market-opportunity", Keywords: []string{"market size", "TAM", "industry"}},
		{Number: 4, Name: "Product & Technology", Slug: "product-technology", Keywords: []string{"product", "technology", "platform"}},
		{Number: 5, Name: "Business Model", Slug: "business-model", Keywords: []string{"revenue model", "pricing", "unit economics"}},
		{Number: 6, Name: "Traction & Metrics", Slug: "traction-metrics", Keywords: []string{"traction", "growth", "customers"}},
		{Number: 7, Name: "Team", Slug: "team", Keywords: []string{"founders", "leadership", "team"}},
		{Number: 8, Name: "Competition", Slug: "competition", Keywords: []string{"competitors", "landscape", "differentiation"}},
		{Number: 9, Name: "Financials", Slug: "financials", Keywords: []string{"revenue", "burn", "runway"}},
		{Number: 10, Name: "Risks", Slug: "risks", Keywords: []string{"risks", "challenges"}},
		{Number: 11, Name: "Deal Terms", Slug: "deal-terms", Keywords: []string{"valuation", "round", "terms"}},
		{Number: 12, Name: "Recommendation", Slug: "recommendation", Keywords: []string{"recommendation", "decision"}},
	}}
}
