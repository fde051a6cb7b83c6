package model

import "time"

// DeckAnalysis is the structured output of the deck analysis pass
type DeckAnalysis struct {
	Company     string              `json:"company"`
	CompanyURL  string              `json:"company_url,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Screenshots map[string][]string `json:"screenshots,omitempty"` // section keyword -> screenshot paths
	AnalyzedAt  time.Time           `json:"analyzed_at"`
}

// Research is the topic-keyed research artifact
type Research struct {
	Company    string            `json:"company"`
	CompanyURL string            `json:"company_url,omitempty"`
	Topics     map[string]string `json:"topics"` // topic/slug -> research markdown with citations
	FetchedAt  time.Time         `json:"fetched_at"`
}

// LinkCheck records the validation result for one cited URL
type LinkCheck struct {
	URL          string     `json:"url"`
	IsAccessible bool       `json:"is_accessible"`
	StatusCode   int        `json:"status_code,omitempty"`
	IsDead       bool       `json:"is_dead"`  // 404, 410, or request failure
	IsStale      bool       `json:"is_stale"` // last modified > 1 year ago
	AgeDays      *int       `json:"age_days,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	RedirectURL  string     `json:"redirect_url,omitempty"`
	Skipped      bool       `json:"skipped,omitempty"` // disallowed by robots.txt
	Error        string     `json:"error,omitempty"`
}

// Validation accretes results across the validate_citations, fact_check and
// validate stages. Which fields are populated tells the checkpoint detector
// how far the pipeline got.
type Validation struct {
	CitationChecks []LinkCheck        `json:"citation_checks,omitempty"`
	FactCheck      *DocumentFactCheck `json:"fact_check,omitempty"`
	OverallScore   *float64           `json:"overall_score,omitempty"` // 0-10, set by the validate stage
	CheckedAt      time.Time          `json:"checked_at"`
}

// StateSnapshot mirrors in-memory pipeline state for audit and inspection.
// It is never the resume source of truth; the artifact set is.
type StateSnapshot struct {
	RunID         string            `json:"run_id"`
	Document      string            `json:"document"`
	Version       int               `json:"version"`
	LastStage     string            `json:"last_stage"`
	UpdatedAt     time.Time         `json:"updated_at"`
	StageDuration map[string]string `json:"stage_durations,omitempty"` // stage name -> duration
}
