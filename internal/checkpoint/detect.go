// Package checkpoint derives pipeline position from a document's artifact
// set. There is no stored progress record: the directory of produced files
// is the checkpoint, and this package re-infers the next stage to run from
// whatever well-formed artifacts exist.
package checkpoint

import (
	"regexp"
	"strings"

	"github.com/halcyonvc/memoforge/internal/footnote"
	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/store"
)

const (
	// minFinalMemoBytes separates a real finalized memo from a stub left by
	// an interrupted write.
	minFinalMemoBytes = 100
	// minFinalDraftBytes is the size a concatenated draft must exceed to
	// count as evidence the cite stage ran.
	minFinalDraftBytes = 500
)

var (
	tocHeadingRe = regexp.MustCompile(`(?mi)^#{1,3}\s+table of contents\b`)
	mdLinkRe     = regexp.MustCompile(`\[[^\]^][^\]]*\]\((https?://[^)]+)\)`)
	markerTailRe = regexp.MustCompile(`\[\^[A-Za-z0-9_]+\]\s*$`)
	profileURLRe = regexp.MustCompile(`https?://(www\.)?linkedin\.com/(in|company)/`)
)

// Detect classifies pipeline progress and returns the next stage to run.
// Rules are checked latest-first and short-circuit, so the most-complete
// consistent interpretation of the artifact set wins.
func Detect(snap *store.Snapshot, outline *model.Outline) model.Stage {
	// 1. Finalized memo present and non-trivial: nothing left to do.
	if snap.FinalMemoSize > minFinalMemoBytes {
		return model.StageComplete
	}

	// 2. Validation artifact: its populated fields tell which of the three
	// validation-era stages ran last.
	if v := snap.Validation; v != nil {
		switch {
		case v.OverallScore != nil:
			return model.StageFinalize
		case v.FactCheck != nil:
			return model.StageValidate
		case len(v.CitationChecks) > 0:
			return model.StageFactCheck
		}
	}

	// 3. Finalized draft with citation structure: toc or validate_citations.
	if len(snap.FinalDraft) > minFinalDraftBytes && hasCitationStructure(snap.FinalDraft) {
		if tocHeadingRe.MatchString(snap.FinalDraft) {
			return model.StageValidateCitations
		}
		return model.StageTOC
	}

	// 4. Full section set: infer how far enrichment got.
	if len(snap.Sections) >= outline.Count() {
		if sampleHasUncitedLinks(snap.Sections) {
			return model.StageCite
		}
		if teamSectionHasProfileURL(snap.Sections, outline) {
			return model.StageEnrichLinks
		}
		if snap.HeaderPresent {
			return model.StageEnrichSocials
		}
		return model.StageEnrichTrademark
	}

	// 5. Partial section set: drafting was interrupted, redo it.
	if len(snap.Sections) > 0 {
		return model.StageDraft
	}

	// 6. Research done: drafting is next (per-section research happens at
	// draft time, so research output is a prerequisite, not a resume point).
	if snap.ResearchPresent {
		return model.StageDraft
	}

	// 7. Deck analyzed: research is next.
	if snap.DeckPresent {
		return model.StageResearch
	}

	return model.StageStart
}

func hasCitationStructure(draft string) bool {
	return footnote.CountBlocks(draft) > 0 || len(footnote.Markers(draft)) > 0
}

// sampleHasUncitedLinks inspects a sample of early-middle sections for
// markdown hyperlinks not immediately preceded by a citation marker,
// evidence that link enrichment ran but the cite pass has not.
func sampleHasUncitedLinks(sections []store.SectionFile) bool {
	lo, hi := 1, len(sections)
	if hi > 6 {
		hi = 6
	}
	for _, s := range sections[lo:hi] {
		if hasUncitedLink(s.Body) {
			return true
		}
	}
	return false
}

func hasUncitedLink(body string) bool {
	for _, loc := range mdLinkRe.FindAllStringIndex(body, -1) {
		prefix := strings.TrimRight(body[:loc[0]], " ")
		if !markerTailRe.MatchString(prefix) {
			return true
		}
	}
	return false
}

func teamSectionHasProfileURL(sections []store.SectionFile, outline *model.Outline) bool {
	team, ok := outline.TeamSection()
	if !ok {
		return false
	}
	for _, s := range sections {
		if s.Number == team.Number {
			return profileURLRe.MatchString(s.Body)
		}
	}
	return false
}
