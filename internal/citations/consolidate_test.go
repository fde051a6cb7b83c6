package citations

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/halcyonvc/memoforge/internal/footnote"
)

const twoSectionDoc = `## Market Opportunity

The market reached $4.2B in 2024.[^1] Growth is accelerating.[^2]

### Citations

[^1]: Gartner, "Market Forecast 2024", https://gartner.com/f1
[^2]: Reuters, 2024-01-05, https://reuters.com/r1

## Traction & Metrics

ARR passed $2M.[^1] Customer count doubled.[^2]

### Citations

[^1]: Company data room, metrics export
[^2]: Reuters, 2024-01-05, https://reuters.com/r1
`

func TestConsolidate_RenumbersAcrossSections(t *testing.T) {
	result := Consolidate(twoSectionDoc, Options{})

	if !result.Changed {
		t.Fatal("expected consolidation to change a two-block document")
	}
	if result.Blocks != 2 {
		t.Errorf("expected 2 input blocks, got %d", result.Blocks)
	}
	if footnote.CountBlocks(result.Output) != 1 {
		t.Fatalf("expected exactly one citations block, got %d:\n%s",
			footnote.CountBlocks(result.Output), result.Output)
	}

	// Section two's [^1] must be renumbered to [^3].
	if !strings.Contains(result.Output, "ARR passed $2M.[^3]") {
		t.Errorf("section two marker not renumbered:\n%s", result.Output)
	}
	if !strings.Contains(result.Output, "[^3]: Company data room") {
		t.Errorf("renumbered definition missing:\n%s", result.Output)
	}
	if len(result.Definitions) != 4 {
		t.Errorf("expected 4 global definitions without dedup, got %d", len(result.Definitions))
	}
}

func TestConsolidate_Idempotent(t *testing.T) {
	first := Consolidate(twoSectionDoc, Options{})
	second := Consolidate(first.Output, Options{})

	if second.Changed {
		t.Error("consolidating already-consolidated output should be a no-op")
	}
	if second.Output != first.Output {
		t.Error("second pass modified consolidated output")
	}
}

func TestConsolidate_Deterministic(t *testing.T) {
	a := Consolidate(twoSectionDoc, Options{Dedupe: true})
	b := Consolidate(twoSectionDoc, Options{Dedupe: true})

	if a.Output != b.Output {
		t.Error("two runs on identical input produced different output")
	}
}

func TestConsolidate_MarkerConservation(t *testing.T) {
	before := ReferencedTexts(twoSectionDoc)
	result := Consolidate(twoSectionDoc, Options{})
	after := ReferencedTexts(result.Output)

	if !reflect.DeepEqual(before, after) {
		t.Errorf("referenced citation contents changed:\nbefore: %v\nafter:  %v", before, after)
	}
}

func TestConsolidate_DedupMergesIdenticalSources(t *testing.T) {
	result := Consolidate(twoSectionDoc, Options{Dedupe: true})

	// The Reuters source appears in both sections and must collapse to one
	// definition cited from both.
	if len(result.Definitions) != 3 {
		t.Fatalf("expected 3 deduplicated definitions, got %d: %+v",
			len(result.Definitions), result.Definitions)
	}

	var reuters *GlobalDef
	for i := range result.Definitions {
		if strings.Contains(result.Definitions[i].Text, "reuters.com/r1") {
			reuters = &result.Definitions[i]
		}
	}
	if reuters == nil {
		t.Fatal("merged Reuters definition not found")
	}
	if len(reuters.CitedBy) != 2 {
		t.Errorf("merged definition should carry a back-reference per citing section, got %v", reuters.CitedBy)
	}
	if strings.Count(result.Output, "reuters.com/r1") != 1 {
		t.Errorf("duplicate definition not merged:\n%s", result.Output)
	}

	// Both original markers must resolve to the same new label.
	label := reuters.Label
	want := strings.Count(result.Output, "[^"+strconv.Itoa(label)+"]")
	if want < 3 { // two markers plus the definition token
		t.Errorf("expected both markers rewritten to [^%d], found %d occurrences", label, want)
	}
}

func TestConsolidate_ZeroBlocksUnchanged(t *testing.T) {
	doc := "## Plain Section\n\nNo citations here.\n"
	result := Consolidate(doc, Options{})

	if result.Changed {
		t.Error("document without citation blocks should be unchanged")
	}
	if result.Output != doc {
		t.Error("output differs from input")
	}
	if result.Note != "nothing to consolidate" {
		t.Errorf("unexpected note: %q", result.Note)
	}
}

func TestConsolidate_SingleBlockUnchanged(t *testing.T) {
	doc := "Text.[^1]\n\n### Citations\n\n[^1]: Source\n"
	result := Consolidate(doc, Options{})

	if result.Changed || result.Output != doc {
		t.Error("single-block document should pass through unchanged")
	}
}

func TestConsolidate_EmptyBlockContributesNothing(t *testing.T) {
	doc := `Section one.[^1]

### Citations

[^1]: Source A

Section two, block empty.

### Citations

Section three.[^1]

### Citations

[^1]: Source B
`
	result := Consolidate(doc, Options{})

	if len(result.Definitions) != 2 {
		t.Errorf("empty block should contribute zero definitions, got %d", len(result.Definitions))
	}
}

func TestConsolidate_DanglingMarkerReportedNotDropped(t *testing.T) {
	doc := `Section one cites nothing defined.[^7]

### Citations

[^1]: Unreferenced background source

Section two.[^1]

### Citations

[^1]: Source B
`
	result := Consolidate(doc, Options{})

	if !reflect.DeepEqual(result.Dangling, []string{"7"}) {
		t.Errorf("expected dangling [7], got %v", result.Dangling)
	}
	if !strings.Contains(result.Output, "[^7]") {
		t.Error("dangling marker was dropped from output")
	}
	if len(result.Orphans) != 1 {
		t.Errorf("expected one orphan definition, got %v", result.Orphans)
	}
	if !strings.Contains(result.Output, "Unreferenced background source") {
		t.Error("orphan definition was deleted; it must be kept")
	}
}

func TestConsolidate_DanglingMarkerMovedOffConsolidatedLabel(t *testing.T) {
	// The first section's marker has no definition anywhere, and its
	// label lands inside the renumbered range. Left alone it would read
	// as a citation of the second section's source.
	doc := `Growth claim.[^2]

### Citations

[^1]: Annual report

Margin claim.[^1]

### Citations

[^1]: Analyst note
`
	result := Consolidate(doc, Options{})

	if !reflect.DeepEqual(result.Dangling, []string{"3"}) {
		t.Errorf("expected dangling [3], got %v", result.Dangling)
	}
	if !strings.Contains(result.Output, "Growth claim.[^3]") {
		t.Errorf("undefined marker must not share a label with a real source:\n%s", result.Output)
	}
	if !strings.Contains(result.Output, "Margin claim.[^2]") {
		t.Errorf("defined marker lost its renumbered label:\n%s", result.Output)
	}
	if strings.Contains(result.Output, "[^3]:") {
		t.Error("no definition should be emitted for a dangling marker")
	}
}

func TestConsolidate_MarkerResolvesThroughOtherSectionsBlock(t *testing.T) {
	// A marker whose own block lacks the definition still resolves when
	// another section's block defines that label.
	doc := `Opening remark.[^4]

### Citations

[^1]: Source A

Detail.[^4]

### Citations

[^4]: Shared source
`
	result := Consolidate(doc, Options{})

	if len(result.Dangling) != 0 {
		t.Errorf("marker defined elsewhere is not dangling, got %v", result.Dangling)
	}
	if !strings.Contains(result.Output, "Opening remark.[^2]") {
		t.Errorf("marker should follow the document-wide definition:\n%s", result.Output)
	}
	var shared *GlobalDef
	for i := range result.Definitions {
		if result.Definitions[i].Text == "Shared source" {
			shared = &result.Definitions[i]
		}
	}
	if shared == nil {
		t.Fatal("missing consolidated definition for shared source")
	}
	if !reflect.DeepEqual(shared.CitedBy, []int{0, 1}) {
		t.Errorf("both sections cite the shared source, got %v", shared.CitedBy)
	}
}

func TestConsolidate_MultiLineDefinitionPreserved(t *testing.T) {
	doc := `One.[^1]

### Citations

[^1]: TechCrunch, "Funding round",
  https://techcrunch.com/x, updated 2024-06-01

Two.[^1]

### Citations

[^1]: Other source
`
	result := Consolidate(doc, Options{})

	if !strings.Contains(result.Output, "https://techcrunch.com/x") {
		t.Errorf("multi-line definition truncated:\n%s", result.Output)
	}
}

func TestConsolidate_CollapsesBlankRuns(t *testing.T) {
	doc := "One.[^1]\n\n\n\n\n\n### Citations\n\n[^1]: A\n\nTwo.[^1]\n\n### Citations\n\n[^1]: B\n"
	result := Consolidate(doc, Options{})

	if strings.Contains(result.Output, "\n\n\n\n") {
		t.Errorf("run of 3+ blank lines not collapsed:\n%q", result.Output)
	}
}

func TestCheckIntegrity(t *testing.T) {
	before := "Claim.[^1] Another.[^2]\n\n### Citations\n\n[^1]: A\n\n[^2]: B\n"

	if err := CheckIntegrity(before, before); err != nil {
		t.Errorf("identical text should pass integrity: %v", err)
	}
	if err := CheckIntegrity(before, "Claim.[^1] Another.\n\n### Citations\n\n[^1]: A\n"); err == nil {
		t.Error("lost marker should fail integrity")
	}
	if err := CheckIntegrity(before, "Claim.[^1] Another.[^2]\n"); err == nil {
		t.Error("lost citations block should fail integrity")
	}
}
