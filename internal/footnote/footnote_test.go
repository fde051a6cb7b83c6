package footnote

import (
	"reflect"
	"strings"
	"testing"
)

func TestMarkers_ExcludesDefinitionTokens(t *testing.T) {
	text := "Revenue grew 40%.[^1] See the deck.[^deck]\n\n[^1]: Reuters, 2024-01-05, https://example.com/a\n"

	markers := Markers(text)

	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d: %+v", len(markers), markers)
	}
	if markers[0].Label != "1" || markers[1].Label != "deck" {
		t.Errorf("unexpected labels: %+v", markers)
	}
}

func TestMarkers_RepeatedLabel(t *testing.T) {
	labels := MarkerLabels("a[^3] b[^3] c[^3]")
	if !reflect.DeepEqual(labels, []string{"3", "3", "3"}) {
		t.Errorf("expected repeated labels preserved, got %v", labels)
	}
}

func TestParseDefinitions_MultiLineBody(t *testing.T) {
	block := `
[^1]: TechCrunch, "Series B announcement",
  https://techcrunch.com/example, updated 2024-03-01

[^2]: Company blog post
`
	defs := ParseDefinitions(block)

	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d: %+v", len(defs), defs)
	}
	if !strings.Contains(defs[0].Text, "https://techcrunch.com/example") {
		t.Errorf("multi-line definition truncated: %q", defs[0].Text)
	}
	if defs[0].Label != "1" || defs[1].Label != "2" {
		t.Errorf("unexpected labels: %+v", defs)
	}
}

func TestParseDefinitions_EmptyBlock(t *testing.T) {
	if defs := ParseDefinitions("\n\n"); len(defs) != 0 {
		t.Errorf("expected no definitions from empty block, got %+v", defs)
	}
}

func TestSplit_AlternatingSegments(t *testing.T) {
	doc := `## Section One

Prose with a claim.[^1]

### Citations

[^1]: Source A

## Section Two

More prose.[^1]

### Citations

[^1]: Source B
`
	segs := Split(doc)

	var kinds []SegmentKind
	for _, s := range segs {
		kinds = append(kinds, s.Kind)
	}
	want := []SegmentKind{Prose, Citations, Prose, Citations}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("expected segment kinds %v, got %v", want, kinds)
	}
	if !strings.Contains(segs[2].Content, "Section Two") {
		t.Errorf("citations block consumed the following section heading")
	}
}

func TestSplit_DuplicateHeadings(t *testing.T) {
	doc := "Text.[^1]\n\n### Citations\n\n[^1]: A\n\n### Citations\n\n[^2]: B\n"

	if n := CountBlocks(doc); n != 2 {
		t.Errorf("expected 2 blocks for duplicate headings, got %d", n)
	}
}

func TestRenderBlock_AscendingNumericOrder(t *testing.T) {
	out := RenderBlock([]Definition{
		{Label: "10", Text: "tenth"},
		{Label: "2", Text: "second"},
		{Label: "1", Text: "first"},
	})

	i1 := strings.Index(out, "[^1]:")
	i2 := strings.Index(out, "[^2]:")
	i10 := strings.Index(out, "[^10]:")
	if i1 < 0 || i2 < 0 || i10 < 0 {
		t.Fatalf("missing definitions in output:\n%s", out)
	}
	if !(i1 < i2 && i2 < i10) {
		t.Errorf("definitions not in ascending numeric order:\n%s", out)
	}
	if !strings.HasPrefix(out, Heading) {
		t.Errorf("block does not start with heading:\n%s", out)
	}
}

func TestVerify_DanglingAndOrphan(t *testing.T) {
	doc := "Claim one.[^1] Claim two.[^9]\n\n### Citations\n\n[^1]: Source A\n\n[^5]: Background source\n"

	report := Verify(doc)

	if !reflect.DeepEqual(report.Dangling, []string{"9"}) {
		t.Errorf("expected dangling [9], got %v", report.Dangling)
	}
	if !reflect.DeepEqual(report.Orphans, []string{"5"}) {
		t.Errorf("expected orphan [5], got %v", report.Orphans)
	}
	if report.OK() {
		t.Error("report with findings should not be OK")
	}
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	a := Normalize("Reuters,  2024-01-05,\n  url1")
	b := Normalize("Reuters, 2024-01-05, url1")
	if a != b {
		t.Errorf("normalized forms differ: %q vs %q", a, b)
	}
}
