package render

import (
	"errors"
	"strings"
	"testing"
)

const memo = "# Acme Memo\n\nAcme raised a Series A [^1].\n\n[^1]: TechCrunch, 2024, https://example.com/a\n"

func TestMarkdown_RenderHTML(t *testing.T) {
	r := NewMarkdown()
	out, err := r.Render(memo, FormatHTML)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "<h1") {
		t.Errorf("heading not rendered: %s", s)
	}
	if !strings.Contains(s, "fn:1") {
		t.Errorf("footnote anchors missing: %s", s)
	}
}

func TestMarkdown_UnsupportedFormats(t *testing.T) {
	r := NewMarkdown()
	for _, format := range []Format{FormatPDF, FormatDOCX, Format("rtf")} {
		_, err := r.Render(memo, format)
		var convErr *ConversionError
		if !errors.As(err, &convErr) {
			t.Errorf("format %s: err = %v, want ConversionError", format, err)
			continue
		}
		if convErr.Format != format {
			t.Errorf("format %s: error names %s", format, convErr.Format)
		}
	}
}

func TestCheckFootnoteAnchors(t *testing.T) {
	r := NewMarkdown()
	out, err := r.Render(memo, FormatHTML)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := CheckFootnoteAnchors(out); err != nil {
		t.Errorf("CheckFootnoteAnchors: %v", err)
	}
}

func TestCheckFootnoteAnchors_Broken(t *testing.T) {
	broken := []byte(`<p><a href="#fn:7">7</a></p>`)
	if err := CheckFootnoteAnchors(broken); err == nil {
		t.Error("dangling footnote reference not detected")
	}
}
