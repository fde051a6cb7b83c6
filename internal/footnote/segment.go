package footnote

import (
	"sort"
	"strconv"
	"strings"
)

// SegmentKind distinguishes prose from citation blocks
type SegmentKind int

const (
	Prose SegmentKind = iota
	Citations
)

// Segment is one typed slice of a document: either prose or the body of a
// citations block (heading excluded).
type Segment struct {
	Kind    SegmentKind
	Content string
}

// Split tokenizes a document into alternating prose and citations segments.
// A citations segment starts after a "### Citations" heading and ends at the
// next heading line of any level, or at a non-blank line that is neither a
// definition start nor a continuation of an open definition. Two adjacent
// citation headings produce two citation segments; callers can detect that
// duplicate blocks condition by counting.
func Split(doc string) []Segment {
	lines := strings.Split(doc, "\n")
	var segments []Segment
	var buf []string
	inCitations := false
	defOpen := false

	flush := func(kind SegmentKind) {
		content := strings.Join(buf, "\n")
		if kind == Prose && strings.TrimSpace(content) == "" && len(segments) == 0 {
			// Leading empty prose carries no information.
			buf = nil
			return
		}
		segments = append(segments, Segment{Kind: kind, Content: content})
		buf = nil
	}

	for _, line := range lines {
		if IsHeading(line) {
			if inCitations {
				flush(Citations)
			} else {
				flush(Prose)
			}
			inCitations = true
			defOpen = false
			continue
		}
		if inCitations {
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, "#"):
				flush(Citations)
				inCitations = false
			case defStartRe.MatchString(line):
				defOpen = true
			case trimmed == "":
				defOpen = false
			case !defOpen:
				// Prose resumed without a heading; the block is over.
				flush(Citations)
				inCitations = false
			}
		}
		buf = append(buf, line)
	}
	if inCitations {
		flush(Citations)
	} else if len(buf) > 0 {
		flush(Prose)
	}

	return segments
}

// CountBlocks returns how many citations blocks the document contains.
func CountBlocks(doc string) int {
	n := 0
	for _, seg := range Split(doc) {
		if seg.Kind == Citations {
			n++
		}
	}
	return n
}

// RenderBlock emits a single citations block: the heading, then definitions
// in ascending label order with one blank line between entries. Integer
// labels sort numerically; any non-numeric labels sort after them.
func RenderBlock(defs []Definition) string {
	sorted := make([]Definition, len(defs))
	copy(sorted, defs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aerr := strconv.Atoi(sorted[i].Label)
		b, berr := strconv.Atoi(sorted[j].Label)
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		default:
			return sorted[i].Label < sorted[j].Label
		}
	})

	var b strings.Builder
	b.WriteString(Heading)
	b.WriteString("\n")
	for _, d := range sorted {
		b.WriteString("\n[^")
		b.WriteString(d.Label)
		b.WriteString("]: ")
		b.WriteString(d.Text)
		b.WriteString("\n")
	}
	return b.String()
}
