// Package footnote parses and emits the citation micro-syntax used in memo
// markdown: inline markers [^label] and definitions [^label]: text, grouped
// under a level-3 Citations heading.
package footnote

import (
	"regexp"
	"strings"
)

// Heading is the fixed heading that introduces a citations block.
const Heading = "### Citations"

var (
	markerRe   = regexp.MustCompile(`\[\^([A-Za-z0-9_]+)\]`)
	defStartRe = regexp.MustCompile(`^\[\^([A-Za-z0-9_]+)\]:\s?(.*)$`)
	headingRe  = regexp.MustCompile(`^###\s+Citations\s*$`)
)

// Definition maps a label to the free-text content describing a source.
// Labels are usually small integers but deck-sourced citations may use
// non-numeric tokens such as "deck".
type Definition struct {
	Label string
	Text  string
}

// Marker is one inline [^label] occurrence referencing a definition.
type Marker struct {
	Label  string
	Offset int // byte offset of the marker in the scanned text
}

// Markers returns every inline citation marker in text, in order of
// appearance. A [^label] immediately followed by ':' is a definition's
// opening token, not a marker, and is excluded.
func Markers(text string) []Marker {
	matches := markerRe.FindAllStringSubmatchIndex(text, -1)
	var markers []Marker
	for _, m := range matches {
		end := m[1]
		if end < len(text) && text[end] == ':' {
			continue
		}
		markers = append(markers, Marker{
			Label:  text[m[2]:m[3]],
			Offset: m[0],
		})
	}
	return markers
}

// MarkerLabels returns the labels of all markers in text, in order, with
// repeats preserved.
func MarkerLabels(text string) []string {
	markers := Markers(text)
	labels := make([]string, len(markers))
	for i, m := range markers {
		labels[i] = m.Label
	}
	return labels
}

// ParseDefinitions extracts all definitions from the body of a citations
// block. A definition starts at a line matching [^label]: and its text runs
// until the next definition start or the end of the block, so multi-line
// bodies (wrapped text, embedded markdown links) are captured in full.
func ParseDefinitions(block string) []Definition {
	var defs []Definition
	var current *Definition

	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(current.Text)
			defs = append(defs, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(block, "\n") {
		if m := defStartRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Definition{Label: m[1], Text: m[2]}
			continue
		}
		if current != nil {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				// Blank line separates entries; a following non-definition
				// line no longer belongs to this definition.
				flush()
				continue
			}
			current.Text += " " + trimmed
		}
	}
	flush()

	return defs
}

// IsHeading reports whether line is a citations block heading.
func IsHeading(line string) bool {
	return headingRe.MatchString(strings.TrimRight(line, "\r"))
}

// Normalize collapses all whitespace runs in a definition text to single
// spaces. Normalized equality is the deduplication key for definitions.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
