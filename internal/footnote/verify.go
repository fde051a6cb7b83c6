package footnote

import "fmt"

// Report lists citation integrity findings for a document or section.
// Dangling references and orphan definitions are defects to surface, not to
// silently drop: a dangling marker degrades the output, an orphan definition
// may still be useful background and is kept.
type Report struct {
	Dangling []string // marker labels with no definition in scope
	Orphans  []string // definition labels with no referencing marker
	Blocks   int      // number of citations blocks found
}

// OK reports whether no integrity findings were recorded.
func (r Report) OK() bool {
	return len(r.Dangling) == 0 && len(r.Orphans) == 0 && r.Blocks <= 1
}

// DanglingReferenceError describes a marker that resolves to no definition.
type DanglingReferenceError struct {
	Label string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling citation reference [^%s]: no matching definition in scope", e.Label)
}

// Verify checks every marker in the document against every definition across
// all citations blocks, and vice versa.
func Verify(doc string) Report {
	defined := make(map[string]bool)
	var report Report

	for _, seg := range Split(doc) {
		if seg.Kind != Citations {
			continue
		}
		report.Blocks++
		for _, d := range ParseDefinitions(seg.Content) {
			defined[d.Label] = true
		}
	}

	referenced := make(map[string]bool)
	seenDangling := make(map[string]bool)
	for _, seg := range Split(doc) {
		if seg.Kind != Prose {
			continue
		}
		for _, m := range Markers(seg.Content) {
			referenced[m.Label] = true
			if !defined[m.Label] && !seenDangling[m.Label] {
				seenDangling[m.Label] = true
				report.Dangling = append(report.Dangling, m.Label)
			}
		}
	}

	for _, seg := range Split(doc) {
		if seg.Kind != Citations {
			continue
		}
		for _, d := range ParseDefinitions(seg.Content) {
			if !referenced[d.Label] {
				report.Orphans = append(report.Orphans, d.Label)
			}
		}
	}

	return report
}
