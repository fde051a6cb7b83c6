// Package citations merges per-section citation blocks into one globally
// renumbered block at the end of a document, rewriting inline markers to
// match. Consolidation is idempotent and never loses a marker or a
// definition's content.
package citations

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/halcyonvc/memoforge/internal/footnote"
)

// Options controls consolidation behavior
type Options struct {
	// Dedupe groups definitions by normalized text equality before assigning
	// global labels, so one source cited from several sections gets a single
	// canonical label.
	Dedupe bool
}

// GlobalDef is one entry of the consolidated citation set
type GlobalDef struct {
	Label   int    `json:"label"`
	Text    string `json:"text"`
	CitedBy []int  `json:"cited_by"` // distinct chunk indexes referencing this definition
}

// Result describes one consolidation pass
type Result struct {
	Output      string      `json:"-"`
	Changed     bool        `json:"changed"`
	Blocks      int         `json:"blocks"` // citation blocks found in the input
	Definitions []GlobalDef `json:"definitions,omitempty"`
	Dangling    []string    `json:"dangling,omitempty"` // output labels of markers with no definition anywhere
	Orphans     []int       `json:"orphans,omitempty"`  // global labels never referenced (kept in output)
	Note        string      `json:"note,omitempty"`
}

// chunkBlocks pairs one content chunk with the citation blocks that follow
// it. Ownership is positional: chunk i cites into the block(s) appearing
// physically after it and before the next chunk. Duplicate adjacent blocks
// (an upstream enrichment bug) all attach to the same chunk.
type chunkBlocks struct {
	content string
	defs    []footnote.Definition
}

var blankRunRe = regexp.MustCompile(`\n{4,}`)

// Consolidate merges all citation blocks in doc into a single trailing block
// with sequential labels assigned in first-appearance order.
func Consolidate(doc string, opts Options) *Result {
	segments := footnote.Split(doc)

	blocks := 0
	for _, seg := range segments {
		if seg.Kind == footnote.Citations {
			blocks++
		}
	}

	switch blocks {
	case 0:
		return &Result{Output: doc, Blocks: 0, Note: "nothing to consolidate"}
	case 1:
		return &Result{Output: doc, Blocks: 1, Note: "already consolidated"}
	}

	chunks := pairChunks(segments)

	// Assign global labels in first-appearance order across the whole
	// document: chunk order, then within-block order. This makes repeated
	// runs on unchanged input byte-identical.
	var globals []GlobalDef
	byNorm := make(map[string]int) // normalized text -> global label
	mappings := make([]map[string]string, len(chunks))

	next := 1
	for i, cb := range chunks {
		mappings[i] = make(map[string]string)
		for _, def := range cb.defs {
			norm := footnote.Normalize(def.Text)
			label := 0
			if opts.Dedupe {
				if existing, ok := byNorm[norm]; ok {
					label = existing
				}
			}
			if label == 0 {
				label = next
				next++
				globals = append(globals, GlobalDef{Label: label, Text: strings.TrimSpace(def.Text)})
				byNorm[norm] = label
			}
			// First definition of a label within a chunk wins; a duplicate
			// block redefining the same label cannot retarget markers that
			// were already resolved.
			if _, exists := mappings[i][def.Label]; !exists {
				mappings[i][def.Label] = strconv.Itoa(label)
			}
		}
	}

	// A marker resolves through its own chunk's block first, then through
	// any block in the document that defines the same label. Iterating
	// definitions in chunk order keeps the fallback deterministic.
	globalByOld := make(map[string]string)
	for i, cb := range chunks {
		for _, def := range cb.defs {
			if _, ok := globalByOld[def.Label]; !ok {
				globalByOld[def.Label] = mappings[i][def.Label]
			}
		}
	}

	// Labels already occupied in the output. A marker with no definition
	// anywhere keeps its label unless it clashes with one of these, in
	// which case it is moved to a free label so it cannot be mistaken for
	// a consolidated source.
	used := make(map[string]bool, len(globals))
	for _, g := range globals {
		used[strconv.Itoa(g.Label)] = true
	}
	danglingOut := make(map[string]string)

	result := &Result{Blocks: blocks, Changed: true}

	// Rewrite markers chunk by chunk and record back-references: one
	// indicator per distinct referencing chunk, so a reader can navigate
	// from a merged definition back to every section that cites it.
	citedBy := make(map[int]map[int]bool)
	rewritten := make([]string, len(chunks))
	seenDangling := make(map[string]bool)
	for i, cb := range chunks {
		effective := make(map[string]string)
		for _, label := range footnote.MarkerLabels(cb.content) {
			newLabel, ok := mappings[i][label]
			if !ok {
				newLabel, ok = globalByOld[label]
			}
			if !ok {
				out, known := danglingOut[label]
				if !known {
					out = label
					if used[out] {
						n := next
						for used[strconv.Itoa(n)] {
							n++
						}
						out = strconv.Itoa(n)
						next = n + 1
					}
					used[out] = true
					danglingOut[label] = out
				}
				effective[label] = out
				if !seenDangling[out] {
					seenDangling[out] = true
					result.Dangling = append(result.Dangling, out)
				}
				continue
			}
			effective[label] = newLabel
			n, _ := strconv.Atoi(newLabel)
			if citedBy[n] == nil {
				citedBy[n] = make(map[int]bool)
			}
			citedBy[n][i] = true
		}
		rewritten[i] = rewriteMarkers(cb.content, effective)
	}

	for gi := range globals {
		refs := citedBy[globals[gi].Label]
		for chunk := range refs {
			globals[gi].CitedBy = append(globals[gi].CitedBy, chunk)
		}
		sort.Ints(globals[gi].CitedBy)
		if len(globals[gi].CitedBy) == 0 {
			// Orphans are kept: some are legitimately still-useful
			// background references.
			result.Orphans = append(result.Orphans, globals[gi].Label)
		}
	}
	result.Definitions = globals

	result.Output = assemble(rewritten, globals)
	return result
}

// pairChunks walks the segment sequence pairing each citations block with
// the content chunk before it. A document that opens with a citations block
// gets a synthetic empty chunk.
func pairChunks(segments []footnote.Segment) []chunkBlocks {
	var chunks []chunkBlocks
	for _, seg := range segments {
		switch seg.Kind {
		case footnote.Prose:
			chunks = append(chunks, chunkBlocks{content: seg.Content})
		case footnote.Citations:
			if len(chunks) == 0 {
				chunks = append(chunks, chunkBlocks{})
			}
			last := &chunks[len(chunks)-1]
			last.defs = append(last.defs, footnote.ParseDefinitions(seg.Content)...)
		}
	}
	return chunks
}

// rewriteMarkers replaces [^old] markers per mapping. Replacement goes
// through a placeholder pass so a chain like 1->2, 2->1 cannot double-apply,
// and labels are processed longest-first so substring-based replacement can
// never match inside a longer label.
func rewriteMarkers(content string, mapping map[string]string) string {
	olds := make([]string, 0, len(mapping))
	for old := range mapping {
		olds = append(olds, old)
	}
	sort.Slice(olds, func(i, j int) bool {
		if len(olds[i]) != len(olds[j]) {
			return len(olds[i]) > len(olds[j])
		}
		return olds[i] < olds[j]
	})

	out := content
	for _, old := range olds {
		out = strings.ReplaceAll(out, "[^"+old+"]", "[^\x00"+mapping[old]+"\x00]")
	}
	return strings.ReplaceAll(out, "\x00", "")
}

// assemble joins the rewritten chunks, normalizes blank-line runs of three
// or more down to two, and appends the single consolidated citations block.
func assemble(chunks []string, globals []GlobalDef) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		trimmed := strings.TrimRight(c, "\n ")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	body := strings.Join(parts, "\n\n")
	body = blankRunRe.ReplaceAllString(body, "\n\n\n")

	defs := make([]footnote.Definition, len(globals))
	for i, g := range globals {
		defs[i] = footnote.Definition{Label: strconv.Itoa(g.Label), Text: g.Text}
	}

	return body + "\n\n" + footnote.RenderBlock(defs)
}
