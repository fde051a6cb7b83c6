package citations

import (
	"fmt"
	"sort"

	"github.com/halcyonvc/memoforge/internal/footnote"
)

// CheckIntegrity compares a section before and after a text-rewriting pass
// and reports whether citation structure survived: same marker multiset and
// no citations block lost. Callers fall back to the unrewritten input when
// this fails; stale-but-correct beats fresh-but-broken for citations.
func CheckIntegrity(before, after string) error {
	b := footnote.MarkerLabels(before)
	a := footnote.MarkerLabels(after)
	if len(a) != len(b) {
		return fmt.Errorf("citation marker count changed: %d before, %d after", len(b), len(a))
	}

	sort.Strings(b)
	sort.Strings(a)
	for i := range b {
		if a[i] != b[i] {
			return fmt.Errorf("citation marker set changed: [^%s] became [^%s]", b[i], a[i])
		}
	}

	if footnote.CountBlocks(before) > 0 && footnote.CountBlocks(after) == 0 {
		return fmt.Errorf("citations section missing after rewrite")
	}
	return nil
}

// ReferencedTexts returns the multiset of definition texts that markers in
// doc actually resolve to, normalized. Used to assert that consolidation
// conserves every referenced citation.
func ReferencedTexts(doc string) []string {
	segments := footnote.Split(doc)
	chunks := pairChunks(segments)

	// Global scope fallback: a consolidated document has one trailing block
	// serving all chunks.
	global := make(map[string]string)
	for _, cb := range chunks {
		for _, d := range cb.defs {
			if _, ok := global[d.Label]; !ok {
				global[d.Label] = footnote.Normalize(d.Text)
			}
		}
	}

	var texts []string
	for _, cb := range chunks {
		local := make(map[string]string)
		for _, d := range cb.defs {
			if _, ok := local[d.Label]; !ok {
				local[d.Label] = footnote.Normalize(d.Text)
			}
		}
		for _, label := range footnote.MarkerLabels(cb.content) {
			if text, ok := local[label]; ok {
				texts = append(texts, text)
			} else if text, ok := global[label]; ok {
				texts = append(texts, text)
			}
		}
	}
	sort.Strings(texts)
	return texts
}
