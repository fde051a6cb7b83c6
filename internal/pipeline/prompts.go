package pipeline

import (
	"fmt"
	"strings"

	"github.com/halcyonvc/memoforge/internal/model"
)

const researchSystemPrompt = `You are a venture research analyst. Gather factual,
current information from the web. Cite every fact with a markdown footnote:
an inline [^N] marker and a matching definition under a "### Citations"
heading at the end, formatted as [^N]: Source Name, URL. Never invent
sources. If a fact cannot be sourced, write "data unavailable".`

func researchPrompt(company, companyURL string, section model.OutlineSection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research the company %q", company)
	if companyURL != "" {
		fmt.Fprintf(&b, " (%s)", companyURL)
	}
	fmt.Fprintf(&b, " for the %q section of an investment memo.\n\n", section.Name)
	if len(section.Keywords) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s.\n\n", strings.Join(section.Keywords, ", "))
	}
	b.WriteString("Return research notes in markdown with footnote citations.")
	return b.String()
}

const deckSystemPrompt = `You are a venture analyst. Summarize the pitch deck
contents below into a factual brief: what the company does, the market, the
team, the traction and the ask. Keep claims attributed to the deck.`

func deckPrompt(company, contents string) string {
	return fmt.Sprintf("Pitch deck for %q:\n\n%s", company, contents)
}

const draftSystemPrompt = `You are writing one section of an investment memo.
Write clear, analytical prose grounded ONLY in the research notes provided.
Preserve every footnote citation from the research: keep the [^N] markers
next to the facts they support and reproduce the matching definitions under
a "### Citations" heading at the end of the section. Do not add facts that
are not in the research.`

func draftPrompt(company string, section model.OutlineSection, research string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the %q section (## heading) of the investment memo for %q.\n\n", section.Name, company)
	if research != "" {
		fmt.Fprintf(&b, "Research notes:\n\n%s", research)
	} else {
		b.WriteString("No research notes are available; state that explicitly rather than inventing facts.")
	}
	return b.String()
}

const headerSystemPrompt = `Produce a short markdown header block for an
investment memo: a level-1 title with the company name, a one-line
descriptor, and the company website if known. No other content.`

func headerPrompt(company, companyURL string, deck *model.DeckAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", company)
	if companyURL != "" {
		fmt.Fprintf(&b, "Website: %s\n", companyURL)
	}
	if deck != nil && deck.Summary != "" {
		fmt.Fprintf(&b, "\nDeck summary:\n%s\n", deck.Summary)
	}
	return b.String()
}

const rewriteSystemPrompt = `You are editing one section of an investment memo.
Return the FULL revised section in markdown. Preserve all existing footnote
citations exactly: every [^N] marker and every definition under the
"### Citations" heading must survive unchanged. Do not renumber citations.`

func socialsPrompt(company string, section model.OutlineSection, body string) string {
	return fmt.Sprintf(`Add professional profile links (LinkedIn or equivalent) for the
people named in this %q section of the %s memo. Use inline markdown links
on first mention of each person. Only add links you are confident in;
leave a name unlinked rather than guessing.

%s`, section.Name, company, body)
}

func linksPrompt(company string, section model.OutlineSection, body string) string {
	return fmt.Sprintf(`Add inline markdown hyperlinks for the companies, products and
organizations mentioned in this %q section of the %s memo, pointing to
their official websites. Link only the first mention of each entity and
only where you are confident of the URL.

%s`, section.Name, company, body)
}
