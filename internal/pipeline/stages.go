package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/halcyonvc/memoforge/internal/citations"
	"github.com/halcyonvc/memoforge/internal/factcheck"
	"github.com/halcyonvc/memoforge/internal/footnote"
	"github.com/halcyonvc/memoforge/internal/llm"
	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/render"
	"github.com/halcyonvc/memoforge/internal/store"
	"github.com/halcyonvc/memoforge/internal/validate"
	"github.com/halcyonvc/memoforge/internal/worker"
)

// runResearch produces the deck-analysis and research artifacts plus one
// research file per section.
func (p *Pipeline) runResearch(ctx context.Context) error {
	if p.state.Deck == nil {
		deck, err := p.analyzeDeck(ctx)
		if err != nil {
			return fmt.Errorf("analyze deck: %w", err)
		}
		if err := store.WriteJSON(p.repo, store.KindDeckAnalysis, deck); err != nil {
			return err
		}
		p.state.Deck = deck
	}

	if p.search == nil {
		return fmt.Errorf("research requires a search-capable provider")
	}

	research := &model.Research{
		Company:    p.company,
		CompanyURL: p.companyURL,
		Topics:     make(map[string]string, p.outline.Count()),
		FetchedAt:  time.Now().UTC(),
	}

	for _, section := range p.outline.Sections {
		text, err := p.search.Generate(ctx, llm.Request{
			System: researchSystemPrompt,
			Prompt: researchPrompt(p.company, p.companyURL, section),
		})
		if err != nil {
			return fmt.Errorf("research %s: %w", section.Slug, err)
		}
		research.Topics[section.Slug] = text
		if err := p.repo.WriteResearch(section.FileName(), text); err != nil {
			return err
		}
	}

	if research.CompanyURL == "" {
		research.CompanyURL = firstURL(research.Topics["company-overview"])
	}
	if err := store.WriteJSON(p.repo, store.KindResearch, research); err != nil {
		return err
	}
	p.state.Research = research
	return nil
}

// analyzeDeck builds the deck-analysis record. A .json deck path is loaded
// as a pre-extracted analysis (image extraction happens upstream); any other
// file is summarized as text. No deck at all yields a minimal record.
func (p *Pipeline) analyzeDeck(ctx context.Context) (*model.DeckAnalysis, error) {
	deck := &model.DeckAnalysis{
		Company:    p.company,
		CompanyURL: p.companyURL,
		AnalyzedAt: time.Now().UTC(),
	}
	if p.deckPath == "" {
		return deck, nil
	}

	data, err := os.ReadFile(p.deckPath)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(p.deckPath) == ".json" {
		if err := json.Unmarshal(data, deck); err != nil {
			return nil, fmt.Errorf("parse deck analysis: %w", err)
		}
		deck.AnalyzedAt = time.Now().UTC()
		if deck.Company == "" {
			deck.Company = p.company
		}
		return deck, nil
	}

	if p.llm == nil {
		deck.Summary = string(data)
		return deck, nil
	}
	summary, err := p.llm.Generate(ctx, llm.Request{
		System: deckSystemPrompt,
		Prompt: deckPrompt(p.company, string(data)),
	})
	if err != nil {
		return nil, err
	}
	deck.Summary = summary
	return deck, nil
}

// runDraft writes every section file not yet on disk, drafting from the
// section's research. Section calls run in parallel; one failure aborts the
// stage so a partial section set is never committed as done. When generation
// fails after retries but raw research exists, the raw text is used as a
// degraded section body instead of aborting.
func (p *Pipeline) runDraft(ctx context.Context) error {
	var jobs []worker.SectionJob
	for _, section := range p.outline.Sections {
		if body, ok := p.state.Sections[section.Number]; ok && strings.TrimSpace(body) != "" {
			continue
		}
		section := section
		jobs = append(jobs, worker.SectionJob{
			Number: section.Number,
			Name:   section.Name,
			Run: func(ctx context.Context) (string, error) {
				return p.draftSection(ctx, section)
			},
		})
	}
	if len(jobs) == 0 {
		return nil
	}

	bodies, err := worker.RunSections(ctx, p.cfg.Concurrency.DraftWorkers, jobs)
	if err != nil {
		return err
	}

	for _, section := range p.outline.Sections {
		body, ok := bodies[section.Number]
		if !ok {
			continue
		}
		if err := p.repo.WriteSection(section.FileName(), body); err != nil {
			return err
		}
		p.state.Sections[section.Number] = body
	}
	return nil
}

func (p *Pipeline) draftSection(ctx context.Context, section model.OutlineSection) (string, error) {
	research := p.sectionResearch(section)

	if p.llm == nil {
		if research == "" {
			return "", fmt.Errorf("no provider and no research for %s", section.Slug)
		}
		return fmt.Sprintf("## %s\n\n%s", section.Name, research), nil
	}

	body, err := p.llm.Generate(ctx, llm.Request{
		System: draftSystemPrompt,
		Prompt: draftPrompt(p.company, section, research),
	})
	if err != nil {
		if research != "" {
			p.logf("warning: drafting %s failed (%v), using raw research", section.Slug, err)
			return fmt.Sprintf("## %s\n\n%s", section.Name, research), nil
		}
		return "", err
	}
	if !strings.HasPrefix(strings.TrimSpace(body), "#") {
		body = fmt.Sprintf("## %s\n\n%s", section.Name, body)
	}
	return body, nil
}

func (p *Pipeline) sectionResearch(section model.OutlineSection) string {
	if p.state.Research != nil {
		if topic, ok := p.state.Research.Topics[section.Slug]; ok {
			return topic
		}
	}
	if body, err := p.repo.ReadResearch(section.FileName()); err == nil {
		return body
	}
	return ""
}

// runEnrichTrademark writes the header artifact with the company branding
// snippet.
func (p *Pipeline) runEnrichTrademark(ctx context.Context) error {
	if strings.TrimSpace(p.state.Header) != "" {
		return nil
	}

	header := fmt.Sprintf("# %s\n\nInvestment Memo\n", p.company)
	if p.llm != nil {
		generated, err := p.llm.Generate(ctx, llm.Request{
			System: headerSystemPrompt,
			Prompt: headerPrompt(p.company, p.companyURL, p.state.Deck),
		})
		if err != nil {
			p.logf("warning: header generation failed (%v), using plain header", err)
		} else if strings.TrimSpace(generated) != "" {
			header = generated
		}
	}

	if err := p.repo.WriteArtifact(store.KindHeader, []byte(header)); err != nil {
		return err
	}
	p.state.Header = header
	return nil
}

// runEnrichSocials adds professional profile links for named people to the
// team section.
func (p *Pipeline) runEnrichSocials(ctx context.Context) error {
	team, ok := p.outline.TeamSection()
	if !ok {
		return nil
	}
	return p.rewriteSection(ctx, team, socialsPrompt)
}

// runEnrichLinks adds inline hyperlinks for key entities across all
// sections.
func (p *Pipeline) runEnrichLinks(ctx context.Context) error {
	for _, section := range p.outline.Sections {
		if err := p.rewriteSection(ctx, section, linksPrompt); err != nil {
			return err
		}
	}
	return nil
}

// rewriteSection runs one LLM rewriting pass over a section with the
// citation-integrity guard: if the rewrite loses or invents citations, the
// original body is kept. Stale-but-correct beats fresh-but-broken.
func (p *Pipeline) rewriteSection(ctx context.Context, section model.OutlineSection, prompt func(company string, section model.OutlineSection, body string) string) error {
	provider := p.search
	if provider == nil {
		provider = p.llm
	}
	if provider == nil {
		p.logf("warning: no provider, skipping rewrite of %s", section.Slug)
		return nil
	}

	body, ok := p.state.Sections[section.Number]
	if !ok || strings.TrimSpace(body) == "" {
		return nil
	}

	rewritten, err := provider.Generate(ctx, llm.Request{
		System: rewriteSystemPrompt,
		Prompt: prompt(p.company, section, body),
	})
	if err != nil {
		p.logf("warning: rewrite of %s failed (%v), keeping original", section.Slug, err)
		return nil
	}
	if err := citations.CheckIntegrity(body, rewritten); err != nil {
		p.logf("warning: rewrite of %s broke citations (%v), keeping original", section.Slug, err)
		return nil
	}

	if err := p.repo.WriteSection(section.FileName(), rewritten); err != nil {
		return err
	}
	p.state.Sections[section.Number] = rewritten
	return nil
}

// runEnrichVisualizations embeds deck screenshots into the sections whose
// outline keywords match the screenshot's section keyword.
func (p *Pipeline) runEnrichVisualizations(_ context.Context) error {
	if p.state.Deck == nil || len(p.state.Deck.Screenshots) == 0 {
		return nil
	}

	for keyword, paths := range p.state.Deck.Screenshots {
		section, ok := p.sectionForKeyword(keyword)
		if !ok {
			continue
		}
		body := p.state.Sections[section.Number]
		if body == "" {
			continue
		}
		changed := false
		for _, path := range paths {
			if strings.Contains(body, path) {
				continue
			}
			body += fmt.Sprintf("\n\n![%s](%s)\n", keyword, path)
			changed = true
		}
		if !changed {
			continue
		}
		if err := p.repo.WriteSection(section.FileName(), body); err != nil {
			return err
		}
		p.state.Sections[section.Number] = body
	}
	return nil
}

func (p *Pipeline) sectionForKeyword(keyword string) (model.OutlineSection, bool) {
	lower := strings.ToLower(keyword)
	for _, section := range p.outline.Sections {
		if strings.Contains(strings.ToLower(section.Name), lower) {
			return section, true
		}
		for _, kw := range section.Keywords {
			if strings.Contains(strings.ToLower(kw), lower) || strings.Contains(lower, strings.ToLower(kw)) {
				return section, true
			}
		}
	}
	return model.OutlineSection{}, false
}

// runCite converts bare hyperlinks into footnote citations section by
// section, then assembles and consolidates the finalized draft.
func (p *Pipeline) runCite(_ context.Context) error {
	var parts []string
	if strings.TrimSpace(p.state.Header) != "" {
		parts = append(parts, strings.TrimSpace(p.state.Header))
	}
	for _, section := range p.outline.Sections {
		body, ok := p.state.Sections[section.Number]
		if !ok || strings.TrimSpace(body) == "" {
			return fmt.Errorf("section %s missing; run the draft stage first", section.Slug)
		}
		cited := citeBareLinks(body)
		if cited != body {
			if err := p.repo.WriteSection(section.FileName(), cited); err != nil {
				return err
			}
			p.state.Sections[section.Number] = cited
		}
		parts = append(parts, strings.TrimSpace(cited))
	}

	assembled := strings.Join(parts, "\n\n") + "\n"
	result := citations.Consolidate(assembled, citations.Options{Dedupe: true})
	draft := result.Output
	if len(result.Dangling) > 0 {
		p.logf("warning: %d dangling citation markers in draft", len(result.Dangling))
	}

	if err := p.repo.WriteArtifact(store.KindFinalDraft, []byte(draft)); err != nil {
		return err
	}
	p.state.Draft = draft
	return nil
}

var (
	uncitedLinkRe = regexp.MustCompile(`\[([^\]^][^\]]*)\]\((https?://[^)]+)\)`)
	citedMarkerRe = regexp.MustCompile(`\[\^[A-Za-z0-9_]+\]\s*$`)
)

// citeBareLinks rewrites every markdown hyperlink not already preceded by a
// citation marker into plain text plus a footnote, appending matching
// definitions to the section's citations block. The adjacency rule matches
// the one checkpoint detection uses when looking for uncited links.
func citeBareLinks(body string) string {
	segments := footnote.Split(body)

	var defs []footnote.Definition
	maxLabel := 0
	for _, seg := range segments {
		if seg.Kind != footnote.Citations {
			continue
		}
		for _, d := range footnote.ParseDefinitions(seg.Content) {
			defs = append(defs, d)
			if n, err := strconv.Atoi(d.Label); err == nil && n > maxLabel {
				maxLabel = n
			}
		}
	}

	changed := false
	var prose []string
	for _, seg := range segments {
		if seg.Kind == footnote.Citations {
			continue
		}
		content := seg.Content
		var b strings.Builder
		last := 0
		for _, m := range uncitedLinkRe.FindAllStringSubmatchIndex(content, -1) {
			text := content[m[2]:m[3]]
			url := content[m[4]:m[5]]
			// A marker just before the link means the claim already
			// carries a citation; leave such links alone.
			if citedMarkerRe.MatchString(strings.TrimRight(content[:m[0]], " ")) {
				continue
			}
			maxLabel++
			b.WriteString(content[last:m[0]])
			fmt.Fprintf(&b, "%s[^%d]", text, maxLabel)
			defs = append(defs, footnote.Definition{
				Label: strconv.Itoa(maxLabel),
				Text:  fmt.Sprintf("%s, %s", text, url),
			})
			last = m[1]
			changed = true
		}
		b.WriteString(content[last:])
		if strings.TrimSpace(b.String()) != "" {
			prose = append(prose, strings.TrimSpace(b.String()))
		}
	}

	if !changed {
		return body
	}
	out := strings.Join(prose, "\n\n")
	if len(defs) > 0 {
		out += "\n\n" + footnote.RenderBlock(defs)
	}
	return out
}

var tocHeadingRe = regexp.MustCompile(`(?mi)^#{1,3}\s+table of contents\b`)

// runTOC inserts a table of contents before the first section heading.
func (p *Pipeline) runTOC(_ context.Context) error {
	draft := p.state.Draft
	if strings.TrimSpace(draft) == "" {
		return fmt.Errorf("final draft missing; run the cite stage first")
	}
	if tocHeadingRe.MatchString(draft) {
		return nil
	}

	var toc strings.Builder
	toc.WriteString("## Table of Contents\n\n")
	for _, section := range p.outline.Sections {
		fmt.Fprintf(&toc, "%d. [%s](#%s)\n", section.Number, section.Name, section.Slug)
	}

	lines := strings.Split(draft, "\n")
	insertAt := 0
	for i, line := range lines {
		if strings.HasPrefix(line, "## ") {
			insertAt = i
			break
		}
	}
	var out []string
	out = append(out, lines[:insertAt]...)
	out = append(out, strings.Split(toc.String(), "\n")...)
	out = append(out, lines[insertAt:]...)
	draft = strings.Join(out, "\n")

	if err := p.repo.WriteArtifact(store.KindFinalDraft, []byte(draft)); err != nil {
		return err
	}
	p.state.Draft = draft
	return nil
}

// runValidateCitations probes every URL cited by the draft.
func (p *Pipeline) runValidateCitations(ctx context.Context) error {
	if strings.TrimSpace(p.state.Draft) == "" {
		return fmt.Errorf("final draft missing; run the cite stage first")
	}

	urls := validate.CitedURLs(p.state.Draft)
	p.logf("checking %d cited URLs", len(urls))
	p.state.Validation.CitationChecks = p.links.CheckAll(ctx, urls)
	p.state.Validation.CheckedAt = time.Now().UTC()
	return store.WriteJSON(p.repo, store.KindValidation, p.state.Validation)
}

// runFactCheck scores every section against the research corpus.
func (p *Pipeline) runFactCheck(_ context.Context) error {
	sections := make(map[int]factcheck.Section, len(p.state.Sections))
	for _, section := range p.outline.Sections {
		body, ok := p.state.Sections[section.Number]
		if !ok {
			continue
		}
		sections[section.Number] = factcheck.Section{Name: section.Name, Body: body}
	}

	corpusEntity := ""
	if p.state.Research != nil {
		corpusEntity = p.state.Research.CompanyURL
	}

	result := p.facts.CheckDocument(sections, p.corpus(), p.companyURL, corpusEntity)
	p.state.Validation.FactCheck = &result
	p.state.Validation.CheckedAt = time.Now().UTC()
	if err := store.WriteJSON(p.repo, store.KindValidation, p.state.Validation); err != nil {
		return err
	}

	for _, sec := range result.Sections {
		if sec.RequiresRewrite {
			p.logf("fact check: section %d (%s) flagged for rewrite, score %.2f", sec.Section, sec.Name, sec.Score)
		}
	}
	return nil
}

// runValidate combines fact-check and citation results into the overall
// score and gates entry into finalize.
func (p *Pipeline) runValidate(_ context.Context) error {
	factScore := 1.0
	if p.state.Validation.FactCheck != nil {
		factScore = p.state.Validation.FactCheck.Score
	}

	citeScore := 1.0
	checks := p.state.Validation.CitationChecks
	if probed := len(checks); probed > 0 {
		reachable, considered := 0, 0
		for _, c := range checks {
			if c.Skipped {
				continue
			}
			considered++
			if c.IsAccessible {
				reachable++
			}
		}
		if considered > 0 {
			citeScore = float64(reachable) / float64(considered)
		}
	}

	overall := 10 * (0.7*factScore + 0.3*citeScore)
	p.state.Validation.OverallScore = &overall
	p.state.Validation.CheckedAt = time.Now().UTC()
	if err := store.WriteJSON(p.repo, store.KindValidation, p.state.Validation); err != nil {
		return err
	}

	if overall < p.cfg.FactCheck.QualityThreshold {
		return fmt.Errorf("overall score %.1f below threshold %.1f: %w",
			overall, p.cfg.FactCheck.QualityThreshold, ErrHumanReview)
	}
	p.logf("overall score %.1f", overall)
	return nil
}

// runFinalize normalizes citations one last time, writes the finalized memo
// and a best-effort HTML export.
func (p *Pipeline) runFinalize(_ context.Context) error {
	draft := p.state.Draft
	if strings.TrimSpace(draft) == "" {
		return fmt.Errorf("final draft missing; run the cite stage first")
	}

	result := citations.Consolidate(draft, citations.Options{Dedupe: true})
	memo := result.Output
	if err := citations.CheckIntegrity(draft, memo); err != nil {
		p.logf("warning: consolidation integrity check failed (%v), keeping draft as-is", err)
		memo = draft
	}

	report := footnote.Verify(memo)
	for _, label := range report.Dangling {
		p.logf("warning: dangling citation marker [^%s] in finalized memo", label)
	}

	if err := p.repo.WriteArtifact(store.KindFinalMemo, []byte(memo)); err != nil {
		return err
	}

	html, err := p.renderer.Render(memo, render.FormatHTML)
	if err != nil {
		p.logf("warning: HTML export failed: %v", err)
		return nil
	}
	if err := render.CheckFootnoteAnchors(html); err != nil {
		p.logf("warning: HTML export anchors: %v", err)
	}
	if err := p.repo.WriteArtifact(store.KindExportHTML, html); err != nil {
		return err
	}
	return nil
}

var firstURLRe = regexp.MustCompile(`https?://[^\s\)\]]+`)

func firstURL(text string) string {
	u := firstURLRe.FindString(text)
	return strings.TrimRight(u, ".,;:!?")
}
