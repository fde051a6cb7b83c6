// Package pipeline drives the memo generation stage sequence over a document
// repository. Every completed stage flushes its artifacts before the next
// starts, so an interrupted run can resume from the artifact set alone.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonvc/memoforge/internal/factcheck"
	"github.com/halcyonvc/memoforge/internal/llm"
	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/render"
	"github.com/halcyonvc/memoforge/internal/store"
	"github.com/halcyonvc/memoforge/internal/validate"
)

// ErrHumanReview is returned when the validate stage scores the document
// below the quality threshold. The run halts without finalizing; artifacts
// stay on disk for manual inspection.
var ErrHumanReview = errors.New("document held for human review")

// StageError identifies which stage an aborted run failed in.
type StageError struct {
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// State is the reconstructed in-memory context stages operate on. Any field
// may be empty after a resume; stages tolerate missing context and degrade
// rather than abort.
type State struct {
	Deck       *model.DeckAnalysis
	Research   *model.Research
	Sections   map[int]string // section number -> body
	Header     string
	Draft      string
	Validation *model.Validation
}

// Pipeline executes the stage sequence for one document instance.
type Pipeline struct {
	repo     store.Repository
	outline  *model.Outline
	cfg      *model.Config
	llm      llm.Provider // generalist; nil disables generation stages
	search   llm.Provider // web-search-augmented; nil disables research
	links    *validate.LinkChecker
	facts    *factcheck.Checker
	renderer render.Renderer

	document string
	version  int
	company  string
	// CompanyURL is the expected canonical identifier for the memo subject,
	// checked against the research corpus by the fact-check stage.
	companyURL string
	deckPath   string

	runID     string
	state     State
	durations map[string]string
	verbose   bool
}

// Params carries document identity into New.
type Params struct {
	Document   string
	Version    int
	Company    string
	CompanyURL string
	DeckPath   string
}

// New wires a pipeline from configuration. Providers are optional: a nil
// generalist provider limits the pipeline to mechanical stages, which is
// enough for consolidate/fact-check work over existing artifacts.
func New(repo store.Repository, outline *model.Outline, cfg *model.Config, generalist, search llm.Provider, params Params) *Pipeline {
	company := params.Company
	if company == "" {
		company = params.Document
	}
	return &Pipeline{
		repo:       repo,
		outline:    outline,
		cfg:        cfg,
		llm:        generalist,
		search:     search,
		links:      validate.NewLinkChecker(cfg.HTTP, cfg.Concurrency.ValidationWorkers),
		facts:      factcheck.NewChecker(cfg.FactCheck),
		renderer:   render.NewMarkdown(),
		document:   params.Document,
		version:    params.Version,
		company:    company,
		companyURL: params.CompanyURL,
		deckPath:   params.DeckPath,
		runID:      uuid.NewString(),
		durations:  make(map[string]string),
		verbose:    cfg.Output.Verbose,
	}
}

type stageEntry struct {
	stage model.Stage
	run   func(ctx context.Context) error
}

// stageTable maps every executable stage to its handler, in execution order.
func (p *Pipeline) stageTable() []stageEntry {
	return []stageEntry{
		{model.StageResearch, p.runResearch},
		{model.StageDraft, p.runDraft},
		{model.StageEnrichTrademark, p.runEnrichTrademark},
		{model.StageEnrichSocials, p.runEnrichSocials},
		{model.StageEnrichLinks, p.runEnrichLinks},
		{model.StageEnrichVisualizations, p.runEnrichVisualizations},
		{model.StageCite, p.runCite},
		{model.StageTOC, p.runTOC},
		{model.StageValidateCitations, p.runValidateCitations},
		{model.StageFactCheck, p.runFactCheck},
		{model.StageValidate, p.runValidate},
		{model.StageFinalize, p.runFinalize},
	}
}

// Execute runs stages from the given resume point through finalize. State
// produced by earlier stages is reconstructed from disk first; individual
// load failures are warnings, not fatal.
func (p *Pipeline) Execute(ctx context.Context, from model.Stage) error {
	if from == model.StageComplete {
		p.logf("document already complete, nothing to do")
		return nil
	}
	if from == model.StageStart {
		from = model.StageResearch
	}

	p.reconstructState(from)

	for _, entry := range p.stageTable() {
		if entry.stage < from {
			continue
		}
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: entry.stage, Err: err}
		}

		p.logf("stage %s: starting", entry.stage)
		started := time.Now()
		if err := entry.run(ctx); err != nil {
			if errors.Is(err, ErrHumanReview) {
				p.recordStage(entry.stage, started)
				return err
			}
			return &StageError{Stage: entry.stage, Err: err}
		}
		p.recordStage(entry.stage, started)
	}
	return nil
}

func (p *Pipeline) recordStage(stage model.Stage, started time.Time) {
	p.durations[stage.String()] = time.Since(started).Round(time.Millisecond).String()
	if err := p.writeStateSnapshot(stage); err != nil {
		p.logf("warning: write state snapshot: %v", err)
	}
	p.logf("stage %s: done in %s", stage, p.durations[stage.String()])
}

// writeStateSnapshot mirrors run progress for audit. It is never read back
// as the resume source of truth.
func (p *Pipeline) writeStateSnapshot(last model.Stage) error {
	return store.WriteJSON(p.repo, store.KindState, model.StateSnapshot{
		RunID:         p.runID,
		Document:      p.document,
		Version:       p.version,
		LastStage:     last.String(),
		UpdatedAt:     time.Now().UTC(),
		StageDuration: p.durations,
	})
}

// reconstructState replays artifacts a from-scratch run would have produced
// before the resume stage. Missing or malformed artifacts leave their state
// slot empty; downstream stages tolerate the gaps.
func (p *Pipeline) reconstructState(from model.Stage) {
	p.state = State{Sections: make(map[int]string)}

	var deck model.DeckAnalysis
	if err := store.ReadJSON(p.repo, store.KindDeckAnalysis, &deck); err == nil {
		p.state.Deck = &deck
		if p.companyURL == "" {
			p.companyURL = deck.CompanyURL
		}
	} else if from > model.StageResearch {
		p.logf("warning: deck analysis not loaded: %v", err)
	}

	var research model.Research
	if err := store.ReadJSON(p.repo, store.KindResearch, &research); err == nil {
		p.state.Research = &research
	} else if from > model.StageDraft {
		p.logf("warning: research not loaded: %v", err)
	}

	if sections, err := p.repo.ListSections(); err == nil {
		for _, s := range sections {
			p.state.Sections[s.Number] = s.Body
		}
	} else if from > model.StageDraft {
		p.logf("warning: sections not loaded: %v", err)
	}

	if data, err := p.repo.ReadArtifact(store.KindHeader); err == nil {
		p.state.Header = string(data)
	}
	if data, err := p.repo.ReadArtifact(store.KindFinalDraft); err == nil {
		p.state.Draft = string(data)
	} else if from > model.StageTOC {
		p.logf("warning: final draft not loaded: %v", err)
	}

	var validation model.Validation
	if err := store.ReadJSON(p.repo, store.KindValidation, &validation); err == nil {
		p.state.Validation = &validation
	}
	if p.state.Validation == nil {
		p.state.Validation = &model.Validation{}
	}
}

// Corpus serializes everything the research phase produced, for fact-check
// overlap matching.
func (p *Pipeline) corpus() string {
	var out string
	if p.state.Research != nil {
		for _, s := range p.outline.Sections {
			if topic, ok := p.state.Research.Topics[s.Slug]; ok {
				out += topic + "\n"
			}
		}
	}
	for _, s := range p.outline.Sections {
		if body, err := p.repo.ReadResearch(s.FileName()); err == nil {
			out += body + "\n"
		}
	}
	if p.state.Deck != nil {
		out += p.state.Deck.Summary + "\n"
	}
	return out
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
