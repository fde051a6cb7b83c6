package checkpoint

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/store"
)

func writeAllSections(t *testing.T, repo *store.Memory, outline *model.Outline, body func(model.OutlineSection) string) {
	t.Helper()
	for _, s := range outline.Sections {
		if err := repo.WriteSection(s.FileName(), body(s)); err != nil {
			t.Fatalf("write section: %v", err)
		}
	}
}

func plainBody(s model.OutlineSection) string {
	return fmt.Sprintf("## %s\n\nSome prose about %s.\n", s.Name, s.Slug)
}

func snapshot(t *testing.T, repo *store.Memory) *store.Snapshot {
	t.Helper()
	snap, err := repo.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func TestDetect_EmptyDirectory(t *testing.T) {
	repo := store.NewMemory()
	if got := Detect(snapshot(t, repo), model.DefaultOutline()); got != model.StageStart {
		t.Errorf("expected start, got %s", got)
	}
}

func TestDetect_DeckOnly(t *testing.T) {
	repo := store.NewMemory()
	deck := model.DeckAnalysis{Company: "Acme Robotics", AnalyzedAt: time.Now()}
	if err := store.WriteJSON(repo, store.KindDeckAnalysis, deck); err != nil {
		t.Fatal(err)
	}
	if got := Detect(snapshot(t, repo), model.DefaultOutline()); got != model.StageResearch {
		t.Errorf("expected research, got %s", got)
	}
}

func TestDetect_ResearchPresent(t *testing.T) {
	repo := store.NewMemory()
	research := model.Research{Company: "Acme", Topics: map[string]string{"market": "..."}, FetchedAt: time.Now()}
	if err := store.WriteJSON(repo, store.KindResearch, research); err != nil {
		t.Fatal(err)
	}
	if got := Detect(snapshot(t, repo), model.DefaultOutline()); got != model.StageDraft {
		t.Errorf("expected draft, got %s", got)
	}
}

func TestDetect_PartialSections(t *testing.T) {
	repo := store.NewMemory()
	outline := model.DefaultOutline()
	for _, s := range outline.Sections[:3] {
		_ = repo.WriteSection(s.FileName(), plainBody(s))
	}
	if got := Detect(snapshot(t, repo), outline); got != model.StageDraft {
		t.Errorf("expected draft for partial section set, got %s", got)
	}
}

func TestDetect_AllSectionsNoEnrichment(t *testing.T) {
	repo := store.NewMemory()
	outline := model.DefaultOutline()
	writeAllSections(t, repo, outline, plainBody)

	if got := Detect(snapshot(t, repo), outline); got != model.StageEnrichTrademark {
		t.Errorf("expected enrich_trademark, got %s", got)
	}
}

func TestDetect_HeaderPresent(t *testing.T) {
	repo := store.NewMemory()
	outline := model.DefaultOutline()
	writeAllSections(t, repo, outline, plainBody)
	_ = repo.WriteArtifact(store.KindHeader, []byte("![logo](assets/logo.png)\n"))

	if got := Detect(snapshot(t, repo), outline); got != model.StageEnrichSocials {
		t.Errorf("expected enrich_socials, got %s", got)
	}
}

func TestDetect_TeamProfileLinks(t *testing.T) {
	repo := store.NewMemory()
	outline := model.DefaultOutline()
	writeAllSections(t, repo, outline, func(s model.OutlineSection) string {
		if s.Slug == "team" {
			return "## Team\n\nJane Doe ([LinkedIn](https://www.linkedin.com/in/janedoe)) founded the company.\n"
		}
		return plainBody(s)
	})
	_ = repo.WriteArtifact(store.KindHeader, []byte("![logo](assets/logo.png)\n"))

	// The team section's profile link is itself an uncited hyperlink, but
	// it is outside the early-middle sample, so the socials signal governs.
	if got := Detect(snapshot(t, repo), outline); got != model.StageEnrichLinks {
		t.Errorf("expected enrich_links, got %s", got)
	}
}

func TestDetect_UncitedLinksMeanCiteIsNext(t *testing.T) {
	repo := store.NewMemory()
	outline := model.DefaultOutline()
	writeAllSections(t, repo, outline, func(s model.OutlineSection) string {
		if s.Number == 3 {
			return "## Market\n\nSee [the Gartner forecast](https://gartner.com/f) for detail.\n"
		}
		return plainBody(s)
	})

	if got := Detect(snapshot(t, repo), outline); got != model.StageCite {
		t.Errorf("expected cite, got %s", got)
	}
}

func TestDetect_CitedLinkDoesNotTriggerCite(t *testing.T) {
	if hasUncitedLink("Growth is strong.[^1] [source](https://x.com/a)") {
		t.Error("link immediately preceded by a marker should not count as uncited")
	}
	if !hasUncitedLink("Growth is strong. [source](https://x.com/a)") {
		t.Error("bare link should count as uncited")
	}
}

func TestDetect_FinalDraftWithoutTOC(t *testing.T) {
	repo := store.NewMemory()
	outline := model.DefaultOutline()
	draft := "# Acme Memo\n\n" + strings.Repeat("Body text with a citation.[^1] ", 40) +
		"\n\n### Citations\n\n[^1]: Source\n"
	_ = repo.WriteArtifact(store.KindFinalDraft, []byte(draft))

	if got := Detect(snapshot(t, repo), outline); got != model.StageTOC {
		t.Errorf("expected toc, got %s", got)
	}
}

func TestDetect_FinalDraftWithTOC(t *testing.T) {
	repo := store.NewMemory()
	outline := model.DefaultOutline()
	draft := "# Acme Memo\n\n## Table of Contents\n\n1. [Executive Summary](#executive-summary)\n\n" +
		strings.Repeat("Body text with a citation.[^1] ", 40) +
		"\n\n### Citations\n\n[^1]: Source\n"
	_ = repo.WriteArtifact(store.KindFinalDraft, []byte(draft))

	if got := Detect(snapshot(t, repo), outline); got != model.StageValidateCitations {
		t.Errorf("expected validate_citations, got %s", got)
	}
}

func TestDetect_ValidationProgression(t *testing.T) {
	outline := model.DefaultOutline()
	score := 8.6

	cases := []struct {
		name       string
		validation model.Validation
		want       model.Stage
	}{
		{
			name:       "citation checks only",
			validation: model.Validation{CitationChecks: []model.LinkCheck{{URL: "https://x.com", IsAccessible: true}}},
			want:       model.StageFactCheck,
		},
		{
			name: "fact check done, no score",
			validation: model.Validation{
				CitationChecks: []model.LinkCheck{{URL: "https://x.com", IsAccessible: true}},
				FactCheck:      &model.DocumentFactCheck{Score: 0.9},
			},
			want: model.StageValidate,
		},
		{
			name: "overall score present",
			validation: model.Validation{
				FactCheck:    &model.DocumentFactCheck{Score: 0.9},
				OverallScore: &score,
			},
			want: model.StageFinalize,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := store.NewMemory()
			if err := store.WriteJSON(repo, store.KindValidation, tc.validation); err != nil {
				t.Fatal(err)
			}
			if got := Detect(snapshot(t, repo), outline); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDetect_CompleteMemo(t *testing.T) {
	repo := store.NewMemory()
	memo := strings.Repeat("Final memo content. ", 20)
	_ = repo.WriteArtifact(store.KindFinalMemo, []byte(memo))

	if got := Detect(snapshot(t, repo), model.DefaultOutline()); got != model.StageComplete {
		t.Errorf("expected complete, got %s", got)
	}
}

func TestDetect_TruncatedArtifactTreatedAsMissing(t *testing.T) {
	repo := store.NewMemory()
	// A file truncated to 3 bytes by a crash mid-write.
	_ = repo.WriteArtifact(store.KindValidation, []byte(`{"`))
	_ = repo.WriteArtifact(store.KindResearch, []byte(`{"`))

	if got := Detect(snapshot(t, repo), model.DefaultOutline()); got != model.StageStart {
		t.Errorf("truncated artifacts must be treated as absent, got %s", got)
	}
}
