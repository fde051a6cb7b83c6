// Package store abstracts the per-document artifact tree. The artifact set
// is the single source of pipeline truth: there is no separate progress
// record, so checkpoint detection is a pure function over a Snapshot.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/halcyonvc/memoforge/internal/model"
)

// ArtifactKind names one persisted artifact of a document instance
type ArtifactKind string

const (
	KindDeckAnalysis ArtifactKind = "deck_analysis"
	KindResearch     ArtifactKind = "research"
	KindHeader       ArtifactKind = "header"
	KindValidation   ArtifactKind = "validation"
	KindFinalDraft   ArtifactKind = "final_draft"
	KindFinalMemo    ArtifactKind = "final_memo"
	KindState        ArtifactKind = "state"
	KindExportHTML   ArtifactKind = "export_html"
)

// fileNames maps artifact kinds to their on-disk names.
var fileNames = map[ArtifactKind]string{
	KindDeckAnalysis: "deck_analysis.json",
	KindResearch:     "research.json",
	KindHeader:       "header.md",
	KindValidation:   "validation.json",
	KindFinalDraft:   "final_draft.md",
	KindFinalMemo:    "final_memo.md",
	KindState:        "state.json",
	KindExportHTML:   "final_memo.html",
}

// ErrNotFound is returned when an artifact does not exist or is not
// well-formed. A file truncated mid-write by a crash is indistinguishable
// from a missing one on purpose: that is what makes resume safe.
var ErrNotFound = errors.New("artifact not found")

// minJSONArtifactBytes guards against files truncated mid-write; anything
// smaller cannot be a meaningful JSON artifact.
const minJSONArtifactBytes = 16

// SectionFile is one memo section as stored on disk
type SectionFile struct {
	Number int
	Name   string // file name, e.g. "03-market-opportunity.md"
	Body   string
}

// Repository is the artifact storage for one document instance
type Repository interface {
	// ReadArtifact returns the raw artifact bytes, or ErrNotFound.
	ReadArtifact(kind ArtifactKind) ([]byte, error)
	// WriteArtifact durably writes the artifact (atomic replace).
	WriteArtifact(kind ArtifactKind, data []byte) error

	// ListSections returns all section files in number order.
	ListSections() ([]SectionFile, error)
	// WriteSection writes one section file.
	WriteSection(name string, body string) error
	// ReadSection reads one section file by name, or ErrNotFound.
	ReadSection(name string) (string, error)

	// ReadResearch and WriteResearch handle per-section research files.
	ReadResearch(name string) (string, error)
	WriteResearch(name string, body string) error

	// Snapshot reads the whole artifact set at once for checkpoint
	// detection.
	Snapshot() (*Snapshot, error)
}

// Snapshot is a batch read of everything checkpoint detection needs
type Snapshot struct {
	FinalMemoSize   int
	FinalDraft      string // empty if absent
	Validation      *model.Validation
	Sections        []SectionFile
	HeaderPresent   bool
	ResearchPresent bool
	DeckPresent     bool
}

// ReadJSON reads and decodes a JSON artifact. Artifacts below the minimum
// size or failing to parse are reported as ErrNotFound, never as fatal.
func ReadJSON(r Repository, kind ArtifactKind, v any) error {
	data, err := r.ReadArtifact(kind)
	if err != nil {
		return err
	}
	if len(data) < minJSONArtifactBytes {
		return fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	return nil
}

// WriteJSON encodes and writes a JSON artifact with stable indentation.
func WriteJSON(r Repository, kind ArtifactKind, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	return r.WriteArtifact(kind, append(data, '\n'))
}
