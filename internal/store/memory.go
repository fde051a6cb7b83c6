package store

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/halcyonvc/memoforge/internal/model"
)

// Memory is an in-memory repository for tests and dry runs.
type Memory struct {
	mu        sync.RWMutex
	artifacts map[ArtifactKind][]byte
	sections  map[string]string
	research  map[string]string
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		artifacts: make(map[ArtifactKind][]byte),
		sections:  make(map[string]string),
		research:  make(map[string]string),
	}
}

func (m *Memory) ReadArtifact(kind ArtifactKind) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.artifacts[kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	return data, nil
}

func (m *Memory) WriteArtifact(kind ArtifactKind, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[kind] = data
	return nil
}

func (m *Memory) ListSections() ([]SectionFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sections []SectionFile
	for name, body := range m.sections {
		mm := sectionFileRe.FindStringSubmatch(name)
		if mm == nil {
			continue
		}
		number, _ := strconv.Atoi(mm[1])
		sections = append(sections, SectionFile{Number: number, Name: name, Body: body})
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Number < sections[j].Number })
	return sections, nil
}

func (m *Memory) WriteSection(name, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[name] = body
	return nil
}

func (m *Memory) ReadSection(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.sections[name]
	if !ok {
		return "", fmt.Errorf("section %s: %w", name, ErrNotFound)
	}
	return body, nil
}

func (m *Memory) ReadResearch(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.research[name]
	if !ok {
		return "", fmt.Errorf("research %s: %w", name, ErrNotFound)
	}
	return body, nil
}

func (m *Memory) WriteResearch(name, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.research[name] = body
	return nil
}

func (m *Memory) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{}

	if data, err := m.ReadArtifact(KindFinalMemo); err == nil {
		snap.FinalMemoSize = len(data)
	}
	if data, err := m.ReadArtifact(KindFinalDraft); err == nil {
		snap.FinalDraft = string(data)
	}

	var validation model.Validation
	if err := ReadJSON(m, KindValidation, &validation); err == nil {
		snap.Validation = &validation
	}

	sections, err := m.ListSections()
	if err != nil {
		return nil, err
	}
	snap.Sections = sections

	if _, err := m.ReadArtifact(KindHeader); err == nil {
		snap.HeaderPresent = true
	}
	var research model.Research
	if err := ReadJSON(m, KindResearch, &research); err == nil {
		snap.ResearchPresent = true
	}
	var deck model.DeckAnalysis
	if err := ReadJSON(m, KindDeckAnalysis, &deck); err == nil {
		snap.DeckPresent = true
	}

	return snap, nil
}
