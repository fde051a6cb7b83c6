package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/halcyonvc/memoforge/internal/model"
)

const (
	sectionsDir = "sections"
	researchDir = "research"
)

var (
	sectionFileRe = regexp.MustCompile(`^(\d{2})-[a-z0-9-]+\.md$`)
	versionDirRe  = regexp.MustCompile(`^v(\d+)$`)
)

// FS is a filesystem-backed repository rooted at one versioned document
// directory, e.g. memos/acme-robotics/v2.
type FS struct {
	root    string
	version int
}

// OpenFS opens (creating if needed) the artifact directory for a document.
// version <= 0 selects the latest existing version, or v1 when none exist.
func OpenFS(baseDir, document string, version int) (*FS, error) {
	docDir := filepath.Join(baseDir, document)
	if version <= 0 {
		latest, err := latestVersion(docDir)
		if err != nil {
			return nil, err
		}
		version = latest
	}

	root := filepath.Join(docDir, fmt.Sprintf("v%d", version))
	for _, dir := range []string{root, filepath.Join(root, sectionsDir), filepath.Join(root, researchDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &FS{root: root, version: version}, nil
}

// NewVersionFS creates the next version directory for a document.
func NewVersionFS(baseDir, document string) (*FS, error) {
	docDir := filepath.Join(baseDir, document)
	latest, err := latestVersion(docDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(docDir, fmt.Sprintf("v%d", latest))); err == nil {
		latest++
	}
	return OpenFS(baseDir, document, latest)
}

func latestVersion(docDir string) (int, error) {
	entries, err := os.ReadDir(docDir)
	if os.IsNotExist(err) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read document dir: %w", err)
	}
	latest := 1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if m := versionDirRe.FindStringSubmatch(e.Name()); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && v > latest {
				latest = v
			}
		}
	}
	return latest, nil
}

// Root returns the version directory this repository reads and writes.
func (f *FS) Root() string {
	return f.root
}

// Version returns the snapshot version number this repository is bound to.
func (f *FS) Version() int {
	return f.version
}

func (f *FS) ReadArtifact(kind ArtifactKind) ([]byte, error) {
	name, ok := fileNames[kind]
	if !ok {
		return nil, fmt.Errorf("unknown artifact kind: %s", kind)
	}
	data, err := os.ReadFile(filepath.Join(f.root, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	return data, nil
}

func (f *FS) WriteArtifact(kind ArtifactKind, data []byte) error {
	name, ok := fileNames[kind]
	if !ok {
		return fmt.Errorf("unknown artifact kind: %s", kind)
	}
	return atomicWrite(filepath.Join(f.root, name), data)
}

func (f *FS) ListSections() ([]SectionFile, error) {
	dir := filepath.Join(f.root, sectionsDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sections dir: %w", err)
	}

	var sections []SectionFile
	for _, e := range entries {
		m := sectionFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		number, _ := strconv.Atoi(m[1])
		body, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read section %s: %w", e.Name(), err)
		}
		sections = append(sections, SectionFile{Number: number, Name: e.Name(), Body: string(body)})
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Number < sections[j].Number })
	return sections, nil
}

func (f *FS) WriteSection(name, body string) error {
	return atomicWrite(filepath.Join(f.root, sectionsDir, name), []byte(body))
}

func (f *FS) ReadSection(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.root, sectionsDir, name))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("section %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read section %s: %w", name, err)
	}
	return string(data), nil
}

func (f *FS) ReadResearch(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.root, researchDir, name))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("research %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read research %s: %w", name, err)
	}
	return string(data), nil
}

func (f *FS) WriteResearch(name, body string) error {
	return atomicWrite(filepath.Join(f.root, researchDir, name), []byte(body))
}

func (f *FS) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{}

	if data, err := f.ReadArtifact(KindFinalMemo); err == nil {
		snap.FinalMemoSize = len(data)
	}
	if data, err := f.ReadArtifact(KindFinalDraft); err == nil {
		snap.FinalDraft = string(data)
	}

	var validation model.Validation
	if err := ReadJSON(f, KindValidation, &validation); err == nil {
		snap.Validation = &validation
	}

	sections, err := f.ListSections()
	if err != nil {
		return nil, err
	}
	snap.Sections = sections

	if _, err := f.ReadArtifact(KindHeader); err == nil {
		snap.HeaderPresent = true
	}
	var research model.Research
	if err := ReadJSON(f, KindResearch, &research); err == nil {
		snap.ResearchPresent = true
	}
	var deck model.DeckAnalysis
	if err := ReadJSON(f, KindDeckAnalysis, &deck); err == nil {
		snap.DeckPresent = true
	}

	return snap, nil
}

// atomicWrite writes data to a temp file and renames it into place so a
// crash can never leave a half-written artifact under the final name.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SlugFromFileName strips the numeric prefix and extension from a section
// file name.
func SlugFromFileName(name string) string {
	base := strings.TrimSuffix(name, ".md")
	if i := strings.Index(base, "-"); i >= 0 {
		return base[i+1:]
	}
	return base
}
