package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halcyonvc/memoforge/internal/factcheck"
	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/store"
)

var (
	factcheckVersion    int
	factcheckOutline    string
	factcheckOutput     string
	factcheckStrictness string
	factcheckCompanyURL string
	factcheckClaims     bool
)

// factcheckCmd represents the factcheck command
var factcheckCmd = &cobra.Command{
	Use:   "factcheck <document>",
	Short: "Score drafted sections against the research record",
	Long: `Factcheck extracts factual claims from the drafted sections of a
document and verifies each one against the research corpus gathered for
it: cited claims are verified, uncited claims with corpus support need a
source, and uncited claims without support are flagged by risk.

It reads existing artifacts only and makes no network or LLM calls.`,
	Args: cobra.ExactArgs(1),
	RunE: runFactcheck,
}

func init() {
	rootCmd.AddCommand(factcheckCmd)

	factcheckCmd.Flags().IntVar(&factcheckVersion, "version-id", 1, "document version to inspect")
	factcheckCmd.Flags().StringVar(&factcheckOutline, "outline", "", "outline YAML file (default: built-in 12-section memo outline)")
	factcheckCmd.Flags().StringVarP(&factcheckOutput, "output", "o", "", "base directory for document artifacts")
	factcheckCmd.Flags().StringVar(&factcheckStrictness, "strictness", "", "fact-check strictness: low, medium or high")
	factcheckCmd.Flags().StringVar(&factcheckCompanyURL, "company-url", "", "expected company website, checked against research")
	factcheckCmd.Flags().BoolVar(&factcheckClaims, "claims", false, "list every claim with its verdict")
}

func runFactcheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if factcheckOutput != "" {
		cfg.Output.BaseDir = factcheckOutput
	}
	if factcheckStrictness != "" {
		cfg.FactCheck.Strictness = factcheckStrictness
	}
	outline, err := loadOutline(factcheckOutline)
	if err != nil {
		return err
	}

	document := slugify(args[0])
	repo, err := store.OpenFS(cfg.Output.BaseDir, document, factcheckVersion)
	if err != nil {
		return err
	}

	sectionFiles, err := repo.ListSections()
	if err != nil {
		return err
	}
	if len(sectionFiles) == 0 {
		return fmt.Errorf("no drafted sections for %q version %d", document, factcheckVersion)
	}

	var corpus strings.Builder
	var research model.Research
	if err := store.ReadJSON(repo, store.KindResearch, &research); err == nil {
		for _, s := range outline.Sections {
			if topic, ok := research.Topics[s.Slug]; ok {
				corpus.WriteString(topic)
				corpus.WriteString("\n")
			}
		}
	}
	for _, s := range outline.Sections {
		if body, err := repo.ReadResearch(s.FileName()); err == nil {
			corpus.WriteString(body)
			corpus.WriteString("\n")
		}
	}
	var deck model.DeckAnalysis
	if err := store.ReadJSON(repo, store.KindDeckAnalysis, &deck); err == nil {
		corpus.WriteString(deck.Summary)
	}

	sections := make(map[int]factcheck.Section, len(sectionFiles))
	names := make(map[int]string)
	for _, s := range outline.Sections {
		names[s.Number] = s.Name
	}
	for _, sf := range sectionFiles {
		sections[sf.Number] = factcheck.Section{Name: names[sf.Number], Body: sf.Body}
	}

	checker := factcheck.NewChecker(cfg.FactCheck)
	result := checker.CheckDocument(sections, corpus.String(), factcheckCompanyURL, research.CompanyURL)

	if result.EntityMismatch {
		fmt.Printf("ENTITY MISMATCH: expected %s, research describes %s\n\n",
			result.ExpectedEntity, result.CorpusEntity)
	}
	fmt.Printf("Document: %s (version %d)\n", document, factcheckVersion)
	fmt.Printf("Fact score: %.2f (strictness %s, minimum section score %.1f)\n\n",
		result.Score, cfg.FactCheck.Strictness, cfg.FactCheck.MinScore())

	for _, sec := range result.Sections {
		flag := " "
		if sec.RequiresRewrite {
			flag = "!"
		}
		fmt.Printf("%s %2d %-28s %5.2f  (%d claims)\n", flag, sec.Section, sec.Name, sec.Score, len(sec.Claims))
		if !factcheckClaims {
			continue
		}
		for _, c := range sec.Claims {
			fmt.Printf("      [%s] %s: %s\n", c.Confidence, c.Type, truncate(c.Text, 80))
			if c.Action != model.ActionAccept {
				fmt.Printf("        action: %s (severity %s)\n", c.Action, c.Severity)
			}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
