package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyonvc/memoforge/internal/checkpoint"
	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/store"
)

var (
	statusVersion int
	statusOutline string
	statusOutput  string
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <document>",
	Short: "Show pipeline progress for a document",
	Long: `Status inspects the artifacts on disk and reports which stages have
completed and which stage a run would execute next. It never modifies
anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusVersion, "version-id", 1, "document version to inspect")
	statusCmd.Flags().StringVar(&statusOutline, "outline", "", "outline YAML file (default: built-in 12-section memo outline)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "", "base directory for document artifacts")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if statusOutput != "" {
		cfg.Output.BaseDir = statusOutput
	}
	outline, err := loadOutline(statusOutline)
	if err != nil {
		return err
	}

	document := slugify(args[0])
	repo, err := store.OpenFS(cfg.Output.BaseDir, document, statusVersion)
	if err != nil {
		return err
	}
	snap, err := repo.Snapshot()
	if err != nil {
		return err
	}

	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "·"
	}

	fmt.Printf("Document: %s (version %d)\n", document, statusVersion)
	fmt.Printf("Artifacts: %s\n\n", repo.Root())
	fmt.Printf("  %s deck analysis\n", mark(snap.DeckPresent))
	fmt.Printf("  %s research\n", mark(snap.ResearchPresent))
	fmt.Printf("  %s sections (%d of %d)\n", mark(len(snap.Sections) >= outline.Count()), len(snap.Sections), outline.Count())
	fmt.Printf("  %s header\n", mark(snap.HeaderPresent))
	fmt.Printf("  %s final draft\n", mark(snap.FinalDraft != ""))
	if v := snap.Validation; v != nil {
		fmt.Printf("  %s citation checks (%d URLs)\n", mark(len(v.CitationChecks) > 0), len(v.CitationChecks))
		fmt.Printf("  %s fact check\n", mark(v.FactCheck != nil))
		if v.OverallScore != nil {
			fmt.Printf("  %s overall score: %.1f/10\n", mark(true), *v.OverallScore)
		} else {
			fmt.Printf("  %s overall score\n", mark(false))
		}
	} else {
		fmt.Printf("  %s validation\n", mark(false))
	}
	fmt.Printf("  %s final memo\n\n", mark(snap.FinalMemoSize > 0))

	next := checkpoint.Detect(snap, outline)
	switch next {
	case model.StageComplete:
		fmt.Println("Status: complete")
	case model.StageStart:
		fmt.Println("Status: not started ('memoforge run' begins with research)")
	default:
		fmt.Printf("Status: next stage is %s ('memoforge resume %s' continues)\n", next, document)
	}
	return nil
}
