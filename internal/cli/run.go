package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halcyonvc/memoforge/internal/checkpoint"
	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/pipeline"
	"github.com/halcyonvc/memoforge/internal/store"
)

var (
	runFirm       string
	runDeal       string
	runVersion    int
	runCompanyURL string
	runDeckPath   string
	runOutline    string
	runStrictness string
	runFrom       string
	runOutputDir  string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [document]",
	Short: "Generate an investment memo, resuming any prior progress",
	Long: `Run executes the memo pipeline for one document: research, section
drafting, enrichment, citation consolidation, link validation, fact
checking and finalization.

The starting stage is detected from the artifacts already on disk, so
re-running after an interruption continues where the previous run
stopped. Use --from to override detection and redo stages.

Examples:
  memoforge run acme --company-url https://acme.example
  memoforge run --firm "Acme Robotics" --deal "Series B" --deck deck.md
  memoforge run acme --from cite`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFirm, "firm", "", "firm name (alternative to the positional document name)")
	runCmd.Flags().StringVar(&runDeal, "deal", "", "deal name, appended to the firm name")
	runCmd.Flags().IntVar(&runVersion, "version-id", 1, "document version to operate on")
	runCmd.Flags().StringVar(&runCompanyURL, "company-url", "", "canonical company website, checked against research")
	runCmd.Flags().StringVar(&runDeckPath, "deck", "", "pitch deck file (.md/.txt contents, or a pre-built .json analysis)")
	runCmd.Flags().StringVar(&runOutline, "outline", "", "outline YAML file (default: built-in 12-section memo outline)")
	runCmd.Flags().StringVar(&runStrictness, "strictness", "", "fact-check strictness: low, medium or high")
	runCmd.Flags().StringVar(&runFrom, "from", "", "force the starting stage instead of detecting it")
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", "", "base directory for document artifacts")
}

func runRun(cmd *cobra.Command, args []string) error {
	document, err := documentName(args, runFirm, runDeal)
	if err != nil {
		return err
	}
	return executeDocument(cmd, document, false)
}

// executeDocument is the shared body of run and resume.
func executeDocument(cmd *cobra.Command, document string, resumeOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runOutputDir != "" {
		cfg.Output.BaseDir = runOutputDir
	}
	if runStrictness != "" {
		switch runStrictness {
		case "low", "medium", "high":
			cfg.FactCheck.Strictness = runStrictness
		default:
			return fmt.Errorf("invalid strictness %q (want low, medium or high)", runStrictness)
		}
	}

	outline, err := loadOutline(runOutline)
	if err != nil {
		return err
	}

	repo, err := store.OpenFS(cfg.Output.BaseDir, document, runVersion)
	if err != nil {
		return err
	}

	snap, err := repo.Snapshot()
	if err != nil {
		return err
	}
	from := checkpoint.Detect(snap, outline)
	if resumeOnly && from == model.StageStart {
		return fmt.Errorf("nothing to resume for %q version %d; use 'memoforge run'", document, runVersion)
	}
	if runFrom != "" {
		from, err = model.StageFromName(runFrom)
		if err != nil {
			return err
		}
	}
	if from == model.StageComplete {
		fmt.Printf("Document %q version %d is already complete.\n", document, runVersion)
		return nil
	}

	generalist, err := buildProvider(cfg.LLM, cfg)
	if err != nil {
		return fmt.Errorf("generalist provider: %w", err)
	}
	search, err := buildProvider(cfg.Search, cfg)
	if err != nil {
		return fmt.Errorf("search provider: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Document: %s (version %d)\n", document, runVersion)
		fmt.Fprintf(os.Stderr, "Artifacts: %s\n", repo.Root())
		fmt.Fprintf(os.Stderr, "Starting stage: %s\n\n", from)
	}

	p := pipeline.New(repo, outline, cfg, generalist, search, pipeline.Params{
		Document:   document,
		Version:    runVersion,
		Company:    firmDisplayName(document),
		CompanyURL: runCompanyURL,
		DeckPath:   runDeckPath,
	})

	err = p.Execute(cmd.Context(), from)
	switch {
	case errors.Is(err, pipeline.ErrHumanReview):
		fmt.Printf("Document %q held for human review: %v\n", document, err)
		fmt.Printf("Inspect %s and re-run after edits.\n", repo.Root())
		return nil
	case err != nil:
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			return fmt.Errorf("%w\nCompleted stages are saved; 'memoforge resume %s' continues from %s",
				stageErr, document, stageErr.Stage)
		}
		return err
	}

	fmt.Printf("✓ Memo finalized: %s\n", repo.Root())
	return nil
}

func loadOutline(path string) (*model.Outline, error) {
	if path == "" {
		return model.DefaultOutline(), nil
	}
	return model.LoadOutline(path)
}

// firmDisplayName undoes just enough slugification for prompts and headers.
func firmDisplayName(document string) string {
	words := strings.Split(document, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
