package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyonvc/memoforge/internal/validate"
)

var (
	linksWorkers int
	linksStale   bool
)

// validateLinksCmd represents the validate-links command
var validateLinksCmd = &cobra.Command{
	Use:   "validate-links <file>",
	Short: "Probe every URL cited by a markdown document",
	Long: `Validate-links extracts the URLs from a document's citation
definitions and probes each one: dead links (404/410), redirects and
sources older than a year are reported. Hosts are probed politely, with
robots.txt respected and per-host rate limiting.

Example:
  memoforge validate-links memos/acme/v1/final_draft.md`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateLinks,
}

func init() {
	rootCmd.AddCommand(validateLinksCmd)

	validateLinksCmd.Flags().IntVar(&linksWorkers, "workers", 0, "concurrent probes (default from config)")
	validateLinksCmd.Flags().BoolVar(&linksStale, "stale", false, "also list stale sources, not just broken ones")
}

func runValidateLinks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workers := cfg.Concurrency.ValidationWorkers
	if linksWorkers > 0 {
		workers = linksWorkers
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	urls := validate.CitedURLs(string(data))
	if len(urls) == 0 {
		fmt.Println("No cited URLs found.")
		return nil
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Probing %d URLs with %d workers\n", len(urls), workers)
	}

	checker := validate.NewLinkChecker(cfg.HTTP, workers)
	checks := checker.CheckAll(cmd.Context(), urls)

	broken := 0
	for _, c := range checks {
		switch {
		case c.Skipped:
			fmt.Printf("SKIP  %s (robots.txt)\n", c.URL)
		case c.IsDead:
			broken++
			fmt.Printf("DEAD  %s (%d) %s\n", c.URL, c.StatusCode, c.Error)
		case !c.IsAccessible:
			broken++
			fmt.Printf("FAIL  %s (%d) %s\n", c.URL, c.StatusCode, c.Error)
		case c.RedirectURL != "":
			fmt.Printf("MOVED %s -> %s\n", c.URL, c.RedirectURL)
		case c.IsStale && linksStale:
			age := 0
			if c.AgeDays != nil {
				age = *c.AgeDays
			}
			fmt.Printf("STALE %s (%d days old)\n", c.URL, age)
		case verbose:
			fmt.Printf("OK    %s\n", c.URL)
		}
	}

	fmt.Printf("\n%d URLs checked, %d broken\n", len(checks), broken)
	if broken > 0 {
		return fmt.Errorf("%d broken citation links", broken)
	}
	return nil
}
