package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyonvc/memoforge/internal/citations"
)

var (
	consolidateOut    string
	consolidateDedupe bool
	consolidateReport bool
)

// consolidateCmd represents the consolidate command
var consolidateCmd = &cobra.Command{
	Use:   "consolidate <file>",
	Short: "Merge per-section citation blocks into one renumbered block",
	Long: `Consolidate reads a markdown document whose sections each carry their
own "### Citations" block and rewrites it with a single consolidated
block at the end: markers renumbered 1..K in order of first appearance,
duplicate sources merged, every definition annotated with the sections
that cite it.

Running it on an already-consolidated document changes nothing.

Pass "-" to read from stdin.

Examples:
  memoforge consolidate draft.md -o final.md
  cat draft.md | memoforge consolidate - --no-dedupe`,
	Args: cobra.ExactArgs(1),
	RunE: runConsolidate,
}

func init() {
	rootCmd.AddCommand(consolidateCmd)

	consolidateCmd.Flags().StringVarP(&consolidateOut, "out", "o", "", "output path (default: stdout)")
	consolidateCmd.Flags().BoolVar(&consolidateDedupe, "dedupe", true, "merge definitions with identical source text")
	consolidateCmd.Flags().BoolVar(&consolidateReport, "report", false, "print a JSON consolidation report to stderr")
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}

	result := citations.Consolidate(string(data), citations.Options{Dedupe: consolidateDedupe})

	for _, label := range result.Dangling {
		fmt.Fprintf(os.Stderr, "warning: marker [^%s] has no definition\n", label)
	}
	if consolidateReport {
		report, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, string(report))
	}

	if consolidateOut == "" {
		_, err = os.Stdout.WriteString(result.Output)
		return err
	}
	return os.WriteFile(consolidateOut, []byte(result.Output), 0o644)
}
