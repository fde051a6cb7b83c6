package cli

import (
	"github.com/spf13/cobra"
)

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume [document]",
	Short: "Continue an interrupted memo run from its detected checkpoint",
	Long: `Resume detects how far a previous run got from the artifacts on disk
and continues from the next stage. It refuses to start a document from
scratch; use "memoforge run" for that.

Example:
  memoforge resume acme-robotics-series-b`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		document, err := documentName(args, runFirm, runDeal)
		if err != nil {
			return err
		}
		return executeDocument(cmd, document, true)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringVar(&runFirm, "firm", "", "firm name (alternative to the positional document name)")
	resumeCmd.Flags().StringVar(&runDeal, "deal", "", "deal name, appended to the firm name")
	resumeCmd.Flags().IntVar(&runVersion, "version-id", 1, "document version to operate on")
	resumeCmd.Flags().StringVar(&runCompanyURL, "company-url", "", "canonical company website, checked against research")
	resumeCmd.Flags().StringVar(&runOutline, "outline", "", "outline YAML file (default: built-in 12-section memo outline)")
	resumeCmd.Flags().StringVar(&runStrictness, "strictness", "", "fact-check strictness: low, medium or high")
	resumeCmd.Flags().StringVarP(&runOutputDir, "output", "o", "", "base directory for document artifacts")
}
