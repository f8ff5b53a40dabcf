package cmd

import (
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the last unfinished run",
	Long: `Resume the last unfinished run from its checkpoint, regardless of the
original requirement text. Equivalent to: scribe run --resume ""`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		forceResume = true
		return runRun(cmd, []string{""})
	},
}

func init() {
	resumeCmd.Flags().StringVarP(&docPath, "file", "f", "document.md", "Target markdown document")
	resumeCmd.Flags().BoolVarP(&autoConfirm, "yes", "y", false, "Accept the planned outline without prompting")
	resumeCmd.Flags().StringVar(&workDir, "dir", ".", "Project directory holding .scribe/")

	rootCmd.AddCommand(resumeCmd)
}
