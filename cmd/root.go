package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe - Multi-agent long-form document writer",
	Long: `Scribe runs a multi-agent writing pipeline over a markdown document:
a planner drafts the outline, writers fill in sections (in parallel when
the outline allows), two reviewers and an arbiter reach consensus on
quality, and a verifier checks that claims are anchored in the text.

Runs checkpoint after every pipeline step, so an interrupted run resumes
where it stopped.

Quick start:
  1. export OPENAI_API_KEY=...
  2. scribe run "写一篇关于分布式缓存一致性的技术长文" -f article.md
  3. scribe metrics`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
