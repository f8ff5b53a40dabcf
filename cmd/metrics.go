package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scribeworks/scribe/internal/config"
	"github.com/scribeworks/scribe/internal/metrics"
)

var metricsLimit int

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show recent run history and trend summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(workDir)
		if err != nil {
			return err
		}
		history, err := metrics.OpenHistory(filepath.Join(cfg.Dir, config.ScribeDir, "history.db"), cfg.HistoryLimit)
		if err != nil {
			return err
		}
		defer history.Close()

		records, err := history.Recent(metricsLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no finished runs yet")
			return nil
		}

		fmt.Printf("%-10s %-20s %8s %7s %6s %6s %s\n",
			"run", "finished", "sections", "rounds", "score", "tools", "gate")
		for _, r := range records {
			gate := "fail"
			if r.QualityGatePassed {
				gate = "pass"
			}
			fmt.Printf("%-10s %-20s %8d %7d %6d %6d %s\n",
				shortID(r.RunID), r.FinishedAt.Format("2006-01-02 15:04:05"),
				r.TotalSections, r.ReviewRounds, r.FinalReviewScore, r.ToolCalls, gate)
		}

		s := metrics.Summarize(records)
		fmt.Printf("\n%d runs  pass rate %.0f%%  avg rounds %.1f  avg score %.1f  avg duration %.0fs\n",
			s.Runs, s.PassRate*100, s.AvgReviewRounds, s.AvgFinalScore, s.AvgDurationSeconds)
		return nil
	},
}

func init() {
	metricsCmd.Flags().IntVarP(&metricsLimit, "limit", "n", 10, "Number of runs to show")
	metricsCmd.Flags().StringVar(&workDir, "dir", ".", "Project directory holding .scribe/")
	rootCmd.AddCommand(metricsCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
