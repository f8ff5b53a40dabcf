package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribeworks/scribe/internal/agents"
	"github.com/scribeworks/scribe/internal/checkpoint"
	"github.com/scribeworks/scribe/internal/config"
	"github.com/scribeworks/scribe/internal/display"
	"github.com/scribeworks/scribe/internal/docfile"
	"github.com/scribeworks/scribe/internal/metrics"
	"github.com/scribeworks/scribe/internal/outline"
	"github.com/scribeworks/scribe/internal/pipeline"
	"github.com/scribeworks/scribe/internal/retry"
	"github.com/scribeworks/scribe/internal/tools"
)

// Run command flags
var (
	docPath     string
	forceResume bool
	autoConfirm bool
	workDir     string
)

var runCmd = &cobra.Command{
	Use:   "run <requirement>",
	Short: "Run the writing pipeline for a requirement",
	Long: `Run the full pipeline: plan an outline, confirm it, write every
section, review to consensus, verify facts, and finalize.

The run checkpoints after every step under .scribe/. Starting scribe again
with the same requirement resumes an interrupted run; --resume resumes the
last run regardless of the requirement text.

Examples:
  scribe run "写一篇关于向量数据库选型的长文"
  scribe run "同上" -f report.md --yes
  scribe run --resume ""`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&docPath, "file", "f", "document.md", "Target markdown document")
	runCmd.Flags().BoolVar(&forceResume, "resume", false, "Resume the last unfinished run even if the requirement differs")
	runCmd.Flags().BoolVarP(&autoConfirm, "yes", "y", false, "Accept the planned outline without prompting")
	runCmd.Flags().StringVar(&workDir, "dir", ".", "Project directory holding .scribe/")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	request := strings.TrimSpace(args[0])
	if request == "" && !forceResume {
		return fmt.Errorf("requirement is empty; pass --resume to continue the last run")
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}

	doc, err := docfile.Open(filepath.Join(workDir, docPath))
	if err != nil {
		return fmt.Errorf("opening %s: %w", docPath, err)
	}

	disp := display.New(os.Stdout)
	runner := tools.NewRunner(doc, retry.Config{
		MaxRetries: retry.DefaultMaxRetries,
		BaseDelay:  retry.DefaultBaseDelay,
		OnRetry: func(delay time.Duration, attempt, max int) {
			disp.Retry(attempt, max, delay)
		},
	})

	pipe, history, err := buildPipeline(cfg, runner, disp)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		pipe.Cancel()
	}()

	err = pipe.Run(ctx, request, forceResume)
	if errors.Is(err, pipeline.ErrHalted) {
		return nil
	}
	return err
}

func buildPipeline(cfg *config.Config, runner *tools.Runner, disp *display.Display) (*pipeline.Pipeline, *metrics.History, error) {
	plannerClient, plannerOpts, err := clientFor(cfg, config.RolePlanner)
	if err != nil {
		return nil, nil, err
	}
	writerClient, writerOpts, err := clientFor(cfg, config.RoleWriter)
	if err != nil {
		return nil, nil, err
	}
	reviewerClient, reviewerOpts, err := clientFor(cfg, config.RoleReviewer)
	if err != nil {
		return nil, nil, err
	}
	criticClient, criticOpts, err := clientFor(cfg, config.RoleCritic)
	if err != nil {
		return nil, nil, err
	}
	arbiterClient, arbiterOpts, err := clientFor(cfg, config.RoleArbiter)
	if err != nil {
		return nil, nil, err
	}
	verifierClient, verifierOpts, err := clientFor(cfg, config.RoleVerifier)
	if err != nil {
		return nil, nil, err
	}

	scribeDir := filepath.Join(cfg.Dir, config.ScribeDir)
	history, err := metrics.OpenHistory(filepath.Join(scribeDir, "history.db"), cfg.HistoryLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("opening run history: %w", err)
	}

	pipe, err := pipeline.New(pipeline.Deps{
		Planner: &agents.Planner{Client: plannerClient, Opts: plannerOpts},
		Writer: &agents.Writer{
			Client:    writerClient,
			Runner:    runner,
			Opts:      writerOpts,
			MaxRounds: cfg.MaxWriteRounds,
		},
		Review: &agents.ReviewTeam{
			Reviewer:     reviewerClient,
			Critic:       criticClient,
			Arbiter:      arbiterClient,
			ReviewerOpts: reviewerOpts,
			CriticOpts:   criticOpts,
			ArbiterOpts:  arbiterOpts,
		},
		Verifier:        &agents.Verifier{Client: verifierClient, Opts: verifierOpts},
		Runner:          runner,
		Store:           checkpoint.NewFileStore(scribeDir),
		History:         history,
		Observer:        disp,
		Confirm:         confirmOutline,
		Concurrency:     cfg.Concurrency,
		MaxReviewCycles: cfg.MaxReviewRounds,
	})
	if err != nil {
		history.Close()
		return nil, nil, err
	}
	return pipe, history, nil
}

// confirmOutline prompts on the terminal before writing begins.
func confirmOutline(ctx context.Context, o *outline.Outline) (bool, error) {
	if autoConfirm {
		return true, nil
	}
	fmt.Printf("是否按此大纲开始写作？[Y/n] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes", nil
}
