// Package display renders pipeline progress to a terminal. It implements the
// pipeline Observer so the orchestrator stays free of presentation concerns.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/scribeworks/scribe/internal/checkpoint"
	"github.com/scribeworks/scribe/internal/metrics"
	"github.com/scribeworks/scribe/internal/outline"
)

// Spinner frames using braille characters
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Display handles terminal output with a spinner and styled status lines.
type Display struct {
	out      io.Writer
	mu       sync.Mutex
	spinMu   sync.Mutex // separate mutex for spinner to avoid deadlock
	spinning bool
	spinStop chan struct{}
	spinDone chan struct{}
	spinMsg  string
	spinFrom time.Time
	runStart time.Time
}

// New creates a display writing to out.
func New(out io.Writer) *Display {
	return &Display{out: out, runStart: time.Now()}
}

// StartSpinner begins the loading spinner with a message.
func (d *Display) StartSpinner(msg string) {
	d.spinMu.Lock()
	if d.spinning {
		d.spinMu.Unlock()
		return
	}
	d.spinning = true
	d.spinMsg = msg
	d.spinFrom = time.Now()
	d.spinStop = make(chan struct{})
	d.spinDone = make(chan struct{})
	d.spinMu.Unlock()

	go func() {
		defer close(d.spinDone)
		frame := 0
		first := true
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-d.spinStop:
				fmt.Fprintf(d.out, "\033[1A\r\033[K")
				return
			case <-ticker.C:
				elapsed := formatElapsed(time.Since(d.spinFrom))
				line := fmt.Sprintf("   %s %s (%s)", styleAccent.Render(spinnerFrames[frame]), d.spinMsg, elapsed)
				if first {
					fmt.Fprintf(d.out, "%s\n", line)
					first = false
				} else {
					fmt.Fprintf(d.out, "\033[1A\r\033[K%s\n", line)
				}
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

// StopSpinner stops the loading spinner.
func (d *Display) StopSpinner() {
	d.spinMu.Lock()
	if !d.spinning {
		d.spinMu.Unlock()
		return
	}
	d.spinning = false
	close(d.spinStop)
	d.spinMu.Unlock()
	<-d.spinDone
}

// RunStarted prints the run banner.
func (d *Display) RunStarted(runID, request string, resumed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runStart = time.Now()

	mode := "新任务"
	if resumed {
		mode = "续跑"
	}
	body := fmt.Sprintf("%s\n%s\n%s",
		styleTitle.Render("Scribe 写作流水线"),
		styleMuted.Render("run: "+runID+"  ("+mode+")"),
		truncate(request, 70))
	fmt.Fprintln(d.out, headerBox().Render(body))
}

// PlanReady prints the accepted outline.
func (d *Display) PlanReady(o *outline.Outline) {
	d.StopSpinner()
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.out, "\n%s %s\n", styleTitle.Render("大纲"), o.Title)
	for i, sec := range o.Sections {
		fmt.Fprintf(d.out, "   %d. %s %s\n", i+1, sec.Title,
			styleMuted.Render(fmt.Sprintf("(约 %d 段)", sec.EstimatedParagraphs)))
	}
	fmt.Fprintln(d.out)
}

// SectionStarted marks a section entering its write phase.
func (d *Display) SectionStarted(index, total int, title string) {
	d.StopSpinner()
	d.mu.Lock()
	fmt.Fprintf(d.out, "%s [%d/%d] %s\n", styleInfo.Render("▶"), index, total, title)
	d.mu.Unlock()
	d.StartSpinner(truncate("写作 "+title, 40))
}

// SectionWritten marks a section flushed into the document.
func (d *Display) SectionWritten(index, total int, title string) {
	d.StopSpinner()
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "   %s [%d/%d] %s\n", styleSuccess.Render("✓"), index, total, title)
}

// ToolInvoked shows a single tool call.
func (d *Display) ToolInvoked(name, detail string) {
	d.StopSpinner()
	d.mu.Lock()
	if detail != "" {
		detail = " " + truncate(detail, 50)
	}
	fmt.Fprintf(d.out, "   %s %s%s\n", styleMuted.Render(">"), name, styleMuted.Render(detail))
	d.mu.Unlock()
	d.StartSpinner(truncate(name, 40))
}

// ReviewRound announces a consensus review round.
func (d *Display) ReviewRound(round, max int) {
	d.StopSpinner()
	d.mu.Lock()
	fmt.Fprintf(d.out, "%s 审校轮次 %d/%d\n", styleInfo.Render("◆"), round, max)
	d.mu.Unlock()
	d.StartSpinner("双人审校中")
}

// ReviewDone reports the merged review outcome.
func (d *Display) ReviewDone(score, conflicts, flagged int) {
	d.StopSpinner()
	d.mu.Lock()
	defer d.mu.Unlock()
	line := fmt.Sprintf("   评分 %d/10", score)
	if conflicts > 0 {
		line += styleWarning.Render(fmt.Sprintf("  分歧 %d", conflicts))
	}
	if flagged > 0 {
		line += styleWarning.Render(fmt.Sprintf("  待修改章节 %d", flagged))
	}
	fmt.Fprintln(d.out, line)
}

// VerifyDone reports fact verification.
func (d *Display) VerifyDone(passed bool, failed int) {
	d.StopSpinner()
	d.mu.Lock()
	defer d.mu.Unlock()
	if passed {
		fmt.Fprintf(d.out, "   %s 事实核查通过\n", styleSuccess.Render("✓"))
		return
	}
	fmt.Fprintf(d.out, "   %s 事实核查未通过 (%d 条存疑)\n", styleError.Render("✗"), failed)
}

// Replanning announces a quality-gate triggered replan.
func (d *Display) Replanning(reason string) {
	d.StopSpinner()
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.out, warningBox().Render(styleWarning.Render("质量门未通过，重新规划")+"\n"+truncate(reason, 70)))
}

// Retry shows a backoff before retrying a failed write tool.
func (d *Display) Retry(attempt, max int, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "   %s\n", styleMuted.Render(fmt.Sprintf("... %s 后重试 (%d/%d)", delay, attempt, max)))
}

// RunFinished prints the closing summary box.
func (d *Display) RunFinished(status string, rec *metrics.Record) {
	d.StopSpinner()
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.runStart).Round(time.Second)
	switch status {
	case checkpoint.StatusCompleted:
		body := styleSuccess.Render("✓ 写作完成")
		if rec != nil {
			body += "\n" + fmt.Sprintf("章节 %d  审校轮次 %d  评分 %d/10  用时 %s",
				rec.TotalSections, rec.ReviewRounds, rec.FinalReviewScore, elapsed)
		}
		fmt.Fprintln(d.out, successBox().Render(body))
	case checkpoint.StatusCancelled:
		fmt.Fprintln(d.out, warningBox().Render(styleWarning.Render("已取消")+"\n进度已保存，可使用 --resume 续跑"))
	default:
		fmt.Fprintln(d.out, errorBox().Render(styleError.Render("✗ 运行失败")+fmt.Sprintf("\n用时 %s", elapsed)))
	}
}

// ShowError prints a standalone error line.
func (d *Display) ShowError(msg string) {
	d.StopSpinner()
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s %s\n", styleError.Render("[!!]"), msg)
}

// formatElapsed formats duration with fixed width (always 6 chars like " 1.04s")
func formatElapsed(d time.Duration) string {
	secs := d.Seconds()
	if secs < 10 {
		return fmt.Sprintf("%5.2fs", secs)
	} else if secs < 100 {
		return fmt.Sprintf("%5.1fs", secs)
	}
	return fmt.Sprintf("%5.0fs", secs)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
