package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/mysticatea/npm-run-all-sub000/internal/manifest"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

// maxSummaryIDWidth caps the task column of the summary table
const maxSummaryIDWidth = 45

// Renderer handles human-facing output that is not task output
type Renderer struct {
	colors *Colors
	out    io.Writer
}

// NewRenderer creates a new UI renderer writing to out
func NewRenderer(out io.Writer, enableColors bool) *Renderer {
	return &Renderer{
		colors: NewColors(enableColors),
		out:    out,
	}
}

// Colors returns the renderer's color functions
func (r *Renderer) Colors() *Colors {
	return r.colors
}

// TaskHeader builds the block printed before a task starts.
//
// With package info:
//
//	> name@version task /path/to/package.json
//	> script-body args
//
// Without it only "> task" is printed.
func TaskHeader(task string, info *manifest.PackageInfo, colors *Colors) string {
	if info == nil {
		return "\n> " + task + "\n\n"
	}

	name, args := model.SplitTask(task)
	first := fmt.Sprintf("> %s@%s %s %s", info.Name, info.Version, name, info.Path)
	second := fmt.Sprintf("> %s %s", info.Script(name), args)
	return "\n" + colors.Gray(first) + "\n" + colors.Gray(second) + "\n\n"
}

// truncateTaskID truncates a task ID to maxLen, adding "..." if needed
func truncateTaskID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen-3] + "..."
}

// RenderSummary renders one line per task followed by the total run time
func (r *Renderer) RenderSummary(results []model.ScriptResult, total time.Duration) {
	maxIDWidth := 12
	for _, result := range results {
		taskLen := len(result.Name)
		if taskLen > maxSummaryIDWidth {
			taskLen = maxSummaryIDWidth
		}
		if taskLen > maxIDWidth {
			maxIDWidth = taskLen
		}
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.colors.Bold("Summary:"))

	failed := 0
	for _, result := range results {
		status := result.Status()
		if status == model.StatusFail {
			failed++
		}

		symbol := r.colors.StatusSymbol(status)
		statusText := r.colors.StatusColor(status, fmt.Sprintf("%-8s", status))
		detail := ""
		switch status {
		case model.StatusPass, model.StatusFail:
			detail = fmt.Sprintf("%.2fs (%dms)", result.Duration.Seconds(), result.Duration.Milliseconds())
			if status == model.StatusFail {
				detail += r.colors.Gray(fmt.Sprintf(" [exit %d]", *result.Code))
			}
		case model.StatusAborted:
			detail = r.colors.Gray("killed")
		case model.StatusPending:
			detail = r.colors.Gray("not started")
		}

		taskID := truncateTaskID(result.Name, maxSummaryIDWidth)
		fmt.Fprintf(r.out, "  %s %-*s %s %s\n", symbol, maxIDWidth, taskID, statusText, detail)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Total: %s\n", FormatDuration(total))
	if failed > 0 {
		fmt.Fprintln(r.out, r.colors.Red(fmt.Sprintf("%d of %d tasks failed", failed, len(results))))
	} else {
		fmt.Fprintln(r.out, r.colors.Green("all tasks passed"))
	}
}

// Error prints a user-facing error line
func (r *Renderer) Error(err error) {
	fmt.Fprintf(r.out, "%s %v\n", r.colors.Red("ERROR:"), err)
}
