package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/playgraph/internal/tasks"
)

// RenderProgress describes a single progress update
func RenderProgress(update tasks.ProgressUpdate) string {
	var phase string
	switch update.Phase {
	case tasks.FetchUsers, tasks.FetchPlaylists:
		phase = "Fetching..."
	case tasks.CheckUsers:
		phase = fmt.Sprintf("Checking users (%d/%d)", update.Step, update.Total)
	case tasks.CheckPlaylists:
		phase = fmt.Sprintf("Checking playlists (%d/%d)", update.Step, update.Total)
	case tasks.RepairDocuments:
		phase = fmt.Sprintf("Repairing (%d/%d)", update.Step, update.Total)
	default:
		phase = "Processing..."
	}

	if update.Message == "" {
		return phase
	}
	return fmt.Sprintf("%s %s", styles.Help(phase), update.Message)
}

// Watch prints every update received on progress until the channel is closed.
// It returns the number of updates printed.
func Watch(w io.Writer, progress <-chan tasks.ProgressUpdate) (int, error) {
	n := 0
	for update := range progress {
		if _, err := fmt.Fprintln(w, RenderProgress(update)); err != nil {
			// keep draining so the sender is never left with a full buffer
			for range progress {
			}
			return n, err
		}
		n++
	}
	return n, nil
}

// RenderReport summarizes an audit report
func RenderReport(report *tasks.Report) string {
	title := styles.Title("Audit")
	info := fmt.Sprintf("Users: %d\nPlaylists: %d", report.Users, report.Playlists)

	if report.OK() {
		return fmt.Sprintf("%s\n%s\n\n%s", title, info, styles.Success("✓ No issues found"))
	}

	var b strings.Builder
	b.WriteString(styles.Warning(fmt.Sprintf("Found %d issues:", len(report.Issues))))
	for _, issue := range report.Issues {
		fmt.Fprintf(&b, "\n  • %s", issue.Message)
	}

	counts := report.Counts()
	kinds := make([]string, 0, len(counts))
	for _, kind := range issueKinds {
		if c := counts[kind]; c > 0 {
			kinds = append(kinds, fmt.Sprintf("%s=%d", kind, c))
		}
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, info, b.String(), styles.Help(strings.Join(kinds, " ")))
}

// RenderRepair summarizes a repair run
func RenderRepair(result *tasks.RepairResult) string {
	if result.Documents == 0 {
		return styles.Success("✓ Nothing to repair")
	}

	summary := fmt.Sprintf("Repaired %d/%d documents with %d updates", result.Repaired, result.Documents, result.Updates)
	if result.Failed == 0 {
		return styles.Success("✓ " + summary)
	}

	var b strings.Builder
	b.WriteString(styles.Error(fmt.Sprintf("✗ %s, %d failed:", summary, result.Failed)))
	for _, e := range result.Errors {
		fmt.Fprintf(&b, "\n  • %s", e.Error())
	}
	return b.String()
}

var issueKinds = []tasks.IssueKind{
	tasks.SelfFriend,
	tasks.DanglingFriend,
	tasks.AsymmetricFriend,
	tasks.DuplicateEntry,
	tasks.DanglingLike,
	tasks.OneSidedLike,
	tasks.CountMismatch,
}
