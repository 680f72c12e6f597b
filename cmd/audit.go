package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playgraph/internal/formatter"
	"github.com/desertthunder/playgraph/internal/shared"
	"github.com/desertthunder/playgraph/internal/tasks"
	"github.com/desertthunder/playgraph/internal/ui"
)

// auditOutput is the JSON shape of `audit check`.
type auditOutput struct {
	Report *tasks.Report       `json:"report"`
	Repair *tasks.RepairResult `json:"repair,omitempty"`
}

// AuditCheck reports broken invariants and, with --repair, fixes them.
func (r *Runner) AuditCheck(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	switch format {
	case "pretty", formatter.FormatText, formatter.FormatJSON:
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	progress, done := r.watchProgress(cmd.Bool("verbose"))
	report, err := g.auditor.Check(ctx, progress)
	done()
	if err != nil {
		return err
	}

	out := auditOutput{Report: report}
	if cmd.Bool("repair") && !report.OK() {
		progress, done := r.watchProgress(cmd.Bool("verbose"))
		result, err := g.auditor.Repair(ctx, progress, report)
		done()
		if err != nil {
			return err
		}
		out.Repair = result
	}

	if err := r.writeAudit(format, out); err != nil {
		return err
	}

	if out.Repair != nil && out.Repair.Failed > 0 {
		return fmt.Errorf("repair failed for %d of %d documents", out.Repair.Failed, out.Repair.Documents)
	}
	return nil
}

func (r *Runner) writeAudit(format string, out auditOutput) error {
	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(out, true)
	case formatter.FormatText:
		data, err := formatter.ReportToText(out.Report)
		if err != nil {
			return err
		}
		if out.Repair != nil {
			repair, err := formatter.RepairToText(out.Repair)
			if err != nil {
				return err
			}
			data = append(data, repair...)
		}
		return r.write(data)
	default:
		if err := r.writePlain("%s\n", ui.RenderReport(out.Report)); err != nil {
			return err
		}
		if out.Repair != nil {
			return r.writePlain("%s\n", ui.RenderRepair(out.Repair))
		}
		return nil
	}
}

// watchProgress returns a channel to pass to the auditor and a func that closes it and waits for the
// printer to finish. When disabled the channel is nil.
func (r *Runner) watchProgress(enabled bool) (chan tasks.ProgressUpdate, func()) {
	if !enabled {
		return nil, func() {}
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := ui.Watch(r.output, progress); err != nil {
			r.logger.Warn("failed to print progress", "err", err)
		}
	}()

	return progress, func() {
		close(progress)
		wg.Wait()
	}
}
