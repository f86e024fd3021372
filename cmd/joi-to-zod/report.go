package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/DeusData/joi-to-zod/internal/batch"
)

// reporter prints run results for humans.
type reporter struct {
	w       io.Writer
	verbose bool
}

// diffs prints the dry-run diff of every transformed file.
func (r *reporter) diffs(sum *batch.Summary) {
	for _, f := range sum.Files {
		if f.Diff == "" {
			continue
		}
		for _, line := range strings.SplitAfter(f.Diff, "\n") {
			switch {
			case line == "":
			case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
				color.New(color.Bold).Fprint(r.w, line)
			case strings.HasPrefix(line, "@@"):
				color.New(color.FgCyan).Fprint(r.w, line)
			case strings.HasPrefix(line, "+"):
				color.New(color.FgGreen).Fprint(r.w, line)
			case strings.HasPrefix(line, "-"):
				color.New(color.FgRed).Fprint(r.w, line)
			default:
				fmt.Fprint(r.w, line)
			}
		}
		fmt.Fprintln(r.w)
	}
}

// summary prints the per-status totals, failures, and with verbose the
// per-file table.
func (r *reporter) summary(sum *batch.Summary) {
	if r.verbose && len(sum.Files) > 0 {
		fmt.Fprintln(r.w, r.table(sum))
	}

	verb := "transformed"
	if sum.DryRun {
		verb = "would transform"
	}
	color.New(color.FgGreen).Fprintf(r.w, "%s %d %s (%d %s)\n",
		verb, sum.Transformed, plural(sum.Transformed, "file"), sum.Changes, plural(sum.Changes, "change"))
	if sum.Skipped > 0 {
		color.New(color.FgYellow).Fprintf(r.w, "skipped %d %s\n", sum.Skipped, plural(sum.Skipped, "file"))
	}
	if sum.Unchanged > 0 {
		color.New(color.Faint).Fprintf(r.w, "unchanged since last run %d %s\n", sum.Unchanged, plural(sum.Unchanged, "file"))
	}
	if sum.Failed > 0 {
		color.New(color.FgRed).Fprintf(r.w, "failed %d %s\n", sum.Failed, plural(sum.Failed, "file"))
		for _, f := range sum.Files {
			if f.Err != nil {
				color.New(color.FgRed).Fprintf(r.w, "  - %s: %v\n", f.File.RelPath, f.Err)
			}
		}
	}
}

func (r *reporter) table(sum *batch.Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	tbl.AppendHeader(table.Row{"File", "Status", "Changes", "Size", "Time"})
	for _, f := range sum.Files {
		tbl.AppendRow(table.Row{
			f.File.RelPath,
			string(f.Status),
			f.Changes,
			humanize.Bytes(uint64(max(f.File.Size, 0))),
			f.Elapsed.Round(time.Microsecond).String(),
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d files", len(sum.Files)), "", sum.Changes, "", ""})
	return tbl.Render()
}

// timing prints the closing line with the wall time and input volume.
func (r *reporter) timing(sum *batch.Summary, elapsed time.Duration) {
	var size int64
	for _, f := range sum.Files {
		size += f.File.Size
	}
	fmt.Fprintf(r.w, "Done in %s (%s %s, %s)\n",
		elapsed.Round(time.Millisecond),
		humanize.Comma(int64(len(sum.Files))), plural(len(sum.Files), "file"),
		humanize.Bytes(uint64(size)))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
