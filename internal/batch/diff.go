package batch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around each hunk.
const contextLines = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// UnifiedDiff renders a line diff between before and after in unified
// format. It returns "" when the texts are equal.
func UnifiedDiff(name, before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(a, b, false), lines)

	var all []diffLine
	for _, d := range diffs {
		for _, l := range splitLines(d.Text) {
			all = append(all, diffLine{op: d.Type, text: l})
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", name, name)
	for _, h := range hunks(all) {
		writeHunk(&sb, all, h)
	}
	return sb.String()
}

// splitLines splits s after every newline; a missing final newline keeps
// the last partial line.
func splitLines(s string) []string {
	var out []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}

type hunk struct{ start, end int } // [start, end) into the line list

// hunks groups changed lines, merging groups whose context would overlap.
func hunks(all []diffLine) []hunk {
	var out []hunk
	for i, l := range all {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		start := max(i-contextLines, 0)
		end := min(i+1+contextLines, len(all))
		if n := len(out); n > 0 && start <= out[n-1].end {
			out[n-1].end = max(out[n-1].end, end)
			continue
		}
		out = append(out, hunk{start, end})
	}
	return out
}

func writeHunk(sb *strings.Builder, all []diffLine, h hunk) {
	oldLine, newLine := 1, 1
	for _, l := range all[:h.start] {
		if l.op != diffmatchpatch.DiffInsert {
			oldLine++
		}
		if l.op != diffmatchpatch.DiffDelete {
			newLine++
		}
	}
	var oldCount, newCount int
	for _, l := range all[h.start:h.end] {
		if l.op != diffmatchpatch.DiffInsert {
			oldCount++
		}
		if l.op != diffmatchpatch.DiffDelete {
			newCount++
		}
	}
	fmt.Fprintf(sb, "@@ -%d,%d +%d,%d @@\n", oldLine, oldCount, newLine, newCount)
	for _, l := range all[h.start:h.end] {
		prefix := " "
		switch l.op {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		sb.WriteString(prefix)
		sb.WriteString(l.text)
		if !strings.HasSuffix(l.text, "\n") {
			sb.WriteString("\n\\ No newline at end of file\n")
		}
	}
}
