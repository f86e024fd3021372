package codemod

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// EditSet collects the edits of one rule invocation before they are
// committed together.
//
// Rules visit matches innermost first and build outer replacements from
// Text, which already reflects the inner edits. Adding an edit that encloses
// earlier ones absorbs them, so nested matches compose into a single edit.
// For partially overlapping edits only the one that starts earliest is kept.
type EditSet struct {
	src     []byte
	edits   []Edit
	dropped int
}

// NewEditSet starts an empty set over src.
func NewEditSet(src []byte) *EditSet {
	return &EditSet{src: src}
}

// Add records e. It returns false when e was not kept: it would change
// nothing, it lies inside an edit already recorded, or it overlaps an edit
// that starts no later than it does.
func (s *EditSet) Add(e Edit) bool {
	if e.Start < 0 || e.End < e.Start || e.End > len(s.src) {
		slog.Debug("editset.invalid", "edit", e.String(), "len", len(s.src))
		return false
	}
	var inner, conflicts []int
	for i, x := range s.edits {
		switch {
		case e.contains(x):
			inner = append(inner, i)
		case x.contains(e):
			s.drop(e, x)
			return false
		case e.Overlaps(x):
			conflicts = append(conflicts, i)
		}
	}

	if len(inner) == 0 && string(s.src[e.Start:e.End]) == e.Replacement {
		return false
	}
	for _, i := range conflicts {
		if s.edits[i].Start <= e.Start {
			s.drop(e, s.edits[i])
			return false
		}
	}

	remove := make(map[int]bool, len(inner)+len(conflicts))
	for _, i := range inner {
		remove[i] = true
	}
	for _, i := range conflicts {
		s.drop(s.edits[i], e)
		remove[i] = true
	}
	kept := s.edits[:0]
	for i, x := range s.edits {
		if !remove[i] {
			kept = append(kept, x)
		}
	}
	s.edits = append(kept, e)
	return true
}

func (s *EditSet) drop(lost, kept Edit) {
	s.dropped++
	slog.Debug("editset.drop", "edit", lost.String(), "kept", kept.String())
}

// Replace rewrites the whole node.
func (s *EditSet) Replace(n syntax.Node, text string) bool {
	return s.Add(Edit{Start: n.Start(), End: n.End(), Replacement: text})
}

// Insert adds text at a byte offset.
func (s *EditSet) Insert(at int, text string) bool {
	return s.Add(Edit{Start: at, End: at, Replacement: text})
}

// Delete removes a byte range.
func (s *EditSet) Delete(start, end int) bool {
	return s.Add(Edit{Start: start, End: end})
}

// DeleteStatement removes a statement. When it sits alone on its line the
// line break after it goes too.
func (s *EditSet) DeleteStatement(n syntax.Node) bool {
	src := s.src
	start, end := n.Start(), n.End()

	lineStart := start
	for lineStart > 0 && (src[lineStart-1] == ' ' || src[lineStart-1] == '\t') {
		lineStart--
	}
	if lineStart == 0 || src[lineStart-1] == '\n' {
		lineEnd := end
		for lineEnd < len(src) && (src[lineEnd] == ' ' || src[lineEnd] == '\t') {
			lineEnd++
		}
		if lineEnd < len(src) && src[lineEnd] == '\r' {
			lineEnd++
		}
		if lineEnd < len(src) && src[lineEnd] == '\n' {
			start, end = lineStart, lineEnd+1
		}
	}
	return s.Delete(start, end)
}

// Text returns src[start:end] with every recorded edit that lies inside the
// range already applied.
func (s *EditSet) Text(start, end int) string {
	span := Edit{Start: start, End: end}
	var b strings.Builder
	last := start
	for _, x := range sortEdits(s.edits) {
		if !span.contains(x) {
			continue
		}
		b.Write(s.src[last:x.Start])
		b.WriteString(x.Replacement)
		last = x.End
	}
	b.Write(s.src[last:end])
	return b.String()
}

// NodeText returns the node's text with inner edits applied.
func (s *EditSet) NodeText(n syntax.Node) string {
	return s.Text(n.Start(), n.End())
}

// Edits returns the kept edits sorted by position.
func (s *EditSet) Edits() []Edit {
	return sortEdits(s.edits)
}

// Len returns the number of kept edits.
func (s *EditSet) Len() int { return len(s.edits) }

// Dropped returns how many edits were discarded because of overlaps.
func (s *EditSet) Dropped() int { return s.dropped }

// InnermostFirst orders items so that an enclosed span is visited before
// the span enclosing it: by start descending, then end ascending.
func InnermostFirst[T any](items []T, span func(T) (start, end int)) {
	sort.SliceStable(items, func(i, j int) bool {
		si, ei := span(items[i])
		sj, ej := span(items[j])
		if si != sj {
			return si > sj
		}
		return ei < ej
	})
}
