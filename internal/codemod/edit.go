package codemod

import (
	"bytes"
	"fmt"
	"sort"
)

// Edit replaces the byte range [Start, End) of the current text. Start ==
// End is an insertion.
type Edit struct {
	Start       int
	End         int
	Replacement string
}

// Overlaps reports whether two edits touch the same bytes. Edits that merely
// share a boundary do not overlap; an insertion overlaps a replacement only
// when it falls strictly inside it.
func (e Edit) Overlaps(o Edit) bool {
	return e.Start < o.End && o.Start < e.End
}

// contains reports whether o is wholly inside e. Insertions must be strictly
// inside to count, so an insertion at a boundary stays an independent edit.
func (e Edit) contains(o Edit) bool {
	if o.Start == o.End {
		return e.Start < o.Start && o.Start < e.End
	}
	return e.Start <= o.Start && o.End <= e.End
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d)=%q", e.Start, e.End, e.Replacement)
}

// sortEdits orders edits by start then end, keeping insertion order for ties.
func sortEdits(edits []Edit) []Edit {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	return sorted
}

// ApplyEdits splices edits into src. Edits are addressed against the
// original coordinates of src; overlapping edits are rejected.
func ApplyEdits(src []byte, edits []Edit) ([]byte, error) {
	sorted := sortEdits(edits)

	var (
		buf     bytes.Buffer
		last    int
		widest  Edit
		hasPrev bool
	)
	buf.Grow(len(src))
	for _, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(src) {
			return nil, fmt.Errorf("%w: %v outside [0,%d)", ErrInvalidEdit, e, len(src))
		}
		if hasPrev && widest.Overlaps(e) {
			return nil, &ConflictError{First: widest, Second: e}
		}
		buf.Write(src[last:e.Start])
		buf.WriteString(e.Replacement)
		last = e.End
		if !hasPrev || e.End > widest.End {
			widest = e
		}
		hasPrev = true
	}
	buf.Write(src[last:])
	return buf.Bytes(), nil
}
