package codemod

import (
	"context"
	"fmt"

	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// Report counts what the pipeline changed.
type Report struct {
	ChangesApplied int
}

// Modifications is the state threaded through a rule pipeline for one file.
// Values are never mutated after construction; Commit returns a new one.
//
// History holds every tree produced so far, the initial parse first. All of
// them stay open until Close so earlier trees can still be inspected (the
// dead-code sweep compares against History[0]).
type Modifications struct {
	Filename string
	Tree     *syntax.Tree
	Report   Report
	History  []*syntax.Tree
}

// New parses src and starts a history with it. Text that does not parse
// cleanly is rejected with ErrParseFailure.
func New(filename string, l lang.Language, src []byte) (*Modifications, error) {
	tree, err := syntax.Parse(l, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailure, filename, err)
	}
	if tree.HasError() {
		loc := tree.ErrorLocation()
		tree.Close()
		return nil, fmt.Errorf("%w: %s: syntax error at %s", ErrParseFailure, filename, loc)
	}
	return &Modifications{
		Filename: filename,
		Tree:     tree,
		History:  []*syntax.Tree{tree},
	}, nil
}

// Language returns the grammar of the current tree.
func (m *Modifications) Language() lang.Language { return m.Tree.Language() }

// Source returns the current text.
func (m *Modifications) Source() []byte { return m.Tree.Source() }

// Text returns the current text as a string.
func (m *Modifications) Text() string { return m.Tree.Text() }

// Root returns the root node of the current tree.
func (m *Modifications) Root() syntax.Node { return m.Tree.Root() }

// Initial returns the tree the history started from.
func (m *Modifications) Initial() *syntax.Tree { return m.History[0] }

// Close releases every tree in the history.
func (m *Modifications) Close() {
	for _, t := range m.History {
		t.Close()
	}
}

// Commit applies one batch of edits and re-parses the result in full. An
// empty batch returns m itself. Each non-empty commit adds one tree to the
// history and len(edits) to ChangesApplied.
func Commit(ctx context.Context, edits []Edit, m *Modifications) (*Modifications, error) {
	if len(edits) == 0 {
		return m, nil
	}
	if err := ctx.Err(); err != nil {
		return m, err
	}

	text, err := ApplyEdits(m.Source(), edits)
	if err != nil {
		return m, fmt.Errorf("%s: %w", m.Filename, err)
	}

	tree, err := syntax.Parse(m.Language(), text)
	if err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrParseFailure, m.Filename, err)
	}
	if tree.HasError() {
		loc := tree.ErrorLocation()
		tree.Close()
		return m, fmt.Errorf("%w: %s: rewrite produced invalid syntax at %s", ErrParseFailure, m.Filename, loc)
	}

	history := make([]*syntax.Tree, len(m.History), len(m.History)+1)
	copy(history, m.History)
	return &Modifications{
		Filename: m.Filename,
		Tree:     tree,
		Report:   Report{ChangesApplied: m.Report.ChangesApplied + len(edits)},
		History:  append(history, tree),
	}, nil
}
