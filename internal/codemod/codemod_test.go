package codemod

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/joi-to-zod/internal/lang"
)

func newMods(t *testing.T, src string) *Modifications {
	t.Helper()
	m, err := New("test.ts", lang.TypeScript, []byte(src))
	require.NoError(t, err)
	return m
}

func TestApplyEditsSplicesInOriginalCoordinates(t *testing.T) {
	src := []byte("const a = Joi.string().required();")
	out, err := ApplyEdits(src, []Edit{
		{Start: 22, End: 33, Replacement: ""},   // .required()
		{Start: 10, End: 13, Replacement: "z"},  // Joi
		{Start: 34, End: 34, Replacement: "\n"}, // trailing insertion
	})
	require.NoError(t, err)
	assert.Equal(t, "const a = z.string();\n", string(out))
}

func TestApplyEditsRejectsOverlap(t *testing.T) {
	_, err := ApplyEdits([]byte("abcdef"), []Edit{
		{Start: 0, End: 3, Replacement: "x"},
		{Start: 2, End: 4, Replacement: "y"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictingEdits)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 0, conflict.First.Start)
	assert.Equal(t, 2, conflict.Second.Start)
}

func TestApplyEditsInsertionInsideReplacementConflicts(t *testing.T) {
	_, err := ApplyEdits([]byte("abcdef"), []Edit{
		{Start: 1, End: 4, Replacement: "x"},
		{Start: 2, End: 2, Replacement: "y"},
	})
	assert.ErrorIs(t, err, ErrConflictingEdits)
}

func TestApplyEditsAdjacentAndBoundaryInsertions(t *testing.T) {
	out, err := ApplyEdits([]byte("abcdef"), []Edit{
		{Start: 3, End: 3, Replacement: "1"},
		{Start: 3, End: 6, Replacement: "X"},
		{Start: 0, End: 3, Replacement: "Y"},
		{Start: 3, End: 3, Replacement: "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Y12X", string(out))
}

func TestApplyEditsOutOfRange(t *testing.T) {
	_, err := ApplyEdits([]byte("abc"), []Edit{{Start: 2, End: 9}})
	assert.ErrorIs(t, err, ErrInvalidEdit)
}

func TestNewRejectsInvalidSource(t *testing.T) {
	_, err := New("bad.ts", lang.TypeScript, []byte("const = ;"))
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestCommitEmptyBatchIsIdentity(t *testing.T) {
	m := newMods(t, "const a = 1;\n")
	defer m.Close()

	next, err := Commit(context.Background(), nil, m)
	require.NoError(t, err)
	assert.Same(t, m, next)
	assert.Same(t, m.Tree, next.Tree)
	assert.Equal(t, 0, next.Report.ChangesApplied)
	assert.Len(t, next.History, 1)
}

func TestCommitReparsesAndGrowsHistory(t *testing.T) {
	m := newMods(t, "const a = 1;\nconst b = 2;\n")

	next, err := Commit(context.Background(), []Edit{
		{Start: 10, End: 11, Replacement: "10"},
		{Start: 23, End: 24, Replacement: "20"},
	}, m)
	require.NoError(t, err)
	defer next.Close()

	assert.Equal(t, "const a = 10;\nconst b = 20;\n", next.Text())
	assert.Equal(t, 2, next.Report.ChangesApplied)
	assert.Len(t, next.History, 2)
	assert.Same(t, m.Tree, next.Initial())
	assert.NotSame(t, m.Tree, next.Tree)
	assert.Len(t, m.History, 1, "input is never mutated")
	assert.Equal(t, "const a = 1;\nconst b = 2;\n", m.Text())
}

func TestCommitRejectsBrokenRewrite(t *testing.T) {
	m := newMods(t, "const a = f(1);\n")
	defer m.Close()

	// drop the closing paren of f(1)
	next, err := Commit(context.Background(), []Edit{{Start: 13, End: 14, Replacement: ""}}, m)
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.Same(t, m, next)
}

func TestCommitHonorsCancellation(t *testing.T) {
	m := newMods(t, "const a = 1;\n")
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Commit(ctx, []Edit{{Start: 0, End: 0, Replacement: "// x\n"}}, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEditSetComposesNestedEdits(t *testing.T) {
	src := []byte("outer(inner(x))")
	s := NewEditSet(src)

	require.True(t, s.Add(Edit{Start: 6, End: 14, Replacement: "INNER"}))
	assert.Equal(t, "outer(INNER)", s.Text(0, len(src)))

	outer := "wrapped(" + s.Text(6, 14) + ")"
	require.True(t, s.Add(Edit{Start: 0, End: 15, Replacement: outer}))
	assert.Equal(t, 1, s.Len(), "inner edit absorbed by the enclosing one")

	out, err := ApplyEdits(src, s.Edits())
	require.NoError(t, err)
	assert.Equal(t, "wrapped(INNER)", string(out))
}

func TestEditSetKeepsEarliestOfOverlap(t *testing.T) {
	s := NewEditSet([]byte("abcdefgh"))
	require.True(t, s.Add(Edit{Start: 2, End: 5, Replacement: "X"}))
	assert.False(t, s.Add(Edit{Start: 4, End: 7, Replacement: "Y"}))
	assert.True(t, s.Add(Edit{Start: 1, End: 3, Replacement: "Z"}))

	edits := s.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, "Z", edits[0].Replacement)
	assert.Equal(t, 2, s.Dropped())
}

func TestEditSetDropsEditInsideRecordedOne(t *testing.T) {
	s := NewEditSet([]byte("abcdefgh"))
	require.True(t, s.Add(Edit{Start: 0, End: 8, Replacement: "all"}))
	assert.False(t, s.Add(Edit{Start: 2, End: 3, Replacement: "c"}))
	assert.False(t, s.Insert(4, "!"))
	assert.True(t, s.Insert(8, "!"), "insertion at the boundary is independent")
	assert.Equal(t, 2, s.Len())
}

func TestEditSetSkipsNoopEdits(t *testing.T) {
	s := NewEditSet([]byte("abc"))
	assert.False(t, s.Add(Edit{Start: 0, End: 1, Replacement: "a"}))
	assert.False(t, s.Add(Edit{Start: 0, End: 9, Replacement: "x"}))
	assert.Equal(t, 0, s.Len())
}

func TestInnermostFirst(t *testing.T) {
	spans := [][2]int{{0, 10}, {2, 5}, {2, 3}, {6, 9}}
	InnermostFirst(spans, func(s [2]int) (int, int) { return s[0], s[1] })
	assert.Equal(t, [][2]int{{6, 9}, {2, 3}, {2, 5}, {0, 10}}, spans)
}

func TestPipelineSkipsWhenPreconditionFails(t *testing.T) {
	m := newMods(t, "const a = 1;\n")
	defer m.Close()

	called := false
	p := &Pipeline{
		Name:         "test",
		Precondition: func(*Modifications) bool { return false },
		Rules: []Rule{{Name: "never", Apply: func(_ context.Context, m *Modifications) (*Modifications, error) {
			called = true
			return m, nil
		}}},
	}
	out, state, err := p.Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StateSkipped, state)
	assert.Same(t, m, out)
	assert.False(t, called)
}

func TestPipelineFoldsRulesInOrder(t *testing.T) {
	m := newMods(t, "let a = 1;\n")

	rename := Batch("rename", func(_ context.Context, m *Modifications, s *EditSet) error {
		s.Add(Edit{Start: 4, End: 5, Replacement: "b"})
		return nil
	})
	noop := Batch("noop", func(context.Context, *Modifications, *EditSet) error { return nil })
	double := Batch("double", func(_ context.Context, m *Modifications, s *EditSet) error {
		assert.Equal(t, "let b = 1;\n", m.Text(), "each rule sees the committed output of the previous one")
		s.Add(Edit{Start: 8, End: 9, Replacement: "2"})
		return nil
	})

	p := &Pipeline{Name: "test", Rules: []Rule{rename, noop, double}}
	out, state, err := p.Run(context.Background(), m)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, StateDone, state)
	assert.Equal(t, "let b = 2;\n", out.Text())
	assert.Equal(t, 2, out.Report.ChangesApplied)
	assert.Len(t, out.History, 3, "no-op rule adds no history entry")
}

func TestPipelineStopsOnRuleError(t *testing.T) {
	m := newMods(t, "let a = 1;\n")
	defer m.Close()

	boom := errors.New("boom")
	p := &Pipeline{Name: "test", Rules: []Rule{
		Batch("fails", func(context.Context, *Modifications, *EditSet) error { return boom }),
		{Name: "unreached", Apply: func(context.Context, *Modifications) (*Modifications, error) {
			t.Fatal("rule after a failure must not run")
			return nil, nil
		}},
	}}
	out, state, err := p.Run(context.Background(), m)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateUnvisited, state)
	assert.Same(t, m, out)
}
