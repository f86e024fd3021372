// Package joizod rewrites Joi schema definitions into Zod.
//
// The rewrite is a fixed pipeline of rules over a codemod.Modifications.
// Every rule re-reads the current tree, records its edits into one
// EditSet and commits them, so the next rule always sees freshly parsed
// code. Files that do not import Joi are skipped untouched.
package joizod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DeusData/joi-to-zod/internal/codemod"
	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/scope"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// ErrNotFound is returned by Extract when the named declaration does not
// exist at the top level.
var ErrNotFound = errors.New("declaration not found")

// Options configures an Engine.
type Options struct {
	// TargetAlias is the identifier Zod is imported under when a file has no
	// Zod import. Defaults to "z".
	TargetAlias string
	// InlineConstants replaces literal consts and string enum spreads used
	// inside schemas with their values.
	InlineConstants bool
	// Mappings are extra validation mappings. They take precedence over the
	// built-in table.
	Mappings []MappingEntry
}

// Engine holds the compiled rule pipeline. It is safe for concurrent use.
type Engine struct {
	opts     Options
	mappings []*mapping
	pipeline *codemod.Pipeline
}

// New compiles the mapping table and assembles the pipeline.
func New(opts Options) (*Engine, error) {
	if opts.TargetAlias == "" {
		opts.TargetAlias = DefaultTargetAlias
	}
	if !isIdentifier(opts.TargetAlias) {
		return nil, fmt.Errorf("target alias %q is not an identifier", opts.TargetAlias)
	}
	mappings, err := compileMappings(opts.Mappings)
	if err != nil {
		return nil, err
	}
	e := &Engine{opts: opts, mappings: mappings}
	e.pipeline = &codemod.Pipeline{
		Name: "joi-to-zod",
		Precondition: func(m *codemod.Modifications) bool {
			return FindSourceImport(m.Root()) != nil
		},
		Rules: e.Rules(),
	}
	return e, nil
}

// Rules returns the ordered rule list. Structural unnesting runs before the
// rules that expect the flat form, enum conversion before the primitive
// removal it enables, and the polarity rules before the rename that would
// hide Joi method names from them.
func (e *Engine) Rules() []codemod.Rule {
	rules := []codemod.Rule{
		e.addTargetImport(),
		e.objectKeysUnnest(),
		e.arrayItemsUnnest(),
		e.alternativesToUnion(),
		e.regexOptionsStrip(),
		e.objectPatternToRecord(),
		e.validationMapping(),
		e.validToEnum(),
		e.removePrimitiveForEnum(),
		e.addOptional(),
		e.removeRequired(),
	}
	if e.opts.InlineConstants {
		rules = append(rules, e.inlineConstants())
	}
	return append(rules,
		e.referenceRename(),
		e.removeSourceImport(),
		e.pruneDead(),
	)
}

// Rule returns the named rule, for running a single step.
func (e *Engine) Rule(name string) (codemod.Rule, bool) {
	all := e.Rules()
	if !e.opts.InlineConstants {
		all = append(all, e.inlineConstants())
	}
	for _, r := range all {
		if r.Name == name {
			return r, true
		}
	}
	return codemod.Rule{}, false
}

// Modify runs the pipeline over m. On error the returned Modifications is
// the last one produced, which the caller must still close.
func (e *Engine) Modify(ctx context.Context, m *codemod.Modifications) (*codemod.Modifications, codemod.State, error) {
	return e.pipeline.Run(ctx, m)
}

// Result is the outcome of transforming one source text.
type Result struct {
	Text           string
	ChangesApplied int
	State          codemod.State
	// History holds every intermediate tree, the initial parse first. The
	// trees stay valid until Close.
	History []*syntax.Tree
	Elapsed time.Duration

	mods *codemod.Modifications
}

// Changed reports whether the text differs from the input.
func (r *Result) Changed() bool { return r.ChangesApplied > 0 }

// Close releases the trees in History.
func (r *Result) Close() {
	if r.mods != nil {
		r.mods.Close()
		r.mods = nil
	}
}

// Transform rewrites src. A file that does not parse is rejected with
// codemod.ErrParseFailure; a file without a Joi import is returned
// unchanged with State skipped.
func (e *Engine) Transform(ctx context.Context, src []byte, l lang.Language, filename string) (*Result, error) {
	t := time.Now()
	m, err := codemod.New(filename, l, src)
	if err != nil {
		return nil, err
	}
	out, state, err := e.Modify(ctx, m)
	if err != nil {
		out.Close()
		return nil, err
	}
	slog.Debug("transform.done",
		"file", filename,
		"state", string(state),
		"changes", out.Report.ChangesApplied,
		"commits", len(out.History)-1,
	)
	return &Result{
		Text:           out.Text(),
		ChangesApplied: out.Report.ChangesApplied,
		State:          state,
		History:        out.History,
		Elapsed:        time.Since(t),
		mods:           out,
	}, nil
}

// Transform rewrites src with the default options.
func Transform(ctx context.Context, src []byte, l lang.Language, filename string) (*Result, error) {
	e, err := New(Options{})
	if err != nil {
		return nil, err
	}
	return e.Transform(ctx, src, l, filename)
}

// Extract converts src and returns the top-level declaration name together
// with every top-level declaration it depends on, in source order, as a
// standalone snippet.
func (e *Engine) Extract(ctx context.Context, src []byte, l lang.Language, filename, name string) (string, error) {
	res, err := e.Transform(ctx, src, l, filename)
	if err != nil {
		return "", err
	}
	defer res.Close()

	root := res.History[len(res.History)-1].Root()
	ix := scope.Build(root)
	d, ok := ix.Lookup(name)
	if !ok || d.Kind == scope.KindImport {
		return "", fmt.Errorf("%w: %s in %s", ErrNotFound, name, filename)
	}
	body := d.Node
	if d.Kind == scope.KindVariable {
		body = d.Value()
	}

	var parts []string
	seen := map[uintptr]bool{}
	for _, dep := range ix.Closure(body) {
		if dep.Kind == scope.KindImport {
			if seen[dep.Statement.ID()] {
				continue
			}
			seen[dep.Statement.ID()] = true
		}
		parts = append(parts, scope.Snippet(dep))
	}
	parts = append(parts, scope.Snippet(d))
	return strings.Join(parts, "\n"), nil
}

func isIdentifier(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}
