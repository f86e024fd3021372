package joizod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DeusData/joi-to-zod/internal/codemod"
	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/pattern"
	"github.com/DeusData/joi-to-zod/internal/scope"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// env is what every rule sees of the current tree.
type env struct {
	m      *codemod.Modifications
	s      *codemod.EditSet
	src    *Import
	alias  string
	target string
	chains *chainSet
}

// sourceRule builds a single-commit rule that only runs while the file still
// imports Joi.
func (e *Engine) sourceRule(name string, plan func(ctx context.Context, v *env) error) codemod.Rule {
	return codemod.Batch(name, func(ctx context.Context, m *codemod.Modifications, s *codemod.EditSet) error {
		root := m.Root()
		imp := FindSourceImport(root)
		if imp == nil {
			return nil
		}
		return plan(ctx, &env{
			m:      m,
			s:      s,
			src:    imp,
			alias:  imp.Alias,
			target: e.targetAlias(root),
			chains: newChainSet(root, imp.Alias),
		})
	})
}

func (e *Engine) targetAlias(root syntax.Node) string {
	if imp := FindTargetImport(root); imp != nil {
		return imp.Alias
	}
	return e.opts.TargetAlias
}

// find returns the matches of a pattern whose $J capture is the Joi alias,
// innermost first.
func (v *env) find(text string) ([]pattern.Match, error) {
	p, err := pattern.Compile(v.m.Language(), text)
	if err != nil {
		return nil, err
	}
	var out []pattern.Match
	for _, mt := range p.FindAll(v.m.Root()) {
		if j, ok := mt.Bindings.Node("J"); ok && j.Text() == v.alias {
			out = append(out, mt)
		}
	}
	codemod.InnermostFirst(out, func(mt pattern.Match) (int, int) {
		return mt.Node.Start(), mt.Node.End()
	})
	return out, nil
}

// captured returns the current text of a capture with inner edits applied.
func (v *env) captured(b pattern.Bindings, name string) string {
	start, end, ok := b.Span(name)
	if !ok {
		return ""
	}
	return v.s.Text(start, end)
}

// argsInner returns the text between a segment's parentheses.
func (v *env) argsInner(seg Segment) string {
	t := v.s.NodeText(seg.Args)
	if len(t) < 2 {
		return ""
	}
	return t[1 : len(t)-1]
}

func (v *env) segments() []chainSegment {
	segs := v.chains.allSegments()
	codemod.InnermostFirst(segs, func(cs chainSegment) (int, int) {
		return cs.seg.Call.Start(), cs.seg.Call.End()
	})
	return segs
}

// addTargetImport inserts a Zod import right after the Joi import.
func (e *Engine) addTargetImport() codemod.Rule {
	return e.sourceRule("add-target-import", func(_ context.Context, v *env) error {
		if FindTargetImport(v.m.Root()) != nil {
			return nil
		}
		q := string(v.src.Quote)
		var stmt string
		switch {
		case v.src.Require && v.target == DefaultTargetAlias:
			stmt = fmt.Sprintf("const { z } = require(%s%s%s);", q, TargetModule, q)
		case v.src.Require:
			stmt = fmt.Sprintf("const { z: %s } = require(%s%s%s);", v.target, q, TargetModule, q)
		case v.target == DefaultTargetAlias:
			stmt = fmt.Sprintf("import z from %s%s%s;", q, TargetModule, q)
		default:
			stmt = fmt.Sprintf("import { z as %s } from %s%s%s;", v.target, q, TargetModule, q)
		}
		v.s.Insert(v.src.Statement.End(), "\n"+stmt)
		return nil
	})
}

// objectKeysUnnest rewrites J.object().keys(X) to J.object(X).strict().
func (e *Engine) objectKeysUnnest() codemod.Rule {
	return e.sourceRule("object-keys-unnest", func(_ context.Context, v *env) error {
		ms, err := v.find(`$J.object().keys($$$A)`)
		if err != nil {
			return err
		}
		for _, mt := range ms {
			shape := v.captured(mt.Bindings, "A")
			if shape == "" {
				shape = "{}"
			}
			v.s.Replace(mt.Node, v.alias+".object("+shape+").strict()")
		}
		return nil
	})
}

// arrayItemsUnnest rewrites J.array().items(X) to J.array(X). Several item
// schemas become a union.
func (e *Engine) arrayItemsUnnest() codemod.Rule {
	return e.sourceRule("array-items-unnest", func(_ context.Context, v *env) error {
		ms, err := v.find(`$J.array().items($$$A)`)
		if err != nil {
			return err
		}
		for _, mt := range ms {
			items := mt.Bindings.Nodes("A")
			inner := v.captured(mt.Bindings, "A")
			switch len(items) {
			case 0:
				continue
			case 1:
				v.s.Replace(mt.Node, v.alias+".array("+inner+")")
			default:
				v.s.Replace(mt.Node, v.alias+".array("+v.alias+".union(["+inner+"]))")
			}
		}
		return nil
	})
}

var alternativesPatterns = []string{
	`$J.alternatives().try($$$A)`,
	`$J.alt().try($$$A)`,
	`$J.alternatives($$$A)`,
	`$J.alt($$$A)`,
}

// alternativesToUnion rewrites J.alternatives().try(A, B) and
// J.alternatives(A, B) to J.union([A, B]).
func (e *Engine) alternativesToUnion() codemod.Rule {
	return e.sourceRule("alternatives-to-union", func(_ context.Context, v *env) error {
		var all []pattern.Match
		for _, p := range alternativesPatterns {
			ms, err := v.find(p)
			if err != nil {
				return err
			}
			all = append(all, ms...)
		}
		codemod.InnermostFirst(all, func(mt pattern.Match) (int, int) {
			return mt.Node.Start(), mt.Node.End()
		})
		for _, mt := range all {
			opts := mt.Bindings.Nodes("A")
			if len(opts) == 0 {
				continue
			}
			inner := v.captured(mt.Bindings, "A")
			if len(opts) == 1 && opts[0].Kind() == "array" {
				v.s.Replace(mt.Node, v.alias+".union("+inner+")")
				continue
			}
			v.s.Replace(mt.Node, v.alias+".union(["+inner+"])")
		}
		return nil
	})
}

// regexOptionsStrip drops the options argument of string regex calls.
// Inverted patterns keep their options: Zod's regex has no negation, and
// dropping the flag would turn "must not match" into "must match".
func (e *Engine) regexOptionsStrip() codemod.Rule {
	return e.sourceRule("regex-options-strip", func(_ context.Context, v *env) error {
		for _, cs := range v.segments() {
			if cs.chain.Primitive != PrimitiveString || cs.index == 0 {
				continue
			}
			if cs.seg.Name != "regex" && cs.seg.Name != "pattern" {
				continue
			}
			args := cs.seg.ArgNodes()
			if len(args) != 2 {
				continue
			}
			if inverted(args[1]) {
				slog.Debug("rule.regex.inverted", "file", v.m.Filename, "line", cs.seg.Call.Line())
				continue
			}
			v.s.Replace(cs.seg.Args, "("+v.s.NodeText(args[0])+")")
		}
		return nil
	})
}

// inverted reports whether a regex options object sets invert.
func inverted(opts syntax.Node) bool {
	if opts.Kind() != "object" {
		return false
	}
	for _, p := range opts.NamedChildren() {
		switch p.Kind() {
		case "shorthand_property_identifier":
			if p.Text() == "invert" {
				return true
			}
		case "pair":
			if stringKey(p.Field("key")) == "invert" && p.Field("value").Text() != "false" {
				return true
			}
		}
	}
	return false
}

func stringKey(k syntax.Node) string {
	if k.Kind() == "string" {
		return unquote(k.Text())
	}
	return k.Text()
}

// objectPatternToRecord rewrites J.object().pattern(K, V) to J.record(K, V).
// A regex key becomes J.string().regex(/.../flags) first so that it is a
// schema like any other key.
func (e *Engine) objectPatternToRecord() codemod.Rule {
	return e.sourceRule("object-pattern-to-record", func(_ context.Context, v *env) error {
		ms, err := v.find(`$J.object().pattern($$$A)`)
		if err != nil {
			return err
		}
		for _, mt := range ms {
			if len(mt.Bindings.Nodes("A")) != 2 {
				continue
			}
			args := v.captured(mt.Bindings, "A")
			key, rest, err := v.recordKey(args)
			if err != nil {
				slog.Debug("rule.record.skip", "file", v.m.Filename, "err", err)
				continue
			}
			v.s.Replace(mt.Node, v.alias+".record("+key+", "+rest+")")
		}
		return nil
	})
}

func (v *env) recordKey(args string) (string, string, error) {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, "/") {
		end, err := ScanRegexLiteral(args, 0)
		if err != nil {
			return "", "", err
		}
		rest := strings.TrimSpace(args[end:])
		if !strings.HasPrefix(rest, ",") {
			return "", "", fmt.Errorf("record value missing after %q", args[:end])
		}
		return v.alias + ".string().regex(" + args[:end] + ")", strings.TrimSpace(rest[1:]), nil
	}
	parts, err := SplitArgs(args)
	if err != nil {
		return "", "", err
	}
	if len(parts) != 2 {
		return "", "", fmt.Errorf("record wants 2 arguments, got %d", len(parts))
	}
	return parts[0], parts[1], nil
}

// validationMapping applies the mapping table in a single commit. Calls are
// visited innermost first and the first entry that binds a call rewrites it,
// so user entries, which come first, win over the built-in ones.
func (e *Engine) validationMapping() codemod.Rule {
	return e.sourceRule("validation-mapping", func(_ context.Context, v *env) error {
		for _, cs := range v.segments() {
			if cs.index == 0 {
				continue
			}
			for _, mp := range e.mappings {
				if v.applyMapping(mp, cs) {
					break
				}
			}
		}
		return nil
	})
}

// applyMapping rewrites one call with mp and reports whether mp applied.
func (v *env) applyMapping(mp *mapping, cs chainSegment) bool {
	if cs.seg.Name != mp.name || !mp.primitive.Applies(cs.chain.Primitive) {
		return false
	}
	b, ok := mp.bind(v.argsInner(cs.seg))
	if !ok {
		return false
	}
	if mp.target == "" {
		v.s.Delete(cs.seg.RemovalSpan())
		return true
	}
	out, err := mp.render(b)
	if errors.Is(err, codemod.ErrUnresolvedMetaVariable) {
		slog.Debug("rule.mapping.skip", "file", v.m.Filename, "entry", mp.entry.Source, "err", err)
		return false
	}
	start, end := cs.seg.Span()
	v.s.Add(codemod.Edit{Start: start, End: end, Replacement: out})
	return true
}

var validNames = map[string]bool{"valid": true, "only": true, "equal": true}

const enumWitness = " as [string, ...Array<string>]"

// validToEnum rewrites a value list check into an enum over a non-empty
// tuple. The tuple cast is only emitted where type assertions are legal.
// A list behind a modifier such as trim() stays as it is: an enum schema
// has no string modifiers.
func (e *Engine) validToEnum() codemod.Rule {
	return e.sourceRule("valid-to-enum", func(_ context.Context, v *env) error {
		cast := enumWitness
		if spec := lang.ForLanguage(v.m.Language()); spec != nil && !spec.TypeAssertions {
			cast = ""
		}
		for _, cs := range v.segments() {
			if !validNames[cs.seg.Name] || !cs.chain.onlyPresenceBefore(cs.index) {
				continue
			}
			args := cs.seg.ArgNodes()
			if len(args) == 0 || !enumArgs(cs.chain.Primitive, args) {
				continue
			}
			inner := v.argsInner(cs.seg)
			var body string
			if len(args) == 1 && args[0].Kind() == "spread_element" {
				body = "[" + trimTrailingComma(inner) + cast + "]"
			} else {
				body = "[" + inner + "]" + cast
			}
			start, end := cs.seg.Span()
			v.s.Add(codemod.Edit{Start: start, End: end, Replacement: "enum(" + body + ")"})
		}
		return nil
	})
}

// enumArgs reports whether a value list can become an enum. String chains
// accept any value expression except non-string literals; other chains only
// qualify when every value is a string literal.
func enumArgs(p Primitive, args []syntax.Node) bool {
	for _, a := range args {
		switch a.Kind() {
		case "string":
		case "number", "null", "true", "false", "undefined", "regex", "object":
			return false
		default:
			if p != PrimitiveString {
				return false
			}
		}
	}
	return p == PrimitiveString || p == PrimitiveAny || p == PrimitiveNone
}

// removePrimitiveForEnum rewrites J.string().enum(X) to J.enum(X). Presence
// markers in front of the enum move behind it, so
// J.string().required().enum(X) becomes J.enum(X).required().
func (e *Engine) removePrimitiveForEnum() codemod.Rule {
	return e.sourceRule("remove-primitive-for-enum", func(_ context.Context, v *env) error {
		chains := append([]*Chain(nil), v.chains.chains...)
		codemod.InnermostFirst(chains, func(c *Chain) (int, int) {
			return c.Node.Start(), c.Node.End()
		})
		for _, c := range chains {
			k := -1
			for i := 1; i < len(c.Segments); i++ {
				if c.Segments[i].Name == "enum" {
					k = i
					break
				}
			}
			if k < 0 || !c.onlyPresenceBefore(k) {
				continue
			}
			first := c.Segments[0]
			if first.Name != "string" && first.Name != "any" || len(first.ArgNodes()) > 0 {
				continue
			}
			enum := c.Segments[k]
			if k == 1 {
				v.s.Add(codemod.Edit{
					Start:       first.Property.Start(),
					End:         enum.Property.End(),
					Replacement: "enum",
				})
				continue
			}
			markers := v.s.Text(c.Segments[1].Property.Start(), c.Segments[k-1].Args.End())
			v.s.Add(codemod.Edit{
				Start:       first.Property.Start(),
				End:         enum.Args.End(),
				Replacement: v.s.Text(enum.Property.Start(), enum.Args.End()) + "." + markers,
			})
		}
		return nil
	})
}

var presenceMarkers = []string{"required", "optional", "exist", "exists", "forbidden"}

// addOptional marks every object property without an explicit presence
// marker as optional, since Joi keys are optional by default and Zod keys
// are not.
func (e *Engine) addOptional() codemod.Rule {
	return e.sourceRule("add-optional", func(_ context.Context, v *env) error {
		for _, c := range v.chains.chains {
			if !v.chains.isProperty(c) || c.Has(presenceMarkers...) {
				continue
			}
			v.s.Insert(c.Node.End(), ".optional()")
		}
		return nil
	})
}

var requiredMarkers = map[string]bool{"required": true, "exist": true, "exists": true}

// removeRequired strips required() markers, which are Zod's default.
func (e *Engine) removeRequired() codemod.Rule {
	return e.sourceRule("remove-required", func(_ context.Context, v *env) error {
		for _, cs := range v.segments() {
			if cs.index == 0 || !requiredMarkers[cs.seg.Name] || len(cs.seg.ArgNodes()) > 0 {
				continue
			}
			v.s.Delete(cs.seg.RemovalSpan())
		}
		return nil
	})
}

// inlineConstants replaces references to literal consts and spreads of
// string enums inside schema arguments with their values.
func (e *Engine) inlineConstants() codemod.Rule {
	return e.sourceRule("inline-constants", func(_ context.Context, v *env) error {
		ix := scope.Build(v.m.Root())
		values, err := pattern.Compile(v.m.Language(), `Object.values($E)`)
		if err != nil {
			return err
		}
		seen := map[uintptr]bool{}
		for _, cs := range v.segments() {
			args := cs.seg.Args
			for _, mt := range values.FindAll(args) {
				if !seen[mt.Node.ID()] {
					seen[mt.Node.ID()] = true
					v.inlineEnumSpread(ix, mt)
				}
			}
			args.Walk(func(n syntax.Node) bool {
				if n.Kind() != "identifier" || seen[n.ID()] {
					return true
				}
				seen[n.ID()] = true
				if n.Text() == v.alias || n.Parent().Kind() == "member_expression" {
					return true
				}
				if lit, ok := ix.Literal(n.Text()); ok {
					v.s.Replace(n, lit)
				}
				return true
			})
		}
		return nil
	})
}

func (v *env) inlineEnumSpread(ix *scope.Index, mt pattern.Match) {
	id, ok := mt.Bindings.Node("E")
	if !ok || id.Kind() != "identifier" {
		return
	}
	vals, ok := ix.EnumValues(id.Text())
	if !ok {
		return
	}
	spread := mt.Node.Parent()
	if spread.Kind() == "as_expression" {
		spread = spread.Parent()
	}
	if spread.Kind() != "spread_element" {
		return
	}
	v.s.Replace(spread, strings.Join(vals, ", "))
}

// referenceRename points every schema chain at the Zod alias.
func (e *Engine) referenceRename() codemod.Rule {
	return e.sourceRule("reference-rename", func(_ context.Context, v *env) error {
		if v.alias == v.target {
			return nil
		}
		for _, c := range v.chains.chains {
			v.s.Replace(c.Root, v.target)
		}
		return nil
	})
}

// removeSourceImport deletes the Joi import once nothing it binds is used.
func (e *Engine) removeSourceImport() codemod.Rule {
	return e.sourceRule("remove-source-import", func(_ context.Context, v *env) error {
		root := v.m.Root()
		ix := scope.Build(root)
		use := ix.Usages(root)
		for _, d := range ix.All() {
			if d.Statement.Same(v.src.Statement) && use[d.Name] > 0 {
				slog.Debug("rule.import.keep", "file", v.m.Filename, "name", d.Name, "uses", use[d.Name])
				return nil
			}
		}
		v.s.DeleteStatement(v.src.Statement)
		return nil
	})
}

// pruneDead removes declarations the rewrite left unused. Declarations
// whose initializer is a Zod schema are never pruned.
func (e *Engine) pruneDead() codemod.Rule {
	return codemod.Rule{
		Name: "prune-dead",
		Apply: func(ctx context.Context, m *codemod.Modifications) (*codemod.Modifications, error) {
			target := e.targetAlias(m.Root())
			keep := func(d *scope.Decl) bool {
				val := d.Value()
				return !val.IsZero() && len(findChains(val, target)) > 0
			}
			return scope.PruneRule(keep).Apply(ctx, m)
		},
	}
}
