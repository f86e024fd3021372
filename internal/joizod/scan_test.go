package joizod

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/joi-to-zod/internal/codemod"
	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"simple", "a, b", []string{"a", "b"}},
		{"nested calls", "fn(a, b), [1, 2], { x: 1, y: 2 }", []string{"fn(a, b)", "[1, 2]", "{ x: 1, y: 2 }"}},
		{"strings", `'a,b', "c\",d"`, []string{`'a,b'`, `"c\",d"`}},
		{"template", "`x${f(a, b)}y`, z", []string{"`x${f(a, b)}y`", "z"}},
		{"regex", `/a,b\/c/g, c`, []string{`/a,b\/c/g`, "c"}},
		{"division", "1 / 2, 3", []string{"1 / 2", "3"}},
		{"trailing comma", "a,\n  b,\n", []string{"a", "b"}},
		{"spread", "...Object.values(E)", []string{"...Object.values(E)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitArgsErrors(t *testing.T) {
	for _, in := range []string{"(a", "a)", "'open", "`open", "[a}"} {
		_, err := SplitArgs(in)
		assert.Error(t, err, in)
	}
}

func TestParseCall(t *testing.T) {
	name, args, err := ParseCall("step(1 / 10**$ARGS)")
	require.NoError(t, err)
	assert.Equal(t, "step", name)
	assert.Equal(t, []string{"1 / 10**$ARGS"}, args)

	name, args, err = ParseCall(" regex(/^[a-z0-9]+$/) ")
	require.NoError(t, err)
	assert.Equal(t, "regex", name)
	assert.Equal(t, []string{"/^[a-z0-9]+$/"}, args)

	for _, bad := range []string{"noparens", "(x)", "a.b(x)", "f(x"} {
		_, _, err := ParseCall(bad)
		assert.Error(t, err, bad)
	}
}

func TestScanRegexLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`/^k/, x`, `/^k/`},
		{`/^k\/x/gi, y`, `/^k\/x/gi`},
		{`/[/]+/u)`, `/[/]+/u`},
		{`/a\\/`, `/a\\/`},
	}
	for _, tt := range tests {
		end, err := ScanRegexLiteral(tt.in, 0)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, tt.in[:end])
	}

	_, err := ScanRegexLiteral(`/abc`, 0)
	assert.True(t, errors.Is(err, ErrUnterminatedRegex))
	_, err = ScanRegexLiteral("/ab\nc/", 0)
	assert.True(t, errors.Is(err, ErrUnterminatedRegex))
	_, err = ScanRegexLiteral("abc", 0)
	assert.Error(t, err)
}

func TestMappingBindAndRender(t *testing.T) {
	m, err := compileMapping(MappingEntry{Primitive: "number", Source: "precision($ARGS)", Target: "step(1 / 10**$ARGS)"})
	require.NoError(t, err)
	b, ok := m.bind("2")
	require.True(t, ok)
	out, err := m.render(b)
	require.NoError(t, err)
	assert.Equal(t, "step(1 / 10**2)", out)

	_, ok = m.bind("2, 3")
	assert.False(t, ok, "arity must match")

	lit, err := compileMapping(MappingEntry{Primitive: "*", Source: "allow(null)", Target: "nullable()"})
	require.NoError(t, err)
	_, ok = lit.bind(" null ")
	assert.True(t, ok)
	_, ok = lit.bind("''")
	assert.False(t, ok, "literal arguments must be equal")

	spread, err := compileMapping(MappingEntry{Primitive: "*", Source: "label($$$A)", Target: "describe($$$A)"})
	require.NoError(t, err)
	b, ok = spread.bind("\n  'a', 'b',\n")
	require.True(t, ok)
	out, err = spread.render(b)
	require.NoError(t, err)
	assert.Equal(t, "describe('a', 'b')", out)

	unresolved, err := compileMapping(MappingEntry{Primitive: "*", Source: "label($A)", Target: "describe($B)"})
	require.NoError(t, err)
	b, ok = unresolved.bind("'x'")
	require.True(t, ok)
	_, err = unresolved.render(b)
	assert.True(t, errors.Is(err, codemod.ErrUnresolvedMetaVariable))
}

func TestCompileMappingRejectsBadEntries(t *testing.T) {
	bad := []MappingEntry{
		{Primitive: "nope", Source: "a()", Target: "b()"},
		{Primitive: "*", Source: "a", Target: "b()"},
		{Primitive: "*", Source: "a()", Target: "b("},
		{Primitive: "*", Source: "a($X, $$$Y)", Target: "b()"},
	}
	for _, e := range bad {
		_, err := compileMapping(e)
		assert.Error(t, err, e.Source)
	}
}

func TestParsePrimitive(t *testing.T) {
	p, err := ParsePrimitive("bool")
	require.NoError(t, err)
	assert.Equal(t, PrimitiveBoolean, p)
	p, err = ParsePrimitive(" * ")
	require.NoError(t, err)
	assert.True(t, p.Applies(PrimitiveNumber))
	assert.False(t, PrimitiveString.Applies(PrimitiveNumber))
	_, err = ParsePrimitive("tuple")
	assert.Error(t, err)
}

func parseRoot(t *testing.T, l lang.Language, src string) syntax.Node {
	t.Helper()
	tree, err := syntax.Parse(l, []byte(src))
	require.NoError(t, err)
	require.False(t, tree.HasError())
	t.Cleanup(tree.Close)
	return tree.Root()
}

func TestFindChains(t *testing.T) {
	root := parseRoot(t, lang.TypeScript, `const s = J.object({ a: J.string().min(1).required(), b: other.string() });`)
	cs := newChainSet(root, "J")
	require.Len(t, cs.chains, 2)

	outer, inner := cs.chains[0], cs.chains[1]
	assert.Equal(t, PrimitiveObject, outer.Primitive)
	assert.False(t, cs.isProperty(outer))

	assert.Equal(t, PrimitiveString, inner.Primitive)
	var names []string
	for _, s := range inner.Segments {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"string", "min", "required"}, names)
	assert.True(t, inner.Has("required"))
	assert.True(t, cs.isProperty(inner))

	start, end := inner.Segments[2].RemovalSpan()
	assert.Equal(t, ".required()", string(root.Tree().Source()[start:end]))
}

func TestFindImports(t *testing.T) {
	root := parseRoot(t, lang.TypeScript, `import * as Joi from "@hapi/joi";
import { z as zz } from 'zod';
`)
	src := FindSourceImport(root)
	require.NotNil(t, src)
	assert.Equal(t, "Joi", src.Alias)
	assert.Equal(t, "@hapi/joi", src.Module)
	assert.Equal(t, byte('"'), src.Quote)

	dst := FindTargetImport(root)
	require.NotNil(t, dst)
	assert.Equal(t, "zz", dst.Alias)

	root = parseRoot(t, lang.JavaScript, "const Joi = require('joi');\nconst { z } = require('zod');\n")
	src = FindSourceImport(root)
	require.NotNil(t, src)
	assert.True(t, src.Require)
	assert.Equal(t, "Joi", src.Alias)
	assert.Equal(t, "z", FindTargetImport(root).Alias)

	root = parseRoot(t, lang.TypeScript, "import { object } from 'joi';\nimport other from 'other';\n")
	assert.Nil(t, FindSourceImport(root), "named Joi imports carry no alias")
	assert.Nil(t, FindTargetImport(root))
}
