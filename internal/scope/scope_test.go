package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/joi-to-zod/internal/codemod"
	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

func parseTS(t *testing.T, src string) syntax.Node {
	t.Helper()
	tree, err := syntax.Parse(lang.TypeScript, []byte(src))
	require.NoError(t, err)
	require.False(t, tree.HasError(), "fixture must parse cleanly")
	t.Cleanup(tree.Close)
	return tree.Root()
}

const indexFixture = `import Joi, { ObjectSchema as OS } from 'joi';
import * as path from 'path';

enum Job { Dev = 'dev', Ops = 'ops' }
export enum Team { A = 'a' }

const MAX = 10, label = 'x';
let { a, b } = obj;
export const schema = Joi.object({ job: Joi.string().valid(...Object.values(Job)) });

function local() {
  const hidden = 1;
  return hidden;
}
`

func TestBuildIndex(t *testing.T) {
	ix := Build(parseTS(t, indexFixture))

	assert.Contains(t, ix.Imports, "Joi")
	assert.Contains(t, ix.Imports, "OS")
	assert.NotContains(t, ix.Imports, "ObjectSchema")
	assert.Contains(t, ix.Imports, "path")

	require.Contains(t, ix.Enums, "Job")
	assert.False(t, ix.Enums["Job"].Exported)
	require.Contains(t, ix.Enums, "Team")
	assert.True(t, ix.Enums["Team"].Exported)

	assert.Contains(t, ix.Variables, "MAX")
	assert.Contains(t, ix.Variables, "label")
	assert.True(t, ix.Variables["schema"].Exported)
	assert.NotContains(t, ix.Variables, "a", "destructuring patterns are not indexed")
	assert.NotContains(t, ix.Variables, "hidden", "locals are invisible")

	d, ok := ix.Lookup("MAX")
	require.True(t, ok)
	assert.Equal(t, KindVariable, d.Kind)
	assert.Equal(t, "10", d.Value().Text())

	all := ix.All()
	require.NotEmpty(t, all)
	assert.Equal(t, "Joi", all[0].Name)
}

func TestReferencesSkipBindings(t *testing.T) {
	root := parseTS(t, indexFixture)
	ix := Build(root)

	schema := ix.Variables["schema"]
	var names []string
	for _, r := range ix.References(schema.Node) {
		names = append(names, r.Decl.Name)
	}
	assert.Equal(t, []string{"Joi", "Joi", "Job"}, names)
}

func TestClosureIsTransitive(t *testing.T) {
	root := parseTS(t, `import Joi from 'joi';
enum Job { Dev = 'dev' }
const unrelated = 1;
const jobs = Object.values(Job);
const inner = Joi.string().valid(...jobs);
const outer = Joi.object({ inner });
`)
	ix := Build(root)
	closure := ix.Closure(ix.Variables["outer"].Value())

	var names []string
	for _, d := range closure {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Joi", "Job", "jobs", "inner"}, names)
}

func TestUsagesIgnoreSelfReferences(t *testing.T) {
	root := parseTS(t, `const fib = (n: number): number => n < 2 ? n : fib(n - 1);
const user = 1;
const consumer = user + 1;
`)
	ix := Build(root)
	use := ix.Usages(root)
	assert.Equal(t, 0, use["fib"])
	assert.Equal(t, 1, use["user"])
	assert.Equal(t, 0, use["consumer"])
}

func TestLiteralAndEnumValues(t *testing.T) {
	ix := Build(parseTS(t, `const MAX = 10;
const NEG = -3;
let mutable = 5;
const computed = MAX * 2;
enum Job { Dev = 'dev', Ops = "ops" }
enum Level { Low, High }
`))
	v, ok := ix.Literal("MAX")
	assert.True(t, ok)
	assert.Equal(t, "10", v)

	v, ok = ix.Literal("NEG")
	assert.True(t, ok)
	assert.Equal(t, "-3", v)

	_, ok = ix.Literal("mutable")
	assert.False(t, ok, "only const bindings are inlined")
	_, ok = ix.Literal("computed")
	assert.False(t, ok)

	values, ok := ix.EnumValues("Job")
	assert.True(t, ok)
	assert.Equal(t, []string{"'dev'", `"ops"`}, values)

	_, ok = ix.EnumValues("Level")
	assert.False(t, ok, "numeric enums have no literal values")
}

func TestSnippet(t *testing.T) {
	ix := Build(parseTS(t, "export const a = 1, b = a;\nenum E { X = 'x' }\n"))
	assert.Equal(t, "export const b = a;", Snippet(ix.Variables["b"]))
	assert.Equal(t, "enum E { X = 'x' }", Snippet(ix.Enums["E"]))
}

func runPrune(t *testing.T, before, after string, keep KeepFunc) string {
	t.Helper()
	m, err := codemod.New("x.ts", lang.TypeScript, []byte(before))
	require.NoError(t, err)

	rewritten, err := codemod.Commit(context.Background(), []codemod.Edit{{
		Start: 0, End: len(before), Replacement: after,
	}}, m)
	require.NoError(t, err)

	out, err := PruneRule(keep).Apply(context.Background(), rewritten)
	require.NoError(t, err)
	defer out.Close()
	return out.Text()
}

func TestPruneRemovesDeclarationsMadeDead(t *testing.T) {
	before := `enum Job { Dev = 'dev' }
enum Kept { A = 'a' }
const s = J.string().valid(...Object.values(Job));
const t: Kept = Kept.A;
`
	after := `enum Job { Dev = 'dev' }
enum Kept { A = 'a' }
const s = z.enum(['dev']);
const t: Kept = Kept.A;
`
	got := runPrune(t, before, after, nil)
	assert.Equal(t, `enum Kept { A = 'a' }
const s = z.enum(['dev']);
const t: Kept = Kept.A;
`, got)
}

func TestPruneKeepsPreviouslyDeadAndExported(t *testing.T) {
	src := `const unusedBefore = 1;
export const exported = 2;
const s = 3;
`
	assert.Equal(t, src, runPrune(t, src, src, nil))
}

func TestPrunePartialMultiBinding(t *testing.T) {
	before := "const a = 1, b = 2, c = 3;\nuse(a, b, c);\n"
	after := "const a = 1, b = 2, c = 3;\nuse(b);\n"
	assert.Equal(t, "const b = 2;\nuse(b);\n", runPrune(t, before, after, nil))
}

func TestPruneImports(t *testing.T) {
	before := "import Def, { one, two as three } from 'lib';\nimport gone from 'gone';\nf(Def, one, three, gone);\n"
	after := "import Def, { one, two as three } from 'lib';\nimport gone from 'gone';\nf(one);\n"
	assert.Equal(t, "import { one } from 'lib';\nf(one);\n", runPrune(t, before, after, nil))
}

func TestPruneHonorsKeep(t *testing.T) {
	before := "const schema = J.string();\nuse(schema);\n"
	after := "const schema = z.string();\n"
	keep := func(d *Decl) bool { return d.Name == "schema" }
	assert.Equal(t, after, runPrune(t, before, after, keep))
	assert.Equal(t, "", runPrune(t, before, after, nil))
}
