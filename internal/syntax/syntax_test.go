package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/joi-to-zod/internal/lang"
)

func parse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse(lang.TypeScript, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestNodeNavigation(t *testing.T) {
	tree := parse(t, "const a = Joi.string().min(1);\n")
	root := tree.Root()
	require.Equal(t, "program", root.Kind())

	var call Node
	root.Walk(func(n Node) bool {
		if call.IsZero() && n.Kind() == "call_expression" {
			call = n
		}
		return true
	})
	require.False(t, call.IsZero())
	assert.Equal(t, "Joi.string().min(1)", call.Text())

	fn := call.Field("function")
	assert.Equal(t, "member_expression", fn.Kind())
	assert.Equal(t, "min", fn.Field("property").Text())
	assert.Equal(t, "function", fn.FieldName())
	assert.True(t, fn.Parent().Same(call))
	assert.True(t, call.Contains(fn))
	assert.False(t, fn.Contains(call))

	decl := call.Ancestor("lexical_declaration")
	require.False(t, decl.IsZero())
	assert.Equal(t, 1, decl.Line())
}

func TestNamedChildrenSkipComments(t *testing.T) {
	tree := parse(t, "f(a, /* note */ b);\n")
	var args Node
	tree.Root().Walk(func(n Node) bool {
		if n.Kind() == "arguments" {
			args = n
			return false
		}
		return true
	})
	require.False(t, args.IsZero())
	named := args.NamedChildren()
	require.Len(t, named, 2)
	assert.Equal(t, "a", named[0].Text())
	assert.Equal(t, "b", named[1].Text())
	assert.Greater(t, len(args.Children()), len(named))
}

func TestZeroNode(t *testing.T) {
	var n Node
	assert.True(t, n.IsZero())
	assert.Equal(t, "", n.Kind())
	assert.Equal(t, "", n.Text())
	assert.True(t, n.Parent().IsZero())
	assert.Nil(t, n.NamedChildren())
	assert.Equal(t, "<nil>", n.String())
}

func TestTreeErrors(t *testing.T) {
	good := parse(t, "const a = 1;\n")
	assert.False(t, good.HasError())
	assert.Empty(t, good.ErrorLocation())

	bad := parse(t, "const a = (;\n")
	assert.True(t, bad.HasError())
	assert.NotEmpty(t, bad.ErrorLocation())
}

func TestCloseIsIdempotent(t *testing.T) {
	tree, err := Parse(lang.JavaScript, []byte("let x = 1;"))
	require.NoError(t, err)
	tree.Close()
	tree.Close()
	assert.True(t, tree.Root().IsZero())
}
