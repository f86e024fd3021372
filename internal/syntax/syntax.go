// Package syntax provides read-only views over parsed source trees.
//
// A Tree owns the source text and the tree-sitter tree parsed from it. Nodes
// are small values that point back into their Tree; parent links are resolved
// through tree-sitter lookups and never keep a tree alive on their own. Trees
// are discarded wholesale after a re-parse, so a Node must never be used with
// a Tree other than the one it came from.
package syntax

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/parser"
)

// Tree is an immutable parse of one source text.
type Tree struct {
	lang   lang.Language
	source []byte
	ts     *tree_sitter.Tree
}

// Parse parses source with the grammar for l.
func Parse(l lang.Language, source []byte) (*Tree, error) {
	ts, err := parser.Parse(l, source)
	if err != nil {
		return nil, err
	}
	return &Tree{lang: l, source: source, ts: ts}, nil
}

// Language returns the grammar the tree was parsed with.
func (t *Tree) Language() lang.Language { return t.lang }

// Source returns the parsed bytes. Callers must not modify them.
func (t *Tree) Source() []byte { return t.source }

// Text returns the parsed source as a string.
func (t *Tree) Text() string { return string(t.source) }

// Root returns the program node.
func (t *Tree) Root() Node {
	if t == nil || t.ts == nil {
		return Node{}
	}
	return Node{n: t.ts.RootNode(), tree: t}
}

// Close releases the tree-sitter tree. It is safe to call more than once.
func (t *Tree) Close() {
	if t == nil || t.ts == nil {
		return
	}
	t.ts.Close()
	t.ts = nil
}

// HasError reports whether the parse produced ERROR or MISSING nodes.
func (t *Tree) HasError() bool {
	root := t.Root()
	return !root.IsZero() && root.n.HasError()
}

// ErrorLocation describes the first syntax error as "line:column" (1-based).
func (t *Tree) ErrorLocation() string {
	if !t.HasError() {
		return ""
	}
	n := parser.FirstError(t.Root().n)
	if n == nil {
		return "unknown"
	}
	pos := n.StartPosition()
	return fmt.Sprintf("%d:%d", pos.Row+1, pos.Column+1)
}

// Node is a view of one syntax node.
type Node struct {
	n    *tree_sitter.Node
	tree *Tree
}

// IsZero reports whether the node is absent.
func (n Node) IsZero() bool { return n.n == nil }

// Tree returns the tree the node belongs to.
func (n Node) Tree() *Tree { return n.tree }

func (n Node) Kind() string {
	if n.n == nil {
		return ""
	}
	return n.n.Kind()
}

func (n Node) IsNamed() bool { return n.n != nil && n.n.IsNamed() }

// IsComment reports whether the node is a comment or another extra.
func (n Node) IsComment() bool {
	return n.n != nil && (n.n.IsExtra() || n.n.Kind() == "comment")
}

// Start returns the byte offset where the node begins.
func (n Node) Start() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.StartByte())
}

// End returns the byte offset just past the node.
func (n Node) End() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.EndByte())
}

// Line returns the 1-based line the node starts on.
func (n Node) Line() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.StartPosition().Row) + 1
}

func (n Node) Text() string {
	if n.n == nil {
		return ""
	}
	return parser.NodeText(n.n, n.tree.source)
}

// ID identifies the node within its tree.
func (n Node) ID() uintptr {
	if n.n == nil {
		return 0
	}
	return n.n.Id()
}

// Same reports whether both views denote the same node of the same tree.
func (n Node) Same(o Node) bool {
	if n.n == nil || o.n == nil {
		return n.n == nil && o.n == nil
	}
	return n.tree == o.tree && n.n.Id() == o.n.Id() &&
		n.Start() == o.Start() && n.End() == o.End() && n.Kind() == o.Kind()
}

// Contains reports whether o lies within n's byte range.
func (n Node) Contains(o Node) bool {
	return !n.IsZero() && !o.IsZero() && n.Start() <= o.Start() && o.End() <= n.End()
}

func (n Node) ChildCount() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.ChildCount())
}

func (n Node) Child(i int) Node {
	if n.n == nil || i < 0 || i >= n.ChildCount() {
		return Node{}
	}
	return n.wrap(n.n.Child(uint(i)))
}

// Children returns every child, anonymous tokens included.
func (n Node) Children() []Node {
	count := n.ChildCount()
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.Child(i); !c.IsZero() {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children, comments excluded.
func (n Node) NamedChildren() []Node {
	if n.n == nil {
		return nil
	}
	count := int(n.n.NamedChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.wrap(n.n.NamedChild(uint(i)))
		if c.IsZero() || c.IsComment() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Field returns the child stored under a grammar field name.
func (n Node) Field(name string) Node {
	if n.n == nil {
		return Node{}
	}
	return n.wrap(n.n.ChildByFieldName(name))
}

// Parent looks the parent up through the tree. The root has no parent.
func (n Node) Parent() Node {
	if n.n == nil {
		return Node{}
	}
	return n.wrap(n.n.Parent())
}

// FieldName returns the grammar field under which n hangs off its parent.
func (n Node) FieldName() string {
	parent := n.Parent()
	if parent.IsZero() {
		return ""
	}
	for i := 0; i < parent.ChildCount(); i++ {
		if parent.Child(i).Same(n) {
			return parent.n.FieldNameForChild(uint32(i))
		}
	}
	return ""
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n Node) Walk(fn func(Node) bool) {
	if n.n == nil {
		return
	}
	parser.Walk(n.n, func(c *tree_sitter.Node) bool {
		return fn(n.wrap(c))
	})
}

// Ancestor returns the nearest ancestor of the given kind.
func (n Node) Ancestor(kinds ...string) Node {
	for p := n.Parent(); !p.IsZero(); p = p.Parent() {
		for _, k := range kinds {
			if p.Kind() == k {
				return p
			}
		}
	}
	return Node{}
}

func (n Node) String() string {
	if n.n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s[%d:%d]", n.Kind(), n.Start(), n.End())
}

func (n Node) wrap(c *tree_sitter.Node) Node {
	if c == nil {
		return Node{}
	}
	return Node{n: c, tree: n.tree}
}
