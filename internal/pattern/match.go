package pattern

import (
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// Match is one matching subtree with its meta-variable captures.
type Match struct {
	Node     syntax.Node
	Bindings Bindings
}

// Bindings maps meta-variable names to the nodes they captured. Single
// captures hold exactly one node; multi captures hold zero or more.
type Bindings map[string][]syntax.Node

// Node returns the node bound to a single capture.
func (b Bindings) Node(name string) (syntax.Node, bool) {
	ns, ok := b[name]
	if !ok || len(ns) != 1 {
		return syntax.Node{}, false
	}
	return ns[0], true
}

// Nodes returns the nodes bound to a capture.
func (b Bindings) Nodes(name string) []syntax.Node {
	return b[name]
}

// Has reports whether name was captured.
func (b Bindings) Has(name string) bool {
	_, ok := b[name]
	return ok
}

// Text returns the verbatim source covered by a capture. For multi captures
// this is the span from the first node to the last, separators included.
func (b Bindings) Text(name string) string {
	ns := b[name]
	if len(ns) == 0 {
		return ""
	}
	first, last := ns[0], ns[len(ns)-1]
	src := first.Tree().Source()
	return string(src[first.Start():last.End()])
}

// Span returns the byte range covered by a capture, or ok=false if it is
// unbound or empty.
func (b Bindings) Span(name string) (start, end int, ok bool) {
	ns := b[name]
	if len(ns) == 0 {
		return 0, 0, false
	}
	return ns[0].Start(), ns[len(ns)-1].End(), true
}

func (b Bindings) bindSingle(name string, n syntax.Node) bool {
	if name == wildcard {
		return true
	}
	if prev, ok := b[name]; ok {
		return len(prev) == 1 && prev[0].Text() == n.Text()
	}
	b[name] = []syntax.Node{n}
	return true
}

func (b Bindings) bindMulti(name string, ns []syntax.Node) bool {
	if name == wildcard {
		return true
	}
	if prev, ok := b[name]; ok {
		if len(prev) != len(ns) {
			return false
		}
		for i := range prev {
			if prev[i].Text() != ns[i].Text() {
				return false
			}
		}
		return true
	}
	b[name] = append([]syntax.Node{}, ns...)
	return true
}

func (b Bindings) clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

func (b Bindings) merge(o Bindings) {
	for k, v := range o {
		b[k] = v
	}
}
