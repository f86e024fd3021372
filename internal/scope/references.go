package scope

import (
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// Reference is one use of an indexed name.
type Reference struct {
	Node syntax.Node
	Decl *Decl
}

// References returns every identifier under n that resolves in the index,
// in document order. Binding positions (the declared names themselves) are
// not references.
func (ix *Index) References(n syntax.Node) []Reference {
	var out []Reference
	n.Walk(func(c syntax.Node) bool {
		if !isReferenceKind(c.Kind()) {
			return true
		}
		d, ok := ix.Lookup(c.Text())
		if !ok || isBinding(c) {
			return true
		}
		out = append(out, Reference{Node: c, Decl: d})
		return true
	})
	return out
}

// Closure returns the minimal set of top-level declarations needed to read
// n standalone: everything n references, and transitively everything those
// declarations reference. Results are in source order.
func (ix *Index) Closure(n syntax.Node) []*Decl {
	seen := map[*Decl]bool{}
	var out []*Decl
	queue := []syntax.Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range ix.References(cur) {
			if seen[r.Decl] || r.Decl.Node.Contains(n) {
				continue
			}
			seen[r.Decl] = true
			out = append(out, r.Decl)
			if r.Decl.Kind != KindImport {
				queue = append(queue, r.Decl.Node)
			}
		}
	}
	sortDecls(out)
	return out
}

// Usages counts references to every indexed name across root. A reference
// inside the name's own declaration does not count.
func (ix *Index) Usages(root syntax.Node) map[string]int {
	counts := make(map[string]int, ix.Len())
	for _, r := range ix.References(root) {
		if r.Decl.Node.Contains(r.Node) {
			continue
		}
		counts[r.Decl.Name]++
	}
	return counts
}

func isReferenceKind(kind string) bool {
	switch kind {
	case "identifier", "type_identifier", "shorthand_property_identifier":
		return true
	}
	return false
}

func isBinding(n syntax.Node) bool {
	parent := n.Parent()
	switch parent.Kind() {
	case "variable_declarator", "enum_declaration":
		return parent.Field("name").Same(n)
	case "import_clause", "namespace_import", "import_specifier":
		return true
	}
	return false
}
