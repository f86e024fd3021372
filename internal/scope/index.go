// Package scope indexes top-level declarations of a source file and answers
// which of them a piece of code depends on.
//
// Only program-level enums, variables and imports participate. Nested and
// local declarations are invisible, so a local that shadows a top-level name
// is counted as a reference to the top-level one. That errs on the side of
// keeping declarations.
package scope

import (
	"sort"

	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// Kind classifies an indexed declaration.
type Kind string

const (
	KindEnum     Kind = "enum"
	KindVariable Kind = "variable"
	KindImport   Kind = "import"
)

// Decl is one top-level binding.
type Decl struct {
	Name string
	Kind Kind
	// Node is the enum_declaration, the variable_declarator, or the import
	// binding (identifier, namespace_import or import_specifier).
	Node syntax.Node
	// Statement is the program-level statement containing the binding. For
	// exported declarations it is the export_statement.
	Statement syntax.Node
	Exported  bool
}

// Value returns a variable's initializer, or the zero node.
func (d *Decl) Value() syntax.Node {
	if d.Kind != KindVariable {
		return syntax.Node{}
	}
	return d.Node.Field("value")
}

// Index maps top-level names to their declarations.
type Index struct {
	Enums     map[string]*Decl
	Variables map[string]*Decl
	Imports   map[string]*Decl
}

// Build indexes the direct children of a program node.
func Build(root syntax.Node) *Index {
	ix := &Index{
		Enums:     map[string]*Decl{},
		Variables: map[string]*Decl{},
		Imports:   map[string]*Decl{},
	}
	for _, stmt := range root.NamedChildren() {
		inner, exported := stmt, false
		if stmt.Kind() == "export_statement" {
			inner = stmt.Field("declaration")
			if inner.IsZero() {
				continue
			}
			exported = true
		}
		switch inner.Kind() {
		case "enum_declaration":
			name := inner.Field("name").Text()
			ix.Enums[name] = &Decl{Name: name, Kind: KindEnum, Node: inner, Statement: stmt, Exported: exported}
		case "lexical_declaration", "variable_declaration":
			for _, d := range declarators(inner) {
				nameNode := d.Field("name")
				if nameNode.Kind() != "identifier" {
					continue
				}
				name := nameNode.Text()
				ix.Variables[name] = &Decl{Name: name, Kind: KindVariable, Node: d, Statement: stmt, Exported: exported}
			}
		case "import_statement":
			for _, b := range importBindings(inner) {
				ix.Imports[b.name] = &Decl{Name: b.name, Kind: KindImport, Node: b.node, Statement: stmt}
			}
		}
	}
	return ix
}

// Lookup finds a name among enums, variables and imports, in that order.
func (ix *Index) Lookup(name string) (*Decl, bool) {
	if d, ok := ix.Enums[name]; ok {
		return d, true
	}
	if d, ok := ix.Variables[name]; ok {
		return d, true
	}
	d, ok := ix.Imports[name]
	return d, ok
}

// Len returns the number of indexed names.
func (ix *Index) Len() int {
	return len(ix.Enums) + len(ix.Variables) + len(ix.Imports)
}

// All returns every declaration in source order.
func (ix *Index) All() []*Decl {
	out := make([]*Decl, 0, ix.Len())
	for _, m := range []map[string]*Decl{ix.Enums, ix.Variables, ix.Imports} {
		for _, d := range m {
			out = append(out, d)
		}
	}
	sortDecls(out)
	return out
}

func sortDecls(ds []*Decl) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].Node.Start() != ds[j].Node.Start() {
			return ds[i].Node.Start() < ds[j].Node.Start()
		}
		return ds[i].Name < ds[j].Name
	})
}

func declarators(stmt syntax.Node) []syntax.Node {
	var out []syntax.Node
	for _, c := range stmt.NamedChildren() {
		if c.Kind() == "variable_declarator" {
			out = append(out, c)
		}
	}
	return out
}

type importBinding struct {
	name string
	node syntax.Node
}

// importBindings lists the local names an import statement introduces.
func importBindings(stmt syntax.Node) []importBinding {
	clause := childOfKind(stmt, "import_clause")
	if clause.IsZero() {
		return nil
	}
	var out []importBinding
	for _, c := range clause.NamedChildren() {
		switch c.Kind() {
		case "identifier":
			out = append(out, importBinding{name: c.Text(), node: c})
		case "namespace_import":
			if id := childOfKind(c, "identifier"); !id.IsZero() {
				out = append(out, importBinding{name: id.Text(), node: c})
			}
		case "named_imports":
			for _, spec := range c.NamedChildren() {
				if spec.Kind() != "import_specifier" {
					continue
				}
				local := spec.Field("alias")
				if local.IsZero() {
					local = spec.Field("name")
				}
				out = append(out, importBinding{name: local.Text(), node: spec})
			}
		}
	}
	return out
}

func childOfKind(n syntax.Node, kind string) syntax.Node {
	for _, c := range n.NamedChildren() {
		if c.Kind() == kind {
			return c
		}
	}
	return syntax.Node{}
}
