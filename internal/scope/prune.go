package scope

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DeusData/joi-to-zod/internal/codemod"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// KeepFunc reports whether a dead declaration must be kept anyway.
type KeepFunc func(d *Decl) bool

// PruneRule removes top-level declarations that the rewrite left without
// references. A declaration is removed only when it existed in the initial
// tree and was referenced there, is referenced nowhere in the current tree,
// is not exported, and keep does not claim it. This is deliberately stricter
// than a plain unused-declaration sweep: code that was already dead before
// the rewrite, and exported API, are left to the author.
func PruneRule(keep KeepFunc) codemod.Rule {
	return codemod.Batch("prune-dead", func(_ context.Context, m *codemod.Modifications, s *codemod.EditSet) error {
		Prune(m.Initial().Root(), m.Root(), keep, s)
		return nil
	})
}

// Prune records into s the edits that remove declarations dead in after
// but alive in before.
func Prune(before, after syntax.Node, keep KeepFunc, s *codemod.EditSet) {
	origIx := Build(before)
	origUse := origIx.Usages(before)
	ix := Build(after)
	use := ix.Usages(after)

	dead := map[*Decl]bool{}
	for _, d := range ix.All() {
		o, ok := origIx.Lookup(d.Name)
		switch {
		case !ok || o.Kind != d.Kind:
		case d.Exported:
		case use[d.Name] > 0:
		case origUse[d.Name] == 0:
		case keep != nil && keep(d):
		default:
			dead[d] = true
		}
	}
	if len(dead) == 0 {
		return
	}

	byStmt := map[uintptr][]*Decl{}
	var stmts []syntax.Node
	for _, d := range ix.All() {
		id := d.Statement.ID()
		if _, ok := byStmt[id]; !ok {
			stmts = append(stmts, d.Statement)
		}
		byStmt[id] = append(byStmt[id], d)
	}

	for _, stmt := range stmts {
		decls := byStmt[stmt.ID()]
		var names []string
		for _, d := range decls {
			if dead[d] {
				names = append(names, d.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		slog.Debug("scope.prune", "names", strings.Join(names, ","), "line", stmt.Line())

		switch decls[0].Kind {
		case KindEnum:
			s.DeleteStatement(stmt)
		case KindVariable:
			pruneVariables(s, stmt, dead)
		case KindImport:
			pruneImports(s, stmt, decls, dead)
		}
	}
}

// pruneVariables drops dead declarators, or the whole statement when none
// survive. Declarators that bind patterns are never dead.
func pruneVariables(s *codemod.EditSet, stmt syntax.Node, dead map[*Decl]bool) {
	inner := stmt
	if stmt.Kind() == "export_statement" {
		inner = stmt.Field("declaration")
	}
	all := declarators(inner)
	deadNodes := map[uintptr]bool{}
	for d := range dead {
		if d.Statement.Same(stmt) {
			deadNodes[d.Node.ID()] = true
		}
	}

	var kept []syntax.Node
	for _, d := range all {
		if !deadNodes[d.ID()] {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		s.DeleteStatement(stmt)
		return
	}
	if len(kept) == len(all) {
		return
	}

	parts := make([]string, len(kept))
	for i, d := range kept {
		parts[i] = d.Text()
	}
	first, last := all[0], all[len(all)-1]
	s.Add(codemod.Edit{
		Start:       first.Start(),
		End:         last.End(),
		Replacement: strings.Join(parts, ", "),
	})
}

// pruneImports rebuilds the import clause from the live bindings, or drops
// the statement when none are left.
func pruneImports(s *codemod.EditSet, stmt syntax.Node, decls []*Decl, dead map[*Decl]bool) {
	var (
		defaultName string
		namespace   string
		named       []string
		alive       int
	)
	for _, d := range decls {
		if dead[d] {
			continue
		}
		alive++
		switch d.Node.Kind() {
		case "identifier":
			defaultName = d.Node.Text()
		case "namespace_import":
			namespace = d.Node.Text()
		case "import_specifier":
			named = append(named, d.Node.Text())
		}
	}
	if alive == 0 {
		s.DeleteStatement(stmt)
		return
	}

	var parts []string
	if defaultName != "" {
		parts = append(parts, defaultName)
	}
	if namespace != "" {
		parts = append(parts, namespace)
	}
	if len(named) > 0 {
		parts = append(parts, "{ "+strings.Join(named, ", ")+" }")
	}
	s.Replace(childOfKind(stmt, "import_clause"), strings.Join(parts, ", "))
}
