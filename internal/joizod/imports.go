package joizod

import (
	"github.com/DeusData/joi-to-zod/internal/pattern"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// SourceModules are the module names Joi is imported from.
var SourceModules = []string{"joi", "@hapi/joi"}

// TargetModule is the module Zod is imported from.
const TargetModule = "zod"

// DefaultTargetAlias is the identifier Zod is imported under when the file
// has no Zod import yet.
const DefaultTargetAlias = "z"

// Import is a top-level import of a schema library.
type Import struct {
	Alias     string
	Module    string
	Statement syntax.Node
	// Require is set for `const X = require('mod')` bindings.
	Require bool
	// Quote is the quote character of the module string.
	Quote byte
	// Bindings counts the names the statement binds.
	Bindings int
}

func isSourceModule(mod string) bool {
	for _, m := range SourceModules {
		if m == mod {
			return true
		}
	}
	return false
}

// FindSourceImport returns the first top-level Joi import, or nil.
func FindSourceImport(root syntax.Node) *Import {
	return findImport(root, isSourceModule, "")
}

// FindTargetImport returns the first top-level Zod import, or nil. Named
// imports only count when they bind `z`.
func FindTargetImport(root syntax.Node) *Import {
	return findImport(root, func(mod string) bool { return mod == TargetModule }, DefaultTargetAlias)
}

// findImport scans program-level statements. named is the export name
// accepted from `import { name } from ...`; empty disables named imports.
func findImport(root syntax.Node, match func(string) bool, named string) *Import {
	for _, stmt := range root.NamedChildren() {
		switch stmt.Kind() {
		case "import_statement":
			src := stmt.Field("source")
			mod := unquote(src.Text())
			if !match(mod) {
				continue
			}
			if imp := esImport(stmt, named); imp != nil {
				imp.Module = mod
				imp.Quote = quoteOf(src.Text())
				return imp
			}
		case "lexical_declaration", "variable_declaration":
			if imp := requireImport(stmt, match, named); imp != nil {
				return imp
			}
		}
	}
	return nil
}

func esImport(stmt syntax.Node, named string) *Import {
	var clause syntax.Node
	for _, c := range stmt.NamedChildren() {
		if c.Kind() == "import_clause" {
			clause = c
		}
	}
	if clause.IsZero() {
		return nil
	}
	imp := &Import{Statement: stmt}
	for _, c := range clause.NamedChildren() {
		switch c.Kind() {
		case "identifier":
			imp.Bindings++
			if imp.Alias == "" {
				imp.Alias = c.Text()
			}
		case "namespace_import":
			imp.Bindings++
			for _, id := range c.NamedChildren() {
				if id.Kind() == "identifier" && imp.Alias == "" {
					imp.Alias = id.Text()
				}
			}
		case "named_imports":
			for _, spec := range c.NamedChildren() {
				if spec.Kind() != "import_specifier" {
					continue
				}
				imp.Bindings++
				name := spec.Field("name").Text()
				local := name
				if a := spec.Field("alias"); !a.IsZero() {
					local = a.Text()
				}
				if named != "" && name == named && imp.Alias == "" {
					imp.Alias = local
				}
			}
		}
	}
	if imp.Alias == "" {
		return nil
	}
	return imp
}

const requireCall = `require($MOD)`

// requireImport recognizes `const Joi = require('joi')` and
// `const { z } = require('zod')`.
func requireImport(stmt syntax.Node, match func(string) bool, named string) *Import {
	p := pattern.MustCompile(stmt.Tree().Language(), requireCall)
	for _, d := range stmt.NamedChildren() {
		if d.Kind() != "variable_declarator" {
			continue
		}
		b, ok := p.Match(d.Field("value"))
		if !ok {
			continue
		}
		mod, _ := b.Node("MOD")
		if mod.Kind() != "string" || !match(unquote(mod.Text())) {
			continue
		}
		imp := &Import{
			Module:    unquote(mod.Text()),
			Statement: stmt,
			Require:   true,
			Quote:     quoteOf(mod.Text()),
			Bindings:  1,
		}
		name := d.Field("name")
		switch name.Kind() {
		case "identifier":
			imp.Alias = name.Text()
		case "object_pattern":
			if named == "" {
				continue
			}
			for _, prop := range name.NamedChildren() {
				switch prop.Kind() {
				case "shorthand_property_identifier_pattern":
					if prop.Text() == named {
						imp.Alias = named
					}
				case "pair_pattern":
					if unquote(prop.Field("key").Text()) == named {
						imp.Alias = prop.Field("value").Text()
					}
				}
			}
		}
		if imp.Alias != "" {
			return imp
		}
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func quoteOf(s string) byte {
	if s != "" && (s[0] == '\'' || s[0] == '"') {
		return s[0]
	}
	return '"'
}
