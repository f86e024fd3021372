package scope

import (
	"strings"
)

// Literal returns the initializer text of a top-level const whose value is
// a plain literal: a number, string, boolean or null, optionally negated.
func (ix *Index) Literal(name string) (string, bool) {
	d, ok := ix.Variables[name]
	if !ok || declKeyword(d) != "const" {
		return "", false
	}
	v := d.Value()
	switch v.Kind() {
	case "number", "string", "true", "false", "null":
		return v.Text(), true
	case "unary_expression":
		arg := v.Field("argument")
		if arg.Kind() == "number" && strings.HasPrefix(v.Text(), "-") {
			return v.Text(), true
		}
	}
	return "", false
}

// EnumValues returns the member values of a top-level enum whose members are
// all initialized with string literals, in declaration order.
func (ix *Index) EnumValues(name string) ([]string, bool) {
	d, ok := ix.Enums[name]
	if !ok {
		return nil, false
	}
	body := d.Node.Field("body")
	var values []string
	for _, m := range body.NamedChildren() {
		if m.Kind() != "enum_assignment" {
			return nil, false
		}
		v := m.Field("value")
		if v.Kind() != "string" {
			return nil, false
		}
		values = append(values, v.Text())
	}
	return values, len(values) > 0
}

// Snippet returns source text that declares d on its own: the whole
// statement, or for a multi-binding variable statement just this binding
// under the statement's keyword.
func Snippet(d *Decl) string {
	if d.Kind != KindVariable {
		return d.Statement.Text()
	}
	inner := d.Statement
	prefix := ""
	if inner.Kind() == "export_statement" {
		inner = inner.Field("declaration")
		prefix = "export "
	}
	if len(declarators(inner)) == 1 {
		return d.Statement.Text()
	}
	return prefix + declKeyword(d) + " " + d.Node.Text() + ";"
}

func declKeyword(d *Decl) string {
	stmt := d.Statement
	if stmt.Kind() == "export_statement" {
		stmt = stmt.Field("declaration")
	}
	if stmt.ChildCount() == 0 {
		return ""
	}
	return stmt.Child(0).Text()
}
