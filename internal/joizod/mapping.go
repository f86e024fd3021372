package joizod

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DeusData/joi-to-zod/internal/codemod"
)

// MappingEntry translates one Joi validation call into its Zod counterpart.
// Source and Target are call templates such as `greater($ARGS)`. An empty
// Target removes the Joi call.
type MappingEntry struct {
	Primitive string `yaml:"primitive" json:"primitive"`
	Source    string `yaml:"joi" json:"joi"`
	Target    string `yaml:"zod" json:"zod"`
}

// DefaultMappings is the built-in validation table.
var DefaultMappings = []MappingEntry{
	{Primitive: "string", Source: "alphanum()", Target: "regex(/^[a-z0-9]+$/)"},
	{Primitive: "string", Source: "uri()", Target: "url()"},
	{Primitive: "string", Source: "guid()", Target: "uuid()"},
	{Primitive: "string", Source: "isoDate()", Target: "datetime()"},
	{Primitive: "string", Source: "pattern($ARGS)", Target: "regex($ARGS)"},
	{Primitive: "*", Source: "description($ARGS)", Target: "describe($ARGS)"},
	{Primitive: "*", Source: "allow(null)", Target: "nullable()"},
	{Primitive: "*", Source: "required(false)", Target: "optional()"},
	{Primitive: "*", Source: "unknown(true)", Target: "passthrough()"},
	{Primitive: "*", Source: "unknown()", Target: "passthrough()"},
	{Primitive: "*", Source: "unknown(false)", Target: "strict()"},
	{Primitive: "number", Source: "integer()", Target: "int()"},
	{Primitive: "number", Source: "greater($ARGS)", Target: "gt($ARGS)"},
	{Primitive: "number", Source: "less($ARGS)", Target: "lt($ARGS)"},
	{Primitive: "number", Source: "precision($ARGS)", Target: "step(1 / 10**$ARGS)"},
	{Primitive: "number", Source: "multiple($ARGS)", Target: "multipleOf($ARGS)"},
}

var metaTokenRe = regexp.MustCompile(`\$(\$\$)?[A-Z_][A-Z0-9_]*`)

// mapping is a compiled MappingEntry.
type mapping struct {
	entry     MappingEntry
	primitive Primitive
	name      string
	// params holds the source argument templates: meta tokens or literals.
	params []string
	// spread is set when the only source argument is a $$$ meta-variable.
	spread string
	target string
}

func compileMapping(e MappingEntry) (*mapping, error) {
	prim, err := ParsePrimitive(e.Primitive)
	if err != nil {
		return nil, fmt.Errorf("mapping %q: %w", e.Source, err)
	}
	name, params, err := ParseCall(e.Source)
	if err != nil {
		return nil, fmt.Errorf("mapping source: %w", err)
	}
	m := &mapping{entry: e, primitive: prim, name: name, params: params}
	if strings.TrimSpace(e.Target) != "" {
		if _, _, err := ParseCall(e.Target); err != nil {
			return nil, fmt.Errorf("mapping target: %w", err)
		}
		m.target = strings.TrimSpace(e.Target)
	}
	if len(params) == 1 && strings.HasPrefix(params[0], "$$$") && metaTokenRe.MatchString(params[0]) {
		m.spread = params[0]
	}
	for _, p := range params {
		if strings.HasPrefix(p, "$$$") && m.spread == "" {
			return nil, fmt.Errorf("mapping %q: spread meta-variable must be the only argument", e.Source)
		}
	}
	return m, nil
}

// bind matches the argument text found in a call against the source
// parameters. It returns false when arity or a literal argument differs.
func (m *mapping) bind(argsText string) (map[string]string, bool) {
	if m.spread != "" {
		return map[string]string{m.spread: trimTrailingComma(argsText)}, true
	}
	found, err := SplitArgs(argsText)
	if err != nil || len(found) != len(m.params) {
		return nil, false
	}
	b := make(map[string]string, len(found))
	for i, p := range m.params {
		if metaTokenRe.FindString(p) == p {
			if prev, ok := b[p]; ok && prev != found[i] {
				return nil, false
			}
			b[p] = found[i]
			continue
		}
		if p != found[i] {
			return nil, false
		}
	}
	return b, true
}

// render substitutes bindings into the target template. A meta-variable
// without a binding yields ErrUnresolvedMetaVariable.
func (m *mapping) render(b map[string]string) (string, error) {
	var missing string
	out := metaTokenRe.ReplaceAllStringFunc(m.target, func(tok string) string {
		v, ok := b[tok]
		if !ok && missing == "" {
			missing = tok
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("%w: %s in %q", codemod.ErrUnresolvedMetaVariable, missing, m.target)
	}
	return out, nil
}

func trimTrailingComma(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, ","))
}

// compileMappings compiles user entries ahead of the defaults so that they
// take precedence for the same Joi call.
func compileMappings(user []MappingEntry) ([]*mapping, error) {
	all := make([]MappingEntry, 0, len(user)+len(DefaultMappings))
	all = append(all, user...)
	all = append(all, DefaultMappings...)
	out := make([]*mapping, 0, len(all))
	for _, e := range all {
		m, err := compileMapping(e)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
