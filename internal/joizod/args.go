package joizod

import (
	"fmt"
	"strings"
)

// SplitArgs splits the text between a call's parentheses into top-level
// arguments. Commas nested in brackets, string and template literals, regex
// literals and comments do not split. Arguments are trimmed and a trailing
// empty argument (from a trailing comma) is dropped.
func SplitArgs(s string) ([]string, error) {
	var (
		out   []string
		depth []byte
		last  = 0
		// prev is the last significant byte, used to tell a regex literal
		// from a division.
		prev byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			end, err := scanString(s, i)
			if err != nil {
				return nil, err
			}
			i = end - 1
		case c == '`':
			end, err := scanTemplate(s, i)
			if err != nil {
				return nil, err
			}
			i = end - 1
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			continue
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated comment at %d", i)
			}
			i += end + 3
			continue
		case c == '/' && regexAllowedAfter(prev):
			end, err := ScanRegexLiteral(s, i)
			if err != nil {
				return nil, err
			}
			i = end - 1
		case c == '(' || c == '[' || c == '{':
			depth = append(depth, closerOf(c))
		case c == ')' || c == ']' || c == '}':
			if len(depth) == 0 || depth[len(depth)-1] != c {
				return nil, fmt.Errorf("unbalanced %q at %d", c, i)
			}
			depth = depth[:len(depth)-1]
		case c == ',' && len(depth) == 0:
			out = append(out, strings.TrimSpace(s[last:i]))
			last = i + 1
		}
		if !isSpace(c) {
			prev = s[i]
		}
	}
	if len(depth) > 0 {
		return nil, fmt.Errorf("unbalanced %q", depth[len(depth)-1])
	}
	if tail := strings.TrimSpace(s[last:]); tail != "" {
		out = append(out, tail)
	}
	return out, nil
}

// ParseCall splits a template such as `step(1 / 10**$ARGS)` into its method
// name and arguments.
func ParseCall(template string) (string, []string, error) {
	t := strings.TrimSpace(template)
	open := strings.IndexByte(t, '(')
	if open <= 0 || !strings.HasSuffix(t, ")") {
		return "", nil, fmt.Errorf("call template %q: want name(args)", template)
	}
	name := strings.TrimSpace(t[:open])
	for i := 0; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return "", nil, fmt.Errorf("call template %q: bad method name", template)
		}
	}
	args, err := SplitArgs(t[open+1 : len(t)-1])
	if err != nil {
		return "", nil, fmt.Errorf("call template %q: %w", template, err)
	}
	return name, args, nil
}

func scanString(s string, start int) (int, error) {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			return i + 1, nil
		case '\n':
			return 0, fmt.Errorf("unterminated string at %d", start)
		}
	}
	return 0, fmt.Errorf("unterminated string at %d", start)
}

// scanTemplate skips a template literal, including `${...}` substitutions
// that may themselves contain strings and templates.
func scanTemplate(s string, start int) (int, error) {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '`':
			return i + 1, nil
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				end, err := scanSubstitution(s, i+2)
				if err != nil {
					return 0, err
				}
				i = end - 1
			}
		}
	}
	return 0, fmt.Errorf("unterminated template at %d", start)
}

func scanSubstitution(s string, start int) (int, error) {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '\'', '"':
			end, err := scanString(s, i)
			if err != nil {
				return 0, err
			}
			i = end - 1
		case '`':
			end, err := scanTemplate(s, i)
			if err != nil {
				return 0, err
			}
			i = end - 1
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated substitution at %d", start)
}

// regexAllowedAfter reports whether a '/' following prev starts a regex
// literal rather than a division.
func regexAllowedAfter(prev byte) bool {
	if prev == 0 {
		return true
	}
	return strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0
}

func closerOf(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	}
	return '}'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
