// Package pattern implements structural code search with meta-variables.
//
// A pattern is ordinary source text in the target language. Identifiers of
// the form $NAME capture exactly one node; $$$NAME captures a contiguous run
// of zero or more sibling nodes; $_ and $$$_ match without capturing. Patterns
// are compared against trees by node kind and token text, so whitespace,
// comments, quote style and trailing separators never affect a match.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// ErrInvalidPattern is returned when pattern text is not a single valid
// statement or expression.
var ErrInvalidPattern = errors.New("invalid pattern")

var metaRe = regexp.MustCompile(`^\$(\$\$)?([A-Z_][A-Z0-9_]*)$`)

const wildcard = "_"

type cacheKey struct {
	lang lang.Language
	text string
}

var compiled = newCache(512)

func newCache(size int) *lru.Cache[cacheKey, *Pattern] {
	c, err := lru.New[cacheKey, *Pattern](size)
	if err != nil {
		panic(fmt.Sprintf("pattern cache: %v", err))
	}
	return c
}

// pnode is a detached copy of a pattern tree. Compiled patterns hold no
// tree-sitter memory so they can be cached and shared between goroutines.
type pnode struct {
	kind     string
	text     string
	named    bool
	meta     string
	multi    bool
	children []*pnode
}

// Pattern is a compiled structural pattern.
type Pattern struct {
	lang lang.Language
	src  string
	root *pnode
}

// String returns the pattern source.
func (p *Pattern) String() string { return p.src }

// Language returns the grammar the pattern was compiled for.
func (p *Pattern) Language() lang.Language { return p.lang }

// Compile parses text as a pattern for l. Results are cached per language.
func Compile(l lang.Language, text string) (*Pattern, error) {
	key := cacheKey{lang: l, text: text}
	if p, ok := compiled.Get(key); ok {
		return p, nil
	}

	tree, err := syntax.Parse(l, []byte(text))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if tree.HasError() {
		return nil, fmt.Errorf("%w: %q: syntax error at %s", ErrInvalidPattern, text, tree.ErrorLocation())
	}
	stmts := tree.Root().NamedChildren()
	if len(stmts) != 1 {
		return nil, fmt.Errorf("%w: %q: want exactly one statement, got %d", ErrInvalidPattern, text, len(stmts))
	}
	root := stmts[0]
	if root.Kind() == "expression_statement" {
		if inner := root.NamedChildren(); len(inner) == 1 {
			root = inner[0]
		}
	}

	p := &Pattern{lang: l, src: text, root: build(root)}
	compiled.Add(key, p)
	return p, nil
}

// MustCompile is like Compile but panics on error. Use it for patterns known
// at build time.
func MustCompile(l lang.Language, text string) *Pattern {
	p, err := Compile(l, text)
	if err != nil {
		panic(err)
	}
	return p
}

func build(n syntax.Node) *pnode {
	if n.IsNamed() {
		if m := metaRe.FindStringSubmatch(strings.TrimSpace(n.Text())); m != nil {
			return &pnode{kind: n.Kind(), named: true, meta: m[2], multi: m[1] != ""}
		}
	}
	pn := &pnode{kind: n.Kind(), named: n.IsNamed()}
	if n.Kind() == "string" {
		pn.text = stringValue(n.Text())
		return pn
	}
	children := significant(n)
	if len(children) == 0 {
		pn.text = n.Text()
		return pn
	}
	for _, c := range children {
		pn.children = append(pn.children, build(c))
	}
	return pn
}

// Match tests the pattern against n itself.
func (p *Pattern) Match(n syntax.Node) (Bindings, bool) {
	if n.IsZero() || !n.IsNamed() {
		return nil, false
	}
	b := Bindings{}
	if !matchNode(p.root, n, b) {
		return nil, false
	}
	return b, true
}

// FindAll returns every node under root (root included) that matches, in
// document order. Nested matches are all reported.
func (p *Pattern) FindAll(root syntax.Node) []Match {
	var out []Match
	root.Walk(func(n syntax.Node) bool {
		if n.IsComment() {
			return false
		}
		if b, ok := p.Match(n); ok {
			out = append(out, Match{Node: n, Bindings: b})
		}
		return true
	})
	return out
}

// Find returns the first match in document order.
func (p *Pattern) Find(root syntax.Node) (Match, bool) {
	var (
		found Match
		ok    bool
	)
	root.Walk(func(n syntax.Node) bool {
		if ok || n.IsComment() {
			return false
		}
		if b, matched := p.Match(n); matched {
			found, ok = Match{Node: n, Bindings: b}, true
			return false
		}
		return true
	})
	return found, ok
}

// FindAll compiles text for root's language and returns all matches.
func FindAll(root syntax.Node, text string) ([]Match, error) {
	p, err := Compile(root.Tree().Language(), text)
	if err != nil {
		return nil, err
	}
	return p.FindAll(root), nil
}

func matchNode(p *pnode, t syntax.Node, b Bindings) bool {
	if p.meta != "" {
		if p.multi {
			return b.bindMulti(p.meta, []syntax.Node{t})
		}
		return b.bindSingle(p.meta, t)
	}
	if p.kind != t.Kind() {
		return false
	}
	if p.kind == "string" {
		return p.text == stringValue(t.Text())
	}
	if len(p.children) == 0 {
		return p.text == t.Text()
	}
	return matchSeq(p.children, significant(t), b)
}

// matchSeq matches a pattern child list against a target child list. Only
// multi meta-variables introduce choice points; bindings are cloned per
// attempt so a failed branch leaves b untouched.
func matchSeq(ps []*pnode, ts []syntax.Node, b Bindings) bool {
	if len(ps) == 0 {
		for _, t := range ts {
			if t.IsNamed() || !separator(t.Kind()) {
				return false
			}
		}
		return true
	}

	p := ps[0]
	if p.meta != "" && p.multi {
		for k := 0; k <= len(ts); k++ {
			trial := b.clone()
			if trial.bindMulti(p.meta, namedOnly(ts[:k])) && matchSeq(ps[1:], ts[k:], trial) {
				b.merge(trial)
				return true
			}
		}
		return false
	}

	if len(ts) == 0 {
		for _, q := range ps {
			if q.named || q.meta != "" || !separator(q.kind) {
				return false
			}
		}
		return true
	}

	t := ts[0]
	if !p.named {
		switch {
		case !t.IsNamed() && t.Kind() == p.kind:
			return matchSeq(ps[1:], ts[1:], b)
		case separator(p.kind):
			return matchSeq(ps[1:], ts, b)
		case !t.IsNamed() && separator(t.Kind()):
			return matchSeq(ps, ts[1:], b)
		}
		return false
	}

	if !t.IsNamed() {
		if separator(t.Kind()) {
			return matchSeq(ps, ts[1:], b)
		}
		return false
	}

	trial := b.clone()
	if matchNode(p, t, trial) && matchSeq(ps[1:], ts[1:], trial) {
		b.merge(trial)
		return true
	}
	return false
}

// separator reports whether an anonymous token may be present on one side
// only, e.g. an optional semicolon or a trailing comma.
func separator(kind string) bool {
	return kind == ";" || kind == ","
}

func significant(n syntax.Node) []syntax.Node {
	all := n.Children()
	out := all[:0:0]
	for _, c := range all {
		if !c.IsComment() {
			out = append(out, c)
		}
	}
	return out
}

func namedOnly(ns []syntax.Node) []syntax.Node {
	out := make([]syntax.Node, 0, len(ns))
	for _, n := range ns {
		if n.IsNamed() {
			out = append(out, n)
		}
	}
	return out
}

// stringValue strips the surrounding quotes of a string literal.
func stringValue(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
