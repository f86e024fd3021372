package joizod

import (
	"fmt"
	"strings"

	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// Primitive is the base schema kind a chain starts from.
type Primitive string

const (
	PrimitiveNone         Primitive = ""
	PrimitiveWildcard     Primitive = "*"
	PrimitiveAny          Primitive = "any"
	PrimitiveString       Primitive = "string"
	PrimitiveNumber       Primitive = "number"
	PrimitiveBoolean      Primitive = "boolean"
	PrimitiveObject       Primitive = "object"
	PrimitiveArray        Primitive = "array"
	PrimitiveDate         Primitive = "date"
	PrimitiveAlternatives Primitive = "alternatives"
	PrimitiveBinary       Primitive = "binary"
	PrimitiveFunction     Primitive = "function"
	PrimitiveSymbol       Primitive = "symbol"
)

// constructors maps the first call of a chain to its primitive. Target
// constructors are listed too so partially converted chains keep their
// class.
var constructors = map[string]Primitive{
	"any":          PrimitiveAny,
	"string":       PrimitiveString,
	"enum":         PrimitiveString,
	"number":       PrimitiveNumber,
	"boolean":      PrimitiveBoolean,
	"bool":         PrimitiveBoolean,
	"object":       PrimitiveObject,
	"record":       PrimitiveObject,
	"array":        PrimitiveArray,
	"date":         PrimitiveDate,
	"alternatives": PrimitiveAlternatives,
	"alt":          PrimitiveAlternatives,
	"union":        PrimitiveAlternatives,
	"binary":       PrimitiveBinary,
	"function":     PrimitiveFunction,
	"func":         PrimitiveFunction,
	"symbol":       PrimitiveSymbol,
}

// ParsePrimitive resolves a primitive class name. "*" is the wildcard.
func ParsePrimitive(s string) (Primitive, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == string(PrimitiveWildcard) {
		return PrimitiveWildcard, nil
	}
	if p, ok := constructors[s]; ok {
		return p, nil
	}
	return PrimitiveNone, fmt.Errorf("unknown primitive %q", s)
}

// Applies reports whether an entry scoped to p applies to a chain of class c.
func (p Primitive) Applies(c Primitive) bool {
	return p == PrimitiveWildcard || p == c
}

// Segment is one `.name(args)` call of a chain.
type Segment struct {
	Name     string
	Call     syntax.Node // call_expression
	Member   syntax.Node // member_expression in function position
	Property syntax.Node // property_identifier
	Args     syntax.Node // arguments
}

// ArgNodes returns the argument expressions.
func (s Segment) ArgNodes() []syntax.Node {
	return s.Args.NamedChildren()
}

// Span is the byte range of `name(args)`.
func (s Segment) Span() (int, int) {
	return s.Property.Start(), s.Args.End()
}

// RemovalSpan is the byte range of `.name(args)` including any whitespace
// before the dot.
func (s Segment) RemovalSpan() (int, int) {
	return s.Member.Field("object").End(), s.Args.End()
}

// Chain is a maximal call chain rooted at the source alias, such as
// `Joi.string().min(1).required()`. Chains nested inside arguments are
// separate chains.
type Chain struct {
	Root      syntax.Node // alias identifier
	Node      syntax.Node // outermost call
	Segments  []Segment
	Primitive Primitive
}

// Has reports whether any segment is named one of names.
func (c *Chain) Has(names ...string) bool {
	for _, s := range c.Segments {
		for _, n := range names {
			if s.Name == n {
				return true
			}
		}
	}
	return false
}

// enumPresence are the markers that may sit between a primitive and its
// value list without changing which values are accepted.
var enumPresence = map[string]bool{"required": true, "optional": true, "exist": true, "exists": true}

// onlyPresenceBefore reports whether every segment between the primitive and
// segment i is a presence marker.
func (c *Chain) onlyPresenceBefore(i int) bool {
	for j := 1; j < i && j < len(c.Segments); j++ {
		if !enumPresence[c.Segments[j].Name] {
			return false
		}
	}
	return true
}

// findChains returns every chain rooted at alias under root, in document
// order of their roots.
func findChains(root syntax.Node, alias string) []*Chain {
	if alias == "" {
		return nil
	}
	var out []*Chain
	root.Walk(func(n syntax.Node) bool {
		if n.Kind() != "identifier" || n.Text() != alias {
			return true
		}
		if c := climb(n); c != nil {
			out = append(out, c)
		}
		return true
	})
	return out
}

func climb(id syntax.Node) *Chain {
	c := &Chain{Root: id}
	cur := id
	for {
		member := cur.Parent()
		if member.Kind() != "member_expression" || !member.Field("object").Same(cur) {
			break
		}
		call := member.Parent()
		if call.Kind() != "call_expression" || !call.Field("function").Same(member) {
			break
		}
		prop := member.Field("property")
		args := call.Field("arguments")
		if prop.IsZero() || args.Kind() != "arguments" {
			break
		}
		c.Segments = append(c.Segments, Segment{
			Name:     prop.Text(),
			Call:     call,
			Member:   member,
			Property: prop,
			Args:     args,
		})
		cur = call
	}
	if len(c.Segments) == 0 {
		return nil
	}
	c.Node = cur
	c.Primitive = constructors[c.Segments[0].Name]
	return c
}

type span struct{ start, end int }

// chainSet indexes the chains of one tree.
type chainSet struct {
	chains []*Chain
	// segments maps a call span to the segment it belongs to.
	segments map[span]Segment
}

func newChainSet(root syntax.Node, alias string) *chainSet {
	cs := &chainSet{chains: findChains(root, alias), segments: map[span]Segment{}}
	for _, c := range cs.chains {
		for _, s := range c.Segments {
			cs.segments[span{s.Call.Start(), s.Call.End()}] = s
		}
	}
	return cs
}

// objectShapeMethods take an object literal whose values are property schemas.
var objectShapeMethods = map[string]bool{"object": true, "keys": true, "append": true}

// isProperty reports whether c is the value of a key in an object literal
// passed to a shape-defining call of another chain.
func (cs *chainSet) isProperty(c *Chain) bool {
	pair := c.Node.Parent()
	if pair.Kind() != "pair" || !pair.Field("value").Same(c.Node) {
		return false
	}
	obj := pair.Parent()
	if obj.Kind() != "object" {
		return false
	}
	args := obj.Parent()
	if args.Kind() != "arguments" {
		return false
	}
	call := args.Parent()
	seg, ok := cs.segments[span{call.Start(), call.End()}]
	return ok && objectShapeMethods[seg.Name]
}

// segments returns every segment of every chain, innermost first.
func (cs *chainSet) allSegments() []chainSegment {
	var out []chainSegment
	for _, c := range cs.chains {
		for i, s := range c.Segments {
			out = append(out, chainSegment{chain: c, index: i, seg: s})
		}
	}
	return out
}

type chainSegment struct {
	chain *Chain
	index int
	seg   Segment
}
