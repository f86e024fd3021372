package parser

import (
	"fmt"
	"sync"
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/joi-to-zod/internal/lang"
)

func TestParseTypeScript(t *testing.T) {
	source := []byte(`import Joi from 'joi';

enum Job { Dev = 'dev', Ops = 'ops' }

export const user = Joi.object().keys({
  name: Joi.string().required(),
  job: Joi.string().valid(...Object.values(Job)),
});
`)
	tree, err := Parse(lang.TypeScript, source)
	if err != nil {
		t.Fatalf("Parse TypeScript: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}
	if root.HasError() {
		t.Fatalf("unexpected syntax error at %v", FirstError(root).StartPosition())
	}

	var calls, enums int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "call_expression":
			calls++
		case "enum_declaration":
			enums++
		}
		return true
	})
	if enums != 1 {
		t.Errorf("expected 1 enum_declaration, got %d", enums)
	}
	if calls < 6 {
		t.Errorf("expected at least 6 call_expressions, got %d", calls)
	}
}

func TestParseJavaScriptRequire(t *testing.T) {
	source := []byte("const Joi = require('joi');\nmodule.exports = Joi.number().integer();\n")
	tree, err := Parse(lang.JavaScript, source)
	if err != nil {
		t.Fatalf("Parse JavaScript: %v", err)
	}
	defer tree.Close()

	first := tree.RootNode().NamedChild(0)
	if first == nil || first.Kind() != "lexical_declaration" {
		t.Fatalf("expected lexical_declaration, got %v", first)
	}
	if got := NodeText(first, source); got != "const Joi = require('joi');" {
		t.Errorf("NodeText = %q", got)
	}
}

func TestParseTSXSpreadAssertion(t *testing.T) {
	source := []byte("const s = z.enum([...Object.values(Job) as [string, ...Array<string>]]);\n")
	tree, err := Parse(lang.TSX, source)
	if err != nil {
		t.Fatalf("Parse TSX: %v", err)
	}
	defer tree.Close()
	if tree.RootNode().HasError() {
		t.Fatal("tuple assertion inside spread should parse cleanly")
	}
}

func TestFirstError(t *testing.T) {
	source := []byte("const x = Joi.string(;\n")
	tree, err := Parse(lang.TypeScript, source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	if FirstError(tree.RootNode()) == nil {
		t.Fatal("expected an error node")
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	if _, err := Parse(lang.Language("python"), []byte("x = 1")); err == nil {
		t.Fatal("expected error for unsupported language")
	}
	if _, err := GetLanguage(lang.Language("go")); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestParsePooledConcurrently(t *testing.T) {
	sources := map[lang.Language][]byte{
		lang.TypeScript: []byte("const a: number = 1;\n"),
		lang.TSX:        []byte("const el = <div>{a}</div>;\n"),
		lang.JavaScript: []byte("const b = require('joi');\n"),
	}

	var wg sync.WaitGroup
	errs := make(chan error, 3*16)
	for l, src := range sources {
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tree, err := Parse(l, src)
				if err != nil {
					errs <- err
					return
				}
				defer tree.Close()
				if tree.RootNode().HasError() {
					errs <- fmt.Errorf("%s: unexpected syntax error", l)
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
