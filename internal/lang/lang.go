package lang

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Language represents a supported source language.
type Language string

const (
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{TypeScript, TSX, JavaScript}
}

// LanguageSpec defines the tree-sitter node types the rewrite engine relies on.
type LanguageSpec struct {
	Language       Language
	FileExtensions []string

	// DeclarationNodeTypes lists top-level variable declaration node kinds.
	DeclarationNodeTypes []string
	// EnumNodeTypes lists enum declaration node kinds (empty for JavaScript).
	EnumNodeTypes   []string
	ImportNodeTypes []string
	ExportNodeTypes []string
	// TypeAssertions reports whether `expr as T` is valid syntax.
	TypeAssertions bool
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".ts").
func ForExtension(ext string) *LanguageSpec {
	return registry[strings.ToLower(ext)]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(l Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == l {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := ForExtension(ext)
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// LanguageForPath detects the language of a file from its extension.
func LanguageForPath(path string) (Language, bool) {
	return LanguageForExtension(filepath.Ext(path))
}

// Parse resolves a language tag such as "ts", "typescript" or "jsx".
func Parse(tag string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "ts", "typescript", "mts", "cts":
		return TypeScript, nil
	case "tsx":
		return TSX, nil
	case "js", "javascript", "jsx", "mjs", "cjs":
		return JavaScript, nil
	}
	return "", fmt.Errorf("unsupported language: %q", tag)
}

// Extensions returns every registered file extension, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
