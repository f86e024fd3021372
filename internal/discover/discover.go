package discover

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DeusData/joi-to-zod/internal/joizod"
	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/syntax"
)

// IGNORE_PATTERNS are VCS and tool cache directories that never hold
// sources. They are skipped whatever the include globs say.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".git": true, ".hg": true, ".idea": true,
	".next": true, ".npm": true, ".nuxt": true, ".nyc_output": true,
	".pnpm-store": true, ".svn": true, ".turbo": true, ".vscode": true,
	".yarn": true,
}

// IGNORE_SUFFIXES are file suffixes to skip.
var IGNORE_SUFFIXES = []string{".d.ts", ".d.mts", ".d.cts", ".min.js", ".bundle.js", "~"}

// IgnoreFileName is read from the root when Options.IgnoreFile is empty.
const IgnoreFileName = ".joizodignore"

// DefaultInclude matches every file below the root.
var DefaultInclude = []string{"**/*"}

// DefaultExclude leaves installed packages and build output alone. It
// applies when Options.Exclude is nil; any explicit list replaces it.
var DefaultExclude = []string{
	"**/node_modules/**", "**/dist/**", "**/build/**", "**/out/**",
	"**/tmp/**", "**/vendor/**", "**/coverage/**", "**/bower_components/**",
}

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // relative to root, slash separated
	Language lang.Language // detected language
	Size     int64
}

// Options configures file discovery.
type Options struct {
	// Include and Exclude are doublestar globs matched against RelPath.
	// Empty Include means DefaultInclude, nil Exclude means DefaultExclude.
	Include []string
	Exclude []string
	// IgnoreFile holds extra exclude globs, one per line.
	IgnoreFile string
	// RequireImport keeps only files that import Joi.
	RequireImport bool
}

func (o *Options) include() []string {
	if o == nil || len(o.Include) == 0 {
		return DefaultInclude
	}
	return o.Include
}

func (o *Options) exclude() []string {
	if o == nil || o.Exclude == nil {
		return DefaultExclude
	}
	return o.Exclude
}

// Validate checks the glob syntax of every pattern.
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	for _, p := range append(append([]string{}, o.Include...), o.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob %q", p)
		}
	}
	return nil
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name, rel string, exclude []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	for _, pattern := range exclude {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, rel+"/"); matched {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Discover walks root and returns the candidate source files in walk order.
// root may also name a single file.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return discoverFile(root, st, opts)
	}

	exclude := append([]string(nil), opts.exclude()...)
	ignPath := filepath.Join(root, IgnoreFileName)
	if opts != nil && opts.IgnoreFile != "" {
		ignPath = opts.IgnoreFile
	}
	extra, _ := loadIgnoreFile(ignPath)
	exclude = append(exclude, extra...)
	include := opts.include()

	var files []FileInfo
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && shouldSkipDir(info.Name(), rel, exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		for _, suffix := range IGNORE_SUFFIXES {
			if strings.HasSuffix(path, suffix) {
				return nil
			}
		}
		l, ok := lang.LanguageForPath(path)
		if !ok {
			return nil
		}
		if !matchAny(include, rel) || matchAny(exclude, rel) {
			return nil
		}
		if opts != nil && opts.RequireImport {
			src, err := os.ReadFile(path)
			if err != nil || !HasSourceImport(l, src) {
				return nil
			}
		}
		files = append(files, FileInfo{Path: path, RelPath: rel, Language: l, Size: info.Size()})
		return nil
	})
	return files, err
}

func discoverFile(path string, st os.FileInfo, opts *Options) ([]FileInfo, error) {
	l, ok := lang.LanguageForPath(path)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
	if opts != nil && opts.RequireImport {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if !HasSourceImport(l, src) {
			return nil, nil
		}
	}
	return []FileInfo{{Path: path, RelPath: filepath.Base(path), Language: l, Size: st.Size()}}, nil
}

// HasSourceImport reports whether src imports Joi at the top level. Files
// that never mention a Joi module name are rejected without parsing.
func HasSourceImport(l lang.Language, src []byte) bool {
	mentioned := false
	for _, m := range joizod.SourceModules {
		if bytes.Contains(src, []byte(m)) {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return false
	}
	tree, err := syntax.Parse(l, src)
	if err != nil {
		return false
	}
	defer tree.Close()
	return joizod.FindSourceImport(tree.Root()) != nil
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
