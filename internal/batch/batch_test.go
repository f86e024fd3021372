package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/joi-to-zod/internal/discover"
	"github.com/DeusData/joi-to-zod/internal/joizod"
	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/store"
)

const (
	joiJS  = "const Joi = require('joi');\nconst s = Joi.string().valid('a', 'b');\n"
	zodJS  = "const { z } = require('zod');\nconst s = z.enum(['a', 'b']);\n"
	plain  = "export const x = 1;\n"
	broken = "import Joi from 'joi';\nconst = ;\n"
)

func fixture(t *testing.T, files map[string]string) (string, []discover.FileInfo) {
	t.Helper()
	dir := t.TempDir()
	var out []discover.FileInfo
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		l, ok := lang.LanguageForPath(rel)
		require.True(t, ok, rel)
		out = append(out, discover.FileInfo{Path: path, RelPath: rel, Language: l, Size: int64(len(content))})
	}
	return dir, out
}

func readFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	return string(data)
}

func byPath(sum *Summary) map[string]FileResult {
	m := make(map[string]FileResult, len(sum.Files))
	for _, f := range sum.Files {
		m[f.File.RelPath] = f
	}
	return m
}

func TestRunWritesTransformedFiles(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		dir, files := fixture(t, map[string]string{
			"a.js":   joiJS,
			"b.ts":   plain,
			"bad.ts": broken,
		})
		r, err := New(Options{Parallel: parallel})
		require.NoError(t, err)

		sum, err := r.Run(context.Background(), dir, files)
		require.NoError(t, err)

		assert.Equal(t, 1, sum.Transformed)
		assert.Equal(t, 1, sum.Skipped)
		assert.Equal(t, 1, sum.Failed)
		assert.Positive(t, sum.Changes)
		assert.Zero(t, sum.RunID)

		results := byPath(sum)
		assert.Equal(t, StatusTransformed, results["a.js"].Status)
		assert.Empty(t, results["a.js"].Diff)
		assert.Equal(t, StatusSkipped, results["b.ts"].Status)
		assert.Equal(t, StatusFailed, results["bad.ts"].Status)
		assert.Error(t, results["bad.ts"].Err)

		assert.Equal(t, zodJS, readFile(t, dir, "a.js"))
		assert.Equal(t, plain, readFile(t, dir, "b.ts"))
		assert.Equal(t, broken, readFile(t, dir, "bad.ts"))
	}
}

func TestRunDryRunNeverWrites(t *testing.T) {
	dir, files := fixture(t, map[string]string{"a.js": joiJS})
	r, err := New(Options{DryRun: true})
	require.NoError(t, err)

	sum, err := r.Run(context.Background(), dir, files)
	require.NoError(t, err)
	require.Len(t, sum.Files, 1)

	res := sum.Files[0]
	assert.Equal(t, StatusTransformed, res.Status)
	assert.Contains(t, res.Diff, "--- a/a.js\n+++ b/a.js\n")
	assert.Contains(t, res.Diff, "-const Joi = require('joi');\n")
	assert.Contains(t, res.Diff, "+const s = z.enum(['a', 'b']);\n")
	assert.Equal(t, joiJS, readFile(t, dir, "a.js"))
}

func TestRunJournalSkipsUnchangedFiles(t *testing.T) {
	j, err := store.OpenMemory()
	require.NoError(t, err)
	defer j.Close()

	dir, files := fixture(t, map[string]string{"a.js": joiJS, "b.ts": plain})
	r, err := New(Options{Journal: j})
	require.NoError(t, err)

	first, err := r.Run(context.Background(), dir, files)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Transformed)
	assert.NotZero(t, first.RunID)

	second, err := r.Run(context.Background(), dir, files)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Unchanged)
	assert.Zero(t, second.Transformed)

	runs, err := j.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].ID)
	assert.Equal(t, 2, runs[0].Unchanged)
	assert.Equal(t, 1, runs[1].Transformed)

	recorded, err := j.FileResults(first.RunID)
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.Equal(t, "a.js", recorded[0].RelPath)
	assert.Equal(t, string(StatusTransformed), recorded[0].Status)
}

func TestRunDryRunKeepsJournalHashesEmpty(t *testing.T) {
	j, err := store.OpenMemory()
	require.NoError(t, err)
	defer j.Close()

	dir, files := fixture(t, map[string]string{"a.js": joiJS})
	r, err := New(Options{Journal: j, DryRun: true})
	require.NoError(t, err)

	_, err = r.Run(context.Background(), dir, files)
	require.NoError(t, err)

	hashes, err := j.GetFileHashes(dir)
	require.NoError(t, err)
	assert.Empty(t, hashes)

	runs, err := j.ListRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].DryRun)
}

func TestRunUsesEngineOptions(t *testing.T) {
	e, err := joizod.New(joizod.Options{TargetAlias: "zod"})
	require.NoError(t, err)
	dir, files := fixture(t, map[string]string{"a.ts": "import Joi from 'joi';\nexport const s = Joi.string();\n"})

	r, err := New(Options{Engine: e, FileTimeout: time.Minute})
	require.NoError(t, err)
	_, err = r.Run(context.Background(), dir, files)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, dir, "a.ts"), "zod.string()")
}

func TestRunCancelled(t *testing.T) {
	dir, files := fixture(t, map[string]string{"a.js": joiJS})
	r, err := New(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := r.Run(ctx, dir, files)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sum.Files)
	assert.Equal(t, joiJS, readFile(t, dir, "a.js"))
}

func TestUnifiedDiff(t *testing.T) {
	assert.Empty(t, UnifiedDiff("f", "same\n", "same\n"))

	got := UnifiedDiff("f", "a\nb\nc\n", "a\nB\nc\n")
	assert.Equal(t, "--- a/f\n+++ b/f\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n", got)

	var before, after []string
	for i := 1; i <= 10; i++ {
		line := strings.Repeat("x", i)
		before = append(before, line)
		after = append(after, line)
	}
	after[0], after[9] = "first", "last"
	got = UnifiedDiff("f", strings.Join(before, "\n")+"\n", strings.Join(after, "\n")+"\n")
	assert.Equal(t, 2, strings.Count(got, "@@ -"))
	assert.Contains(t, got, "@@ -1,4 +1,4 @@\n")
	assert.Contains(t, got, "@@ -7,4 +7,4 @@\n")
}

func TestUnifiedDiffMissingFinalNewline(t *testing.T) {
	got := UnifiedDiff("f", "a", "b")
	assert.Equal(t, "--- a/f\n+++ b/f\n@@ -1,1 +1,1 @@\n-a\n\\ No newline at end of file\n+b\n\\ No newline at end of file\n", got)
}
