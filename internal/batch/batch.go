// Package batch runs the joi-to-zod engine over a set of discovered files.
//
// Files are independent: each one is read, transformed and, unless the run
// is a dry run, written back on its own. A failing file is reported in the
// summary and never aborts the others.
package batch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/joi-to-zod/internal/discover"
	"github.com/DeusData/joi-to-zod/internal/joizod"
	"github.com/DeusData/joi-to-zod/internal/store"
)

// Status is the outcome of one file.
type Status string

const (
	// StatusTransformed means the engine changed the file.
	StatusTransformed Status = "transformed"
	// StatusSkipped means the file has no Joi import or nothing to rewrite.
	StatusSkipped Status = "skipped"
	// StatusUnchanged means the journal saw the same content in an earlier run.
	StatusUnchanged Status = "unchanged"
	// StatusFailed means the file could not be read, parsed, rewritten or written.
	StatusFailed Status = "failed"
)

// Options configures a Runner.
type Options struct {
	// Engine defaults to joizod.New with zero Options.
	Engine *joizod.Engine
	DryRun bool
	// Parallel fans files out over runtime.NumCPU() workers.
	Parallel bool
	// FileTimeout bounds each file's transform. Zero means no limit.
	FileTimeout time.Duration
	// Journal is optional. When set, runs and file outcomes are recorded
	// and files whose content matches the last written run are skipped.
	Journal *store.Store
}

// FileResult is the outcome of one file.
type FileResult struct {
	File    discover.FileInfo
	Status  Status
	Changes int
	Err     error
	// Diff is the unified diff of the rewrite, set on dry runs only.
	Diff    string
	Elapsed time.Duration

	hash string // content hash after processing, "" when unknown
}

// Summary aggregates a run.
type Summary struct {
	RunID       int64 // 0 without a journal
	Root        string
	DryRun      bool
	Files       []FileResult
	Transformed int
	Skipped     int
	Unchanged   int
	Failed      int
	Changes     int
	Elapsed     time.Duration
}

// Runner executes batches. It is safe to reuse across runs.
type Runner struct {
	opts Options
}

// New returns a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Engine == nil {
		e, err := joizod.New(joizod.Options{})
		if err != nil {
			return nil, err
		}
		opts.Engine = e
	}
	return &Runner{opts: opts}, nil
}

// Run processes files found under root. Cancelling ctx abandons files not
// yet started; files already written stay written. The returned error is
// non-nil only for cancellation or journal failures, and the summary is
// still returned in that case.
func (r *Runner) Run(ctx context.Context, root string, files []discover.FileInfo) (*Summary, error) {
	t := time.Now()
	sum := &Summary{Root: root, DryRun: r.opts.DryRun}

	var known map[string]string
	if j := r.opts.Journal; j != nil {
		var err error
		if known, err = j.GetFileHashes(root); err != nil {
			return sum, fmt.Errorf("journal: %w", err)
		}
		if sum.RunID, err = j.BeginRun(root, r.opts.DryRun); err != nil {
			return sum, fmt.Errorf("journal: %w", err)
		}
	}

	slog.Info("batch.start", "root", root, "files", len(files), "dry_run", r.opts.DryRun, "parallel", r.opts.Parallel)

	results := make([]FileResult, len(files))
	started := make([]bool, len(files))
	if r.opts.Parallel && len(files) > 1 {
		numWorkers := runtime.NumCPU()
		if numWorkers > len(files) {
			numWorkers = len(files)
		}
		g := new(errgroup.Group)
		g.SetLimit(numWorkers)
		for i, f := range files {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				started[i] = true
				results[i] = r.processFile(ctx, f, known[f.RelPath])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, f := range files {
			if ctx.Err() != nil {
				break
			}
			started[i] = true
			results[i] = r.processFile(ctx, f, known[f.RelPath])
		}
	}

	for i, res := range results {
		if !started[i] {
			continue
		}
		sum.Files = append(sum.Files, res)
		switch res.Status {
		case StatusTransformed:
			sum.Transformed++
			sum.Changes += res.Changes
		case StatusSkipped:
			sum.Skipped++
		case StatusUnchanged:
			sum.Unchanged++
		case StatusFailed:
			sum.Failed++
		}
	}
	sum.Elapsed = time.Since(t)

	var errs []error
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	if r.opts.Journal != nil {
		if err := r.record(sum); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}

	slog.Info("batch.done",
		"root", root,
		"transformed", sum.Transformed,
		"skipped", sum.Skipped,
		"unchanged", sum.Unchanged,
		"failed", sum.Failed,
		"changes", sum.Changes,
		"elapsed", sum.Elapsed,
	)
	return sum, errors.Join(errs...)
}

func (r *Runner) processFile(ctx context.Context, f discover.FileInfo, knownHash string) FileResult {
	t := time.Now()
	res := r.transformFile(ctx, f, knownHash)
	res.File = f
	res.Elapsed = time.Since(t)
	if res.Err != nil {
		res.Status = StatusFailed
		slog.Warn("batch.file.err", "file", f.RelPath, "err", res.Err)
	}
	return res
}

func (r *Runner) transformFile(ctx context.Context, f discover.FileInfo, knownHash string) FileResult {
	st, err := os.Stat(f.Path)
	if err != nil {
		return FileResult{Err: err}
	}
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return FileResult{Err: err}
	}
	hash := contentHash(src)
	if knownHash != "" && knownHash == hash {
		return FileResult{Status: StatusUnchanged, hash: hash}
	}

	if r.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.FileTimeout)
		defer cancel()
	}
	out, err := r.opts.Engine.Transform(ctx, src, f.Language, f.RelPath)
	if err != nil {
		return FileResult{Err: err}
	}
	defer out.Close()

	if !out.Changed() {
		return FileResult{Status: StatusSkipped, hash: hash}
	}
	if r.opts.DryRun {
		return FileResult{
			Status:  StatusTransformed,
			Changes: out.ChangesApplied,
			Diff:    UnifiedDiff(f.RelPath, string(src), out.Text),
		}
	}
	if err := os.WriteFile(f.Path, []byte(out.Text), st.Mode().Perm()); err != nil {
		return FileResult{Err: fmt.Errorf("write %s: %w", f.RelPath, err)}
	}
	slog.Debug("batch.file.write", "file", f.RelPath, "changes", out.ChangesApplied)
	return FileResult{
		Status:  StatusTransformed,
		Changes: out.ChangesApplied,
		hash:    contentHash([]byte(out.Text)),
	}
}

// record writes the run and its file outcomes in one transaction. Hashes
// are only stored for real runs so a dry run never hides a file from the
// next real one.
func (r *Runner) record(sum *Summary) error {
	return r.opts.Journal.WithTransaction(func(tx *store.Store) error {
		for _, res := range sum.Files {
			fr := &store.FileResult{
				RunID:     sum.RunID,
				RelPath:   res.File.RelPath,
				Status:    string(res.Status),
				Changes:   res.Changes,
				ElapsedMS: res.Elapsed.Milliseconds(),
			}
			if res.Err != nil {
				fr.Error = res.Err.Error()
			}
			if err := tx.RecordFile(fr); err != nil {
				return err
			}
			if sum.DryRun || res.hash == "" {
				continue
			}
			if err := tx.UpsertFileHash(sum.Root, res.File.RelPath, res.hash); err != nil {
				return err
			}
		}
		return tx.FinishRun(&store.Run{
			ID:          sum.RunID,
			Files:       len(sum.Files),
			Transformed: sum.Transformed,
			Skipped:     sum.Skipped,
			Unchanged:   sum.Unchanged,
			Failed:      sum.Failed,
			Changes:     sum.Changes,
		})
	})
}

func contentHash(data []byte) string {
	h := xxh3.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
