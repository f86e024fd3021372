package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeusData/joi-to-zod/internal/batch"
	"github.com/DeusData/joi-to-zod/internal/discover"
	"github.com/DeusData/joi-to-zod/internal/store"
	"github.com/DeusData/joi-to-zod/internal/watcher"
)

// runCommand holds the flags of the run command.
type runCommand struct {
	engineFlags

	dryRun     bool
	include    []string
	exclude    []string
	sequential bool
	journal    string
	timeout    time.Duration
	watch      bool
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	rc := &runCommand{}
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Rewrite every Joi-importing file under a path",
		Long: `Rewrite every TypeScript and JavaScript file under path (default: the
working directory) that imports joi or @hapi/joi. Files are written in
place unless --dry-run is given, in which case a diff is printed instead.

A failing file is reported and never stops the others; the exit code is
non-zero only when the path cannot be read or the journal fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return rc.run(cmd, opts, path)
		},
	}
	rc.register(cmd)
	cmd.Flags().BoolVarP(&rc.dryRun, "dry-run", "d", false, "print diffs instead of writing files")
	cmd.Flags().StringSliceVarP(&rc.include, "include", "s", nil, "globs of files to process (default **/*)")
	cmd.Flags().StringSliceVarP(&rc.exclude, "exclude", "i", nil, "globs of files to leave alone (default node_modules, dist and other build output)")
	cmd.Flags().BoolVar(&rc.sequential, "sequential", false, "process files one at a time")
	cmd.Flags().StringVar(&rc.journal, "journal", "", "SQLite run journal; files unchanged since the last run are skipped")
	cmd.Flags().DurationVar(&rc.timeout, "timeout", 0, "per-file time limit (0 = none)")
	cmd.Flags().BoolVarP(&rc.watch, "watch", "w", false, "keep running and rewrite files again whenever they change")
	return cmd
}

func (rc *runCommand) run(cmd *cobra.Command, opts *rootOptions, path string) error {
	cfg, e, err := rc.load(cmd, opts)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = rc.dryRun
	}
	if flags.Changed("include") {
		cfg.Include = rc.include
	}
	if flags.Changed("exclude") {
		cfg.Exclude = rc.exclude
	}
	if flags.Changed("sequential") {
		cfg.Parallel = !rc.sequential
	}
	if flags.Changed("journal") {
		cfg.Journal = rc.journal
	}
	if flags.Changed("timeout") {
		cfg.FileTimeout = rc.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dopts := &discover.Options{
		Include:       cfg.Include,
		Exclude:       cfg.Exclude,
		RequireImport: true,
	}

	var journal *store.Store
	if cfg.Journal != "" {
		if journal, err = store.OpenPath(cfg.Journal); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		defer journal.Close()
	}

	runner, err := batch.New(batch.Options{
		Engine:      e,
		DryRun:      cfg.DryRun,
		Parallel:    cfg.Parallel,
		FileTimeout: cfg.FileTimeout,
		Journal:     journal,
	})
	if err != nil {
		return err
	}

	once := func(ctx context.Context, root string) error {
		t := time.Now()
		files, err := discover.Discover(ctx, root, dopts)
		if err != nil {
			return fmt.Errorf("discover %s: %w", path, err)
		}
		sum, runErr := runner.Run(ctx, root, files)
		if !opts.quiet {
			r := &reporter{w: cmd.OutOrStdout(), verbose: opts.verbose}
			r.diffs(sum)
			r.summary(sum)
			r.timing(sum, time.Since(t))
		}
		return runErr
	}
	if err := once(cmd.Context(), root); err != nil || !rc.watch {
		return err
	}

	slog.Info("watch.start", "root", root)
	watcher.New(root, dopts, once).Run(cmd.Context())
	return nil
}
