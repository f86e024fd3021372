// Command joi-to-zod rewrites Joi schemas in TypeScript and JavaScript
// sources into Zod.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/DeusData/joi-to-zod/internal/config"
	"github.com/DeusData/joi-to-zod/internal/joizod"
	"github.com/DeusData/joi-to-zod/internal/tools"
)

var version = "dev"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	verbose bool
	quiet   bool
}

func main() {
	tools.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "joi-to-zod",
		Short: "Rewrite Joi schemas into Zod",
		Long: `joi-to-zod rewrites Joi schema definitions in TypeScript and JavaScript
sources into equivalent Zod schemas.

Commands:
  run        Rewrite every Joi-importing file under a path
  transform  Rewrite one file (or stdin) and print the result
  extract    Print one converted schema with everything it depends on
  serve      Expose the rewrite as MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newTransformCmd(opts))
	rootCmd.AddCommand(newExtractCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "joi-to-zod %s\n", version)
		},
	}
}

// setupLogging installs the default slog handler. Flags win over the
// configured level.
func (o *rootOptions) setupLogging(w io.Writer, cfg *config.Config) {
	level := cfg.Level()
	switch {
	case o.verbose:
		level = slog.LevelDebug
	case o.quiet:
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// engineFlags are the flags that shape the rewrite itself.
type engineFlags struct {
	configPath      string
	inlineConstants bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "config file (default .joizod.yaml in the working directory or $HOME)")
	cmd.Flags().BoolVar(&f.inlineConstants, "inline-constants", false, "inline literal constants and string enums used in schemas")
}

// load reads the config, applies the engine flags and builds the engine.
func (f *engineFlags) load(cmd *cobra.Command, opts *rootOptions) (*config.Config, *joizod.Engine, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("inline-constants") {
		cfg.InlineConstants = f.inlineConstants
	}
	opts.setupLogging(cmd.ErrOrStderr(), cfg)

	mappings, err := config.LoadMappings(cfg.MappingFile)
	if err != nil {
		return nil, nil, err
	}
	e, err := joizod.New(joizod.Options{
		TargetAlias:     cfg.TargetAlias,
		InlineConstants: cfg.InlineConstants,
		Mappings:        mappings,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, e, nil
}
