package main

import (
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/DeusData/joi-to-zod/internal/store"
	"github.com/DeusData/joi-to-zod/internal/tools"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		ef      engineFlags
		journal string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the rewrite as MCP tools on stdio",
		Long: `Start a Model Context Protocol server on stdio. Tools:
  transform_source     rewrite a source text
  transform_directory  rewrite (or dry-run) every Joi-importing file under a path
  extract_schema       one converted schema with its dependencies
  list_runs            recent runs from the journal (needs --journal)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, e, err := ef.load(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("journal") {
				cfg.Journal = journal
			}

			var j *store.Store
			if cfg.Journal != "" {
				if j, err = store.OpenPath(cfg.Journal); err != nil {
					return fmt.Errorf("journal: %w", err)
				}
				defer j.Close()
			}

			slog.Info("serve.start", "version", version, "journal", cfg.Journal)
			srv := tools.NewServer(e, j)
			if err := srv.MCPServer().Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}
	ef.register(cmd)
	cmd.Flags().StringVar(&journal, "journal", "", "SQLite run journal shared with the run command")
	return cmd
}
