package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/joi-to-zod/internal/batch"
	"github.com/DeusData/joi-to-zod/internal/discover"
)

func (s *Server) handleTransformSource(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	source, ok := args["source"].(string)
	if !ok {
		return errResult("source is required"), nil
	}
	filename := getStringArg(args, "filename")
	l, err := resolveLanguage(getStringArg(args, "language"), filename)
	if err != nil {
		return errResult(err.Error()), nil
	}
	if filename == "" {
		filename = "<source>"
	}

	res, err := s.engine.Transform(ctx, []byte(source), l, filename)
	if err != nil {
		return errResult(fmt.Sprintf("transform failed: %v", err)), nil
	}
	defer res.Close()

	return jsonResult(map[string]any{
		"text":            res.Text,
		"changes_applied": res.ChangesApplied,
		"state":           string(res.State),
		"commits":         len(res.History) - 1,
		"language":        string(l),
	}), nil
}

func (s *Server) handleTransformDirectory(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("path is required"), nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}
	if _, err := os.Stat(absPath); err != nil {
		return errResult(fmt.Sprintf("path not found: %s", absPath)), nil
	}

	opts := &discover.Options{
		Include:       getStringsArg(args, "include"),
		Exclude:       getStringsArg(args, "exclude"),
		RequireImport: true,
	}
	if _, ok := args["exclude"]; !ok {
		opts.Exclude = discover.DefaultExclude
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	files, err := discover.Discover(ctx, absPath, opts)
	if err != nil {
		return errResult(fmt.Sprintf("discover failed: %v", err)), nil
	}

	dryRun := getBoolArg(args, "dry_run")
	runner, err := batch.New(batch.Options{
		Engine:   s.engine,
		DryRun:   dryRun,
		Parallel: !getBoolArg(args, "sequential"),
		Journal:  s.journal,
	})
	if err != nil {
		return errResult(err.Error()), nil
	}
	sum, err := runner.Run(ctx, absPath, files)
	if err != nil && sum == nil {
		return errResult(fmt.Sprintf("run failed: %v", err)), nil
	}

	type fileInfo struct {
		Path    string `json:"path"`
		Status  string `json:"status"`
		Changes int    `json:"changes,omitempty"`
		Error   string `json:"error,omitempty"`
		Diff    string `json:"diff,omitempty"`
	}
	result := make([]fileInfo, 0, len(sum.Files))
	for _, f := range sum.Files {
		fi := fileInfo{
			Path:    f.File.RelPath,
			Status:  string(f.Status),
			Changes: f.Changes,
			Diff:    f.Diff,
		}
		if f.Err != nil {
			fi.Error = f.Err.Error()
		}
		result = append(result, fi)
	}

	out := map[string]any{
		"root":        absPath,
		"dry_run":     dryRun,
		"transformed": sum.Transformed,
		"skipped":     sum.Skipped,
		"unchanged":   sum.Unchanged,
		"failed":      sum.Failed,
		"changes":     sum.Changes,
		"elapsed_ms":  sum.Elapsed.Milliseconds(),
		"files":       result,
	}
	if sum.RunID != 0 {
		out["run_id"] = sum.RunID
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return jsonResult(out), nil
}

func (s *Server) handleExtractSchema(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "name")
	if name == "" {
		return errResult("name is required"), nil
	}
	path := getStringArg(args, "path")
	source, hasSource := args["source"].(string)
	if path == "" && !hasSource {
		return errResult("path or source is required"), nil
	}

	filename := "<source>"
	if !hasSource {
		data, err := os.ReadFile(path)
		if err != nil {
			return errResult(fmt.Sprintf("read failed: %v", err)), nil
		}
		source, filename = string(data), path
	}
	l, err := resolveLanguage(getStringArg(args, "language"), path)
	if err != nil {
		return errResult(err.Error()), nil
	}

	snippet, err := s.engine.Extract(ctx, []byte(source), l, filename, name)
	if err != nil {
		return errResult(fmt.Sprintf("extract failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"name":    name,
		"snippet": snippet,
	}), nil
}
