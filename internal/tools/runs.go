package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/joi-to-zod/internal/store"
)

const defaultRunLimit = 20

func (s *Server) handleListRuns(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.journal == nil {
		return errResult("run journal is disabled (start the server with --journal)"), nil
	}
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	if id := getIntArg(args, "run_id", 0); id > 0 {
		run, err := s.journal.GetRun(int64(id))
		if err != nil {
			return errResult(err.Error()), nil
		}
		files, err := s.journal.FileResults(run.ID)
		if err != nil {
			return errResult(fmt.Sprintf("file results: %v", err)), nil
		}

		type fileInfo struct {
			Path      string `json:"path"`
			Status    string `json:"status"`
			Changes   int    `json:"changes"`
			Error     string `json:"error,omitempty"`
			ElapsedMS int64  `json:"elapsed_ms"`
		}
		result := make([]fileInfo, 0, len(files))
		for _, f := range files {
			result = append(result, fileInfo{
				Path:      f.RelPath,
				Status:    f.Status,
				Changes:   f.Changes,
				Error:     f.Error,
				ElapsedMS: f.ElapsedMS,
			})
		}
		return jsonResult(map[string]any{
			"run":   runInfoOf(run),
			"files": result,
		}), nil
	}

	runs, err := s.journal.ListRuns(getIntArg(args, "limit", defaultRunLimit))
	if err != nil {
		return errResult(fmt.Sprintf("list runs: %v", err)), nil
	}
	result := make([]runInfo, 0, len(runs))
	for _, r := range runs {
		result = append(result, runInfoOf(r))
	}
	return jsonResult(result), nil
}

type runInfo struct {
	ID          int64  `json:"id"`
	Root        string `json:"root"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at,omitempty"`
	DryRun      bool   `json:"dry_run"`
	Files       int    `json:"files"`
	Transformed int    `json:"transformed"`
	Skipped     int    `json:"skipped"`
	Unchanged   int    `json:"unchanged"`
	Failed      int    `json:"failed"`
	Changes     int    `json:"changes"`
}

func runInfoOf(r *store.Run) runInfo {
	return runInfo{
		ID:          r.ID,
		Root:        r.Root,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		DryRun:      r.DryRun,
		Files:       r.Files,
		Transformed: r.Transformed,
		Skipped:     r.Skipped,
		Unchanged:   r.Unchanged,
		Failed:      r.Failed,
		Changes:     r.Changes,
	}
}
