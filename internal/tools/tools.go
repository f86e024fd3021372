// Package tools exposes the joi-to-zod engine as MCP tools.
package tools

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/joi-to-zod/internal/joizod"
	"github.com/DeusData/joi-to-zod/internal/lang"
	"github.com/DeusData/joi-to-zod/internal/store"
)

// Version is reported to MCP clients and by the CLI.
var Version = "0.1.0"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp     *mcp.Server
	engine  *joizod.Engine
	journal *store.Store // nil disables list_runs and run recording

	// runMu serializes directory runs so two calls never write the same tree.
	runMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered. journal may
// be nil.
func NewServer(e *joizod.Engine, journal *store.Store) *Server {
	srv := &Server{
		engine:  e,
		journal: journal,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "joi-to-zod",
				Version: Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "transform_source",
		Description: "Rewrite Joi schemas in one TypeScript or JavaScript source text into Zod. Returns the rewritten text and the number of edits applied. Text without a Joi import is returned unchanged with state 'skipped'.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"source": {
					"type": "string",
					"description": "Source text to rewrite"
				},
				"language": {
					"type": "string",
					"description": "Language tag: ts, tsx or js. Defaults to the filename extension, then ts.",
					"enum": ["ts", "tsx", "js", "typescript", "javascript", "jsx"]
				},
				"filename": {
					"type": "string",
					"description": "File name used in errors and for language detection (optional)"
				}
			},
			"required": ["source"]
		}`),
	}, s.handleTransformSource)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "transform_directory",
		Description: "Rewrite every Joi-importing source file under a directory (or a single file) into Zod. With dry_run the files are left untouched and a unified diff per file is returned. Returns per-file status: transformed, skipped, unchanged or failed.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Directory or file path (absolute, or relative to the server's working directory)"
				},
				"dry_run": {
					"type": "boolean",
					"description": "Report diffs without writing files"
				},
				"include": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Globs of files to process, relative to path (default **/*)"
				},
				"exclude": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Globs of files to leave alone (default **/node_modules/**, **/dist/**)"
				},
				"sequential": {
					"type": "boolean",
					"description": "Process files one at a time"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleTransformDirectory)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "extract_schema",
		Description: "Rewrite a source file into Zod and return one top-level declaration together with every top-level declaration and import it depends on, as a standalone snippet.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "Name of the top-level declaration (e.g. 'userSchema')"
				},
				"path": {
					"type": "string",
					"description": "File to read. Either path or source is required."
				},
				"source": {
					"type": "string",
					"description": "Source text, used instead of path"
				},
				"language": {
					"type": "string",
					"description": "Language tag when passing source: ts, tsx or js"
				}
			},
			"required": ["name"]
		}`),
	}, s.handleExtractSchema)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_runs",
		Description: "List recent directory runs from the run journal with their totals, most recent first. Pass run_id to get the per-file outcomes of one run.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {
					"type": "integer",
					"description": "Max runs (default 20)"
				},
				"run_id": {
					"type": "integer",
					"description": "Return the file outcomes of this run"
				}
			}
		}`),
	}, s.handleListRuns)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}

// getStringsArg extracts a string array argument, ignoring non-string items.
func getStringsArg(args map[string]any, key string) []string {
	v, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// resolveLanguage picks the language from an explicit tag, then the file
// extension, then falls back to TypeScript.
func resolveLanguage(tag, filename string) (lang.Language, error) {
	if tag != "" {
		return lang.Parse(tag)
	}
	if filename != "" {
		if l, ok := lang.LanguageForPath(filepath.Base(filename)); ok {
			return l, nil
		}
	}
	return lang.TypeScript, nil
}
