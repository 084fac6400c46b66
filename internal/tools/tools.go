// Package tools exposes the analysis engine to agents as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codeflow/internal/indexer"
	"github.com/DeusData/codeflow/internal/store"
)

// Version is reported to MCP clients.
var Version = "0.1.0"

// Options holds tool defaults.
type Options struct {
	MaxDepth   int // call graph depth when the caller passes none
	LabelWidth int // CFG label truncation width
}

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp     *mcp.Server
	store   *store.Store
	indexer *indexer.Indexer
	opts    Options

	// indexMu serializes index runs started from tools and the watcher.
	indexMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store, ix *indexer.Indexer, opts Options) *Server {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 3
	}
	srv := &Server{
		store:   s,
		indexer: ix,
		opts:    opts,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codeflow",
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

// Run serves tools over stdio until ctx is cancelled or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Index runs the indexer under the server's index lock. The watcher uses it
// so tool calls and file events never index concurrently.
func (s *Server) Index(ctx context.Context, project, root string) (*indexer.Summary, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.indexer.Index(ctx, project, root)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_repository",
		Description: "Index or refresh a repository. Parses every supported source file, stores functions, classes and structs, resolves call and inheritance edges, and reports what changed since the previous index.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repo_path": {
					"type": "string",
					"description": "Path to the repository root"
				},
				"project": {
					"type": "string",
					"description": "Project name (default: derived from the path)"
				}
			},
			"required": ["repo_path"]
		}`),
	}, s.handleIndexRepository)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List indexed projects with root path, index time and entity/edge counts.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListProjects)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_project",
		Description: "Delete an indexed project and all of its entities, edges and references.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "Project to delete"}
			},
			"required": ["project"]
		}`),
	}, s.handleDeleteProject)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_entities",
		Description: "Search functions, classes and structs by kind, name regex and file glob. Results carry call in/out degree.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "Project name (optional when only one is indexed)"},
				"kind": {"type": "string", "enum": ["function", "class", "struct"]},
				"name_pattern": {"type": "string", "description": "Regex over the symbol (e.g. '^Handle')"},
				"file_pattern": {"type": "string", "description": "Glob over the file path (e.g. 'src/**/*.py')"},
				"include_source": {"type": "boolean", "description": "Include each entity's source text"},
				"limit": {"type": "integer", "description": "Max results (default 50, max 200)"},
				"offset": {"type": "integer", "description": "Results to skip"}
			}
		}`),
	}, s.handleSearchEntities)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_call_graph",
		Description: "Return the call graph around a symbol: callees and callers up to a depth, each edge annotated with the depth at which it was reached in either direction.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol": {"type": "string", "description": "Root function name"},
				"project": {"type": "string"},
				"depth": {"type": "integer", "description": "Maximum depth (0-10, default 3)"}
			},
			"required": ["symbol"]
		}`),
	}, s.handleGetCallGraph)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_control_flow",
		Description: "Build the control-flow graph of a function, given its symbol or a file and line. Returns nodes, labeled edges and cyclomatic complexity, or a Mermaid flowchart.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string"},
				"symbol": {"type": "string", "description": "Function name"},
				"file": {"type": "string", "description": "File path relative to the project root (with line)"},
				"line": {"type": "integer", "description": "A line inside the function"},
				"format": {"type": "string", "enum": ["json", "mermaid"], "description": "Output format (default json)"}
			}
		}`),
	}, s.handleGetControlFlow)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_references",
		Description: "List every occurrence of an identifier with its role, whether it defines or writes the symbol, and the source line.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol": {"type": "string"},
				"project": {"type": "string"},
				"limit": {"type": "integer", "description": "Max results (default 200)"}
			},
			"required": ["symbol"]
		}`),
	}, s.handleFindReferences)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return textResult(string(b))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
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
	s, _ := args[key].(string)
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

// resolveProject returns the named project, or the only indexed one when
// name is empty.
func (s *Server) resolveProject(ctx context.Context, name string) (*store.Project, error) {
	return s.store.ResolveProject(ctx, name)
}
