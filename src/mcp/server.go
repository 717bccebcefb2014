package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"buildtrend/src/buildstore"
)

// DefaultListLimit caps list_builds when no limit is given.
const DefaultListLimit = 50

// Server is the MCP server for buildtrend.
type Server struct {
	mcpServer *server.MCPServer
	source    BuildSource
}

// NewServer creates an MCP server over the store file at storePath.
func NewServer(storePath string) *Server {
	return NewServerWithSource(FileSource{Path: storePath})
}

// NewServerWithSource creates an MCP server reading builds from source.
func NewServerWithSource(source BuildSource) *Server {
	s := server.NewMCPServer(
		"buildtrend",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		source:    source,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_builds",
		mcp.WithDescription("List recorded successful e2e builds, oldest first. Start keys look like 2018-10-04T08:00:03 and bounds compare as strings. When more builds match than the limit, the most recent ones are returned."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("since",
			mcp.Description("Inclusive lower bound on the start key"),
		),
		mcp.WithString("until",
			mcp.Description("Inclusive upper bound on the start key"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max builds to return (default: %d)", DefaultListLimit)),
		),
	)

	getTool := mcp.NewTool("get_build",
		mcp.WithDescription("Get one recorded build by its start key."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start key, e.g. 2018-10-04T08:00:03"),
		),
	)

	statsTool := mcp.NewTool("build_stats",
		mcp.WithDescription("Summarize build durations in minutes: count, min, max, mean and median."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("since",
			mcp.Description("Inclusive lower bound on the start key"),
		),
		mcp.WithString("until",
			mcp.Description("Inclusive upper bound on the start key"),
		),
	)

	s.mcpServer.AddTool(listTool, s.handleListBuilds)
	s.mcpServer.AddTool(getTool, s.handleGetBuild)
	s.mcpServer.AddTool(statsTool, s.handleBuildStats)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleListBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", DefaultListLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	entries, err := s.entries(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := BuildList{Matched: len(entries), Builds: []Build{}}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	for _, e := range entries {
		resp.Builds = append(resp.Builds, toBuild(e))
	}

	return jsonResult(resp)
}

func (s *Server) handleGetBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := request.GetString("start", "")
	if start == "" {
		return mcp.NewToolResultError("start parameter is required"), nil
	}

	store, err := s.source.Load()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load builds: %v", err)), nil
	}

	record, found := store.Get(start)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("build not found: start=%s", start)), nil
	}

	return jsonResult(toBuild(buildstore.Entry{Start: start, Record: record}))
}

func (s *Server) handleBuildStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.entries(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(toStats(buildstore.Summarize(entries)))
}

// entries loads the store and applies the since/until arguments.
func (s *Server) entries(request mcp.CallToolRequest) ([]buildstore.Entry, error) {
	store, err := s.source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load builds: %w", err)
	}
	since := request.GetString("since", "")
	until := request.GetString("until", "")
	return buildstore.Between(store.Entries(), since, until), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
