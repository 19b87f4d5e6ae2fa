package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/amabrowser/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store Documents
}

// NewMCPServer creates an MCP server exposing document navigation as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"amabrowser",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("amabrowser: browse and prune logged question/answer documents."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("latest_document",
			mcp.WithDescription("Return the most recent document as JSON."),
		),
		mcpLatest(deps),
	)

	s.AddTool(
		mcp.NewTool("previous_document",
			mcp.WithDescription("Return the document immediately before the given id."),
			mcp.WithString("id", mcp.Description("Document id to step back from"), mcp.Required()),
		),
		mcpNeighbour(deps, "previous", deps.Store.Previous),
	)

	s.AddTool(
		mcp.NewTool("next_document",
			mcp.WithDescription("Return the document immediately after the given id."),
			mcp.WithString("id", mcp.Description("Document id to step forward from"), mcp.Required()),
		),
		mcpNeighbour(deps, "next", deps.Store.Next),
	)

	s.AddTool(
		mcp.NewTool("delete_document",
			mcp.WithDescription("Permanently delete the document with the given id."),
			mcp.WithString("id", mcp.Description("Document id to delete"), mcp.Required()),
		),
		mcpDelete(deps),
	)

	return s
}

func mcpLatest(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rec, err := deps.Store.Latest()
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError("no documents found"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load latest document: %v", err)), nil
		}
		return mcpText(string(rec.Body)), nil
	}
}

func mcpNeighbour(deps MCPDeps, direction string, lookup func(string) (storage.Record, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil || id == "" {
			return mcpError("id is required"), nil
		}
		rec, err := lookup(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("no %s document", direction)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load %s document: %v", direction, err)), nil
		}
		return mcpText(string(rec.Body)), nil
	}
}

func mcpDelete(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil || id == "" {
			return mcpError("id is required"), nil
		}
		err = deps.Store.Delete(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("document %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to delete: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Deleted document %s", id)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
