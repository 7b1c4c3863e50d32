// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes journal reflection tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ebullient/obsidian-journal-reflect/internal/generate"
	"github.com/ebullient/obsidian-journal-reflect/internal/storage"
)

// Server wraps the MCP server with reflection tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *generate.Service
	store storage.Provider
}

// New creates a new MCP server with all tools registered.
func New(svc *generate.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"journal-reflect",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("reflect_note",
		mcp.WithDescription("Generate an AI reflection for a journal note. "+
			"Resolves the prompt, expands linked notes, filters excluded callouts, "+
			"and returns the generated text with its callout heading."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. journal/today.md)")),
		mcp.WithString("prompt", mcp.Description("Prompt slot name (empty for the default)")),
		mcp.WithString("apply", mcp.Description("Set to 'true' to append the result to the note")),
	), s.reflectNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_prompts",
		mcp.WithDescription("List the configured prompt slots with their labels and prompt files."),
	), s.listPrompts)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_prompt_contract",
		mcp.WithDescription("Returns the prompt file format. "+
			"Call this before authoring prompt files to ensure correct structure."),
	), s.getPromptContract)

	// Resource: prompt file format.
	s.mcp.AddResource(
		mcp.NewResource("reflect://prompt-format", "Prompt File Format",
			mcp.WithResourceDescription("Prompt definition file format: frontmatter parameters plus instruction body."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPromptFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) reflectNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	promptKey := ""
	if p, err := req.RequireString("prompt"); err == nil {
		promptKey = p
	}
	apply := false
	if a, err := req.RequireString("apply"); err == nil {
		apply = a == "true"
	}

	res, err := s.svc.Generate(ctx, path, "", promptKey)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if apply {
		if err := s.svc.Apply(path, res); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("generated but failed to write note: %v", err)), nil
		}
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listPrompts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slots := s.svc.Slots()
	keys := make([]string, 0, len(slots))
	for key := range slots {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var lines []string
	for _, key := range keys {
		slot := slots[key]
		line := key + ": " + slot.Label
		if slot.PromptFile != "" {
			line += " (" + slot.PromptFile + ")"
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getPromptContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PromptFormatContract), nil
}

func (s *Server) readPromptFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "reflect://prompt-format",
			MIMEType: "text/markdown",
			Text:     PromptFormatContract,
		},
	}, nil
}
