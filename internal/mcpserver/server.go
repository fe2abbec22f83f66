// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes enexmd tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/noteservice"
	"github.com/starford/enexmd/internal/storage"
)

// TemplateURI identifies the note template resource.
const TemplateURI = "enexmd://note-template"

// Server wraps the MCP server with enexmd tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(store storage.Provider, svc *noteservice.Service) *Server {
	s := &Server{store: store, svc: svc}

	s.mcp = server.NewMCPServer(
		"enexmd",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("convert_enex",
		mcp.WithDescription("Convert an Evernote export. With 'path' the archive is read from the "+
			"server and written to the output tree, attachments included. With 'content' the "+
			"archive XML is converted in memory and the Markdown is returned; attachments are skipped."),
		mcp.WithString("path", mcp.Description("Path of an .enex file on the server")),
		mcp.WithString("content", mcp.Description("ENEX document to convert in memory")),
	), s.convertEnex)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through converted notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a converted note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the output root (e.g. 20190202_172208/export/Note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List converted notes, optionally within one run or archive folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_attachments",
		mcp.WithDescription("List the attachments written for a converted note, with their outcome."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note")),
	), s.listAttachments)

	s.mcp.AddResource(
		mcp.NewResource(TemplateURI, "Note Template",
			mcp.WithResourceDescription("Layout of converted notes and their attachment folders."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTemplateResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) convertEnex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	content := req.GetString("content", "")

	switch {
	case path != "" && content != "":
		return mcp.NewToolResultError("pass either path or content, not both"), nil
	case path != "":
		stats, err := s.svc.ConvertFile(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(stats), nil
	case content != "":
		notes, err := s.svc.Convert(ctx, strings.NewReader(content))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(notes), nil
	default:
		return mcp.NewToolResultError("path or content is required"), nil
	}
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

func (s *Server) listNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.List(req.GetString("folder", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}

	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) listAttachments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	atts, err := s.svc.Attachments(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(atts), nil
}

func (s *Server) readTemplateResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TemplateURI,
			MIMEType: "text/markdown",
			Text:     NoteTemplate,
		},
	}, nil
}
