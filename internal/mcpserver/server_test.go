package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/enexmd/internal/converter"
	"github.com/starford/enexmd/internal/models"
	"github.com/starford/enexmd/internal/noteservice"
	"github.com/starford/enexmd/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Env) {
	t.Helper()
	env := testutil.TestService(t)
	return New(env.Store, env.Service), env
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no call-tool helper, so the handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "convert_enex":
		result, err = srv.convertEnex(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "list_attachments":
		result, err = srv.listAttachments(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// convertSample converts the sample archive to disk through the tool.
func convertSample(t *testing.T, srv *Server) converter.Stats {
	t.Helper()
	in := testutil.WriteArchive(t, t.TempDir(), "trip.enex")
	r := callTool(t, srv, "convert_enex", map[string]any{"path": in})
	if r.IsError {
		t.Fatalf("convert_enex: %s", resultText(r))
	}
	var stats converter.Stats
	if err := json.Unmarshal([]byte(resultText(r)), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	return stats
}

func TestConvertEnex_Path(t *testing.T) {
	srv, env := testServer(t)
	stats := convertSample(t, srv)
	if stats.Notes != 2 || stats.Attachments != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if ok, _ := env.Store.Exists(stats.OutputDir + "/Groceries.md"); !ok {
		t.Error("note not written")
	}
}

func TestConvertEnex_Content(t *testing.T) {
	srv, env := testServer(t)
	r := callTool(t, srv, "convert_enex", map[string]any{"content": testutil.SampleArchive})
	if r.IsError {
		t.Fatalf("convert_enex: %s", resultText(r))
	}
	var notes []noteservice.ConvertedNote
	_ = json.Unmarshal([]byte(resultText(r)), &notes)
	if len(notes) != 2 || notes[0].SkippedAttachments != 1 {
		t.Errorf("notes = %+v", notes)
	}
	if files, _ := env.Store.List(""); len(files) != 0 {
		t.Errorf("in-memory conversion wrote files: %v", files)
	}
}

func TestConvertEnex_ArgumentErrors(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "convert_enex", map[string]any{}); !r.IsError {
		t.Error("expected error without arguments")
	}
	if r := callTool(t, srv, "convert_enex", map[string]any{"path": "a.enex", "content": "<x/>"}); !r.IsError {
		t.Error("expected error with both arguments")
	}
	if r := callTool(t, srv, "convert_enex", map[string]any{"path": "/nonexistent/a.enex"}); !r.IsError {
		t.Error("expected error for missing archive")
	}
}

func TestReadAndListNotes(t *testing.T) {
	srv, _ := testServer(t)
	stats := convertSample(t, srv)

	r := callTool(t, srv, "list_notes", map[string]any{"folder": stats.OutputDir})
	text := resultText(r)
	if !strings.Contains(text, stats.OutputDir+"/Trip_plan.md") || !strings.Contains(text, stats.OutputDir+"/Groceries.md") {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]any{"path": stats.OutputDir + "/Groceries.md"})
	if !strings.HasPrefix(resultText(r), "# Groceries\n") {
		t.Errorf("read = %q", resultText(r))
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t)
	convertSample(t, srv)

	r := callTool(t, srv, "search_notes", map[string]any{"query": "milk"})
	if r.IsError || !strings.Contains(resultText(r), "Groceries") {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestListAttachments(t *testing.T) {
	srv, _ := testServer(t)
	stats := convertSample(t, srv)

	r := callTool(t, srv, "list_attachments", map[string]any{"path": stats.OutputDir + "/Trip_plan.md"})
	var atts []models.WrittenAttachment
	_ = json.Unmarshal([]byte(resultText(r)), &atts)
	if len(atts) != 1 || atts[0].Path != "Trip_plan_attachments/map.png" || !atts[0].Resolved {
		t.Errorf("attachments = %+v", atts)
	}

	if r := callTool(t, srv, "list_attachments", map[string]any{"path": "missing.md"}); !r.IsError {
		t.Error("expected error for unknown note")
	}
}

func TestTemplateResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readTemplateResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != TemplateURI || !strings.Contains(tc.Text, "## Note Content") {
		t.Errorf("resource = %+v", contents)
	}
}
