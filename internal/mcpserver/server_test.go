package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ebullient/obsidian-journal-reflect/internal/convo"
	"github.com/ebullient/obsidian-journal-reflect/internal/expand"
	"github.com/ebullient/obsidian-journal-reflect/internal/generate"
	"github.com/ebullient/obsidian-journal-reflect/internal/ollama"
	"github.com/ebullient/obsidian-journal-reflect/internal/prompt"
	"github.com/ebullient/obsidian-journal-reflect/internal/storage"
)

type stubClient struct{}

func (c *stubClient) CheckConnection(ctx context.Context) bool { return true }

func (c *stubClient) Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	return &ollama.GenerateResponse{Response: "A reflection.", Done: true}, nil
}

type noNames struct{}

func (noNames) FindByName(name string) (string, error) { return "", nil }

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	slots := map[string]prompt.Slot{
		prompt.DefaultKey: {
			Label:               "Reflection",
			CalloutHeading:      "[!assistant]+ Reflection",
			ExcludeCalloutTypes: "assistant",
		},
	}
	svc := generate.NewService(
		store,
		slots,
		prompt.NewResolver(store, slots, nil),
		expand.New(store, noNames{}, nil),
		convo.NewStore(),
		&stubClient{},
		generate.Settings{ServerURL: "http://localhost:11434", DefaultModel: "llama3.1"},
		nil,
	)

	srv := New(svc, store)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "reflect_note":
		result, err = srv.reflectNote(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_prompts":
		result, err = srv.listPrompts(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_prompt_contract":
		result, err = srv.getPromptContract(ctx, req)
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

func TestReflectNote(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("journal/today.md", []byte("Dear diary, long day.\n"))

	r := callTool(t, srv, "reflect_note", map[string]interface{}{
		"path": "journal/today.md",
	})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("reflect failed: %s", text)
	}
	if !strings.Contains(text, "A reflection.") {
		t.Errorf("result = %q", text)
	}
	if !strings.Contains(text, "[!assistant]+ Reflection") {
		t.Errorf("missing callout heading: %q", text)
	}
}

func TestReflectNote_Apply(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("n.md", []byte("entry text\n"))

	r := callTool(t, srv, "reflect_note", map[string]interface{}{
		"path":  "n.md",
		"apply": "true",
	})
	if r.IsError {
		t.Fatalf("reflect failed: %s", resultText(r))
	}

	data, err := store.Read("n.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "> A reflection.") {
		t.Errorf("note not updated: %q", data)
	}
}

func TestReflectNote_Missing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "reflect_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestReadNote(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("test.md", []byte("# Test\nHello"))

	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "test.md"})
	if resultText(r) != "# Test\nHello" {
		t.Errorf("read result = %q", resultText(r))
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListPrompts(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_prompts", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "reflection: Reflection") {
		t.Errorf("prompts = %q", text)
	}
}

func TestListNotes(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", []byte("a"))
	_ = store.Write("b.md", []byte("b"))

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	if resultText(r) == "" {
		t.Error("list returned empty")
	}
}

func TestGetPromptContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_prompt_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "prompt-file") {
		t.Error("contract missing override documentation")
	}
}
