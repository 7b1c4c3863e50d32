package generate

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ebullient/obsidian-journal-reflect/internal/apperr"
	"github.com/ebullient/obsidian-journal-reflect/internal/convo"
	"github.com/ebullient/obsidian-journal-reflect/internal/expand"
	"github.com/ebullient/obsidian-journal-reflect/internal/models"
	"github.com/ebullient/obsidian-journal-reflect/internal/ollama"
	"github.com/ebullient/obsidian-journal-reflect/internal/prompt"
)

type fakeVault struct {
	files map[string]string
}

func (v *fakeVault) List(dir string) ([]models.NoteMetadata, error) { return nil, nil }

func (v *fakeVault) Read(path string) ([]byte, error) {
	s, ok := v.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(s), nil
}

func (v *fakeVault) Write(path string, content []byte) error {
	v.files[path] = string(content)
	return nil
}

func (v *fakeVault) Exists(path string) bool {
	_, ok := v.files[path]
	return ok
}

func (v *fakeVault) FindByName(name string) (string, error) { return "", nil }

type fakeClient struct {
	up       bool
	response string
	tokens   []int
	err      error
	gotReq   ollama.GenerateRequest
	calls    int
}

func (c *fakeClient) CheckConnection(ctx context.Context) bool { return c.up }

func (c *fakeClient) Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	c.calls++
	c.gotReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &ollama.GenerateResponse{Response: c.response, Context: c.tokens, Done: true}, nil
}

type noticeLog struct {
	msgs []string
}

func (n *noticeLog) Notify(msg string) { n.msgs = append(n.msgs, msg) }

func testService(t *testing.T, vault *fakeVault, client *fakeClient) (*Service, *noticeLog) {
	t.Helper()
	slots := map[string]prompt.Slot{
		prompt.DefaultKey: {
			Label:               "Reflection",
			CalloutHeading:      "[!assistant]+ Reflection",
			ExcludeCalloutTypes: "assistant",
		},
		"filed": {
			Label:      "Filed",
			PromptFile: "prompts/filed.md",
		},
	}
	notices := &noticeLog{}
	svc := NewService(
		vault,
		slots,
		prompt.NewResolver(vault, slots, notices),
		expand.New(vault, vault, nil),
		convo.NewStore(),
		client,
		Settings{ServerURL: "http://localhost:11434", DefaultModel: "llama3.1"},
		notices,
	)
	return svc, notices
}

func TestGenerate_HappyPath(t *testing.T) {
	vault := &fakeVault{files: map[string]string{
		"journal/today.md": "Dear diary, long day.\n",
	}}
	client := &fakeClient{up: true, response: "A reflection.\n"}
	svc, _ := testService(t, vault, client)

	res, err := svc.Generate(context.Background(), "journal/today.md", "", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Text != "A reflection." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.PromptKey != prompt.DefaultKey {
		t.Errorf("PromptKey = %q", res.PromptKey)
	}
	if res.CalloutHeading != "[!assistant]+ Reflection" {
		t.Errorf("CalloutHeading = %q", res.CalloutHeading)
	}
	if client.gotReq.Model != "llama3.1" {
		t.Errorf("model = %q", client.gotReq.Model)
	}
	if !strings.Contains(client.gotReq.Prompt, "long day") {
		t.Errorf("prompt = %q", client.gotReq.Prompt)
	}
	if client.gotReq.System == "" {
		t.Error("system instruction missing")
	}
}

func TestGenerate_EditorTextWins(t *testing.T) {
	vault := &fakeVault{files: map[string]string{
		"n.md": "stale body\n",
	}}
	client := &fakeClient{up: true, response: "ok"}
	svc, _ := testService(t, vault, client)

	if _, err := svc.Generate(context.Background(), "n.md", "fresh editor text", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(client.gotReq.Prompt, "fresh editor text") {
		t.Errorf("prompt = %q, want editor text", client.gotReq.Prompt)
	}
	if strings.Contains(client.gotReq.Prompt, "stale body") {
		t.Error("stored body should not be sent when editor text is provided")
	}
}

func TestGenerate_UnknownPrompt(t *testing.T) {
	vault := &fakeVault{files: map[string]string{"n.md": "x"}}
	svc, notices := testService(t, vault, &fakeClient{up: true})

	_, err := svc.Generate(context.Background(), "n.md", "", "nope")
	if !errors.Is(err, apperr.ErrUnknownPrompt) {
		t.Fatalf("err = %v, want ErrUnknownPrompt", err)
	}
	if len(notices.msgs) == 0 {
		t.Error("expected a user notice")
	}
}

func TestGenerate_NoteNotFound(t *testing.T) {
	svc, _ := testService(t, &fakeVault{files: map[string]string{}}, &fakeClient{up: true})
	_, err := svc.Generate(context.Background(), "missing.md", "", "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGenerate_EmptyAfterFiltering(t *testing.T) {
	vault := &fakeVault{files: map[string]string{
		"n.md": "> [!assistant]+ Reflection\n> old output\n",
	}}
	svc, _ := testService(t, vault, &fakeClient{up: true})

	_, err := svc.Generate(context.Background(), "n.md", "", "")
	if !errors.Is(err, apperr.ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestGenerate_NoModel(t *testing.T) {
	vault := &fakeVault{files: map[string]string{"n.md": "text"}}
	svc, _ := testService(t, vault, &fakeClient{up: true})
	svc.settings.DefaultModel = ""

	_, err := svc.Generate(context.Background(), "n.md", "", "")
	if !errors.Is(err, apperr.ErrNoModel) {
		t.Fatalf("err = %v, want ErrNoModel", err)
	}
}

func TestGenerate_NoServer(t *testing.T) {
	vault := &fakeVault{files: map[string]string{"n.md": "text"}}
	svc, _ := testService(t, vault, &fakeClient{up: true})
	svc.settings.ServerURL = ""

	_, err := svc.Generate(context.Background(), "n.md", "", "")
	if !errors.Is(err, apperr.ErrNoServer) {
		t.Fatalf("err = %v, want ErrNoServer", err)
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	vault := &fakeVault{files: map[string]string{"n.md": "text"}}
	svc, _ := testService(t, vault, &fakeClient{up: false})

	_, err := svc.Generate(context.Background(), "n.md", "", "")
	if !errors.Is(err, apperr.ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
}

func TestGenerate_ContinuationRoundTrip(t *testing.T) {
	vault := &fakeVault{files: map[string]string{
		"n.md":             "entry text\n",
		"prompts/filed.md": "---\nisContinuous: true\n---\nReflect kindly.\n",
	}}
	client := &fakeClient{up: true, response: "first", tokens: []int{1, 2, 3}}
	svc, _ := testService(t, vault, client)

	if _, err := svc.Generate(context.Background(), "n.md", "", "filed"); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if len(client.gotReq.Context) != 0 {
		t.Errorf("first request should have no context tokens, got %v", client.gotReq.Context)
	}

	if _, err := svc.Generate(context.Background(), "n.md", "", "filed"); err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if len(client.gotReq.Context) != 3 {
		t.Errorf("second request context = %v, want stored tokens", client.gotReq.Context)
	}
}

func TestGenerate_PromptFileModelOverride(t *testing.T) {
	vault := &fakeVault{files: map[string]string{
		"n.md":             "entry\n",
		"prompts/filed.md": "---\nmodel: mistral\ntemperature: 0.2\n---\nBe brief.\n",
	}}
	client := &fakeClient{up: true, response: "ok"}
	svc, _ := testService(t, vault, client)

	if _, err := svc.Generate(context.Background(), "n.md", "", "filed"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if client.gotReq.Model != "mistral" {
		t.Errorf("model = %q, want prompt-file override", client.gotReq.Model)
	}
	if client.gotReq.System != "Be brief." {
		t.Errorf("system = %q", client.gotReq.System)
	}
	if client.gotReq.Options.Temperature == nil || *client.gotReq.Options.Temperature != 0.2 {
		t.Errorf("temperature = %+v", client.gotReq.Options.Temperature)
	}
}

func TestGenerate_InferenceError(t *testing.T) {
	vault := &fakeVault{files: map[string]string{"n.md": "text"}}
	client := &fakeClient{up: true, err: errors.New("boom")}
	svc, notices := testService(t, vault, client)

	if _, err := svc.Generate(context.Background(), "n.md", "", ""); err == nil {
		t.Fatal("expected error")
	}
	if len(notices.msgs) == 0 {
		t.Error("expected a user notice on failure")
	}
}

func TestApply_AppendsBlockquote(t *testing.T) {
	vault := &fakeVault{files: map[string]string{
		"n.md": "entry text\n",
	}}
	svc, _ := testService(t, vault, &fakeClient{up: true})

	err := svc.Apply("n.md", &Result{
		Text:           "line1\nline2",
		PromptKey:      prompt.DefaultKey,
		CalloutHeading: "[!assistant]+ Reflection",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := "entry text\n\n> [!assistant]+ Reflection\n> line1\n> line2\n"
	if vault.files["n.md"] != want {
		t.Errorf("note = %q\nwant %q", vault.files["n.md"], want)
	}
}

func TestApply_MissingNote(t *testing.T) {
	svc, _ := testService(t, &fakeVault{files: map[string]string{}}, &fakeClient{up: true})
	if err := svc.Apply("gone.md", &Result{Text: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
