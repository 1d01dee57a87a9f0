package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calegann/chatpanel/internal/models"
	"github.com/calegann/chatpanel/internal/server"
	"github.com/calegann/chatpanel/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *mockCommands, *session.Store) {
	t.Helper()

	hub := server.NewHub(discardLogger())
	commands := &mockCommands{}
	store := session.NewStore()

	srv := server.New("localhost:0", hub, commands, store, discardLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, commands, store
}

func TestHandleHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestHandleCommand(t *testing.T) {
	ts, commands, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/command", "application/json",
		strings.NewReader(`{"command":"newChat"}`))
	if err != nil {
		t.Fatalf("POST /command: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	got := commands.snapshot()
	if len(got) != 1 {
		t.Fatalf("handler received %d commands, want 1", len(got))
	}
	if got[0].Command != "newChat" {
		t.Errorf("command = %q, want %q", got[0].Command, "newChat")
	}
}

func TestHandleCommandValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: "{not json"},
		{name: "missing command", body: `{"text":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, commands, _ := newTestServer(t)

			resp, err := http.Post(ts.URL+"/command", "application/json",
				strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST /command: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
			if got := commands.snapshot(); len(got) != 0 {
				t.Errorf("handler received %d commands, want 0", len(got))
			}
		})
	}
}

func TestHandleCommandMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/command")
	if err != nil {
		t.Fatalf("GET /command: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHandleExport(t *testing.T) {
	ts, _, store := newTestServer(t)

	sess := store.CreateSession()
	store.AppendMessage(sess.ID, models.ChatMessage{
		Role: models.RoleUser, Content: "How do I print in Go?",
	})
	store.AppendMessage(sess.ID, models.ChatMessage{
		ID: "m1", Role: models.RoleAssistant, Content: "Use **fmt**.",
	})

	resp, err := http.Get(ts.URL + "/chats/" + sess.ID + "/export?format=md")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/markdown; charset=utf-8" {
		t.Errorf("content type = %q, want text/markdown", got)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="chat-1.md"` {
		t.Errorf("content disposition = %q, want attachment with slugged filename", got)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	for _, want := range []string{"# Chat 1", "How do I print in Go?", "Use **fmt**."} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body should contain %q, got:\n%s", want, body)
		}
	}
}

func TestHandleExportJSON(t *testing.T) {
	ts, _, store := newTestServer(t)

	sess := store.CreateSession()
	store.AppendMessage(sess.ID, models.ChatMessage{
		Role: models.RoleUser, Content: "hi",
	})

	resp, err := http.Get(ts.URL + "/chats/" + sess.ID + "/export?format=json")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q, want application/json", got)
	}

	var doc struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if doc.ID != sess.ID {
		t.Errorf("id = %q, want %q", doc.ID, sess.ID)
	}
	if doc.Title != "Chat 1" {
		t.Errorf("title = %q, want %q", doc.Title, "Chat 1")
	}
	if len(doc.Messages) != 1 || doc.Messages[0].Content != "hi" {
		t.Errorf("messages = %+v, want the user message", doc.Messages)
	}
}

func TestHandleExportDefaultsToMarkdown(t *testing.T) {
	ts, _, store := newTestServer(t)
	sess := store.CreateSession()

	resp, err := http.Get(ts.URL + "/chats/" + sess.ID + "/export")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/markdown; charset=utf-8" {
		t.Errorf("content type = %q, want text/markdown", got)
	}
}

func TestHandleExportValidation(t *testing.T) {
	ts, _, store := newTestServer(t)
	sess := store.CreateSession()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{
			name:       "unknown chat",
			path:       "/chats/01JGN000000000000000000000/export",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unsupported format",
			path:       "/chats/" + sess.ID + "/export?format=xml",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("GET export: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body["error"] == "" {
				t.Error("error field should be set")
			}
		})
	}
}
