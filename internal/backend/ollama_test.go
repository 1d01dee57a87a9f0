package backend_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/calegann/chatpanel/internal/backend"
	"github.com/calegann/chatpanel/internal/models"
)

// capturedChatRequest matches the request shape shared by all three backends:
// a model name, a message list, and a stream flag.
type capturedChatRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// drainChat consumes a backend stream and returns the concatenated fragments
// together with the first error encountered.
func drainChat(seq iter.Seq2[string, error]) (string, error) {
	var sb strings.Builder
	for fragment, err := range seq {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fragment)
	}
	return sb.String(), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assertConversation(t *testing.T, got capturedChatRequest, wantSystem string, wantUser string) {
	t.Helper()

	want := []struct{ role, content string }{}
	if wantSystem != "" {
		want = append(want, struct{ role, content string }{"system", wantSystem})
	}
	want = append(want, struct{ role, content string }{"user", wantUser})

	if len(got.Messages) != len(want) {
		t.Fatalf("request carried %d messages, want %d", len(got.Messages), len(want))
	}
	for i, w := range want {
		if got.Messages[i].Role != w.role {
			t.Errorf("message %d role = %q, want %q", i, got.Messages[i].Role, w.role)
		}
		if got.Messages[i].Content != w.content {
			t.Errorf("message %d content = %q, want %q", i, got.Messages[i].Content, w.content)
		}
	}
}

func TestOllamaChat(t *testing.T) {
	var mu sync.Mutex
	var got capturedChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}

		mu.Lock()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer server.Close()

	o := backend.NewOllama(server.URL, "Be helpful.")

	content, err := drainChat(o.Chat(context.Background(), "llama3.2", []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
	}))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if content != "Hello" {
		t.Errorf("Chat() content = %q, want %q", content, "Hello")
	}

	mu.Lock()
	defer mu.Unlock()

	if got.Model != "llama3.2" {
		t.Errorf("request model = %q, want %q", got.Model, "llama3.2")
	}
	if !got.Stream {
		t.Error("request stream = false, want true")
	}
	assertConversation(t, got, "Be helpful.", "hi")
}

func TestOllamaChatWithoutSystemPrompt(t *testing.T) {
	var mu sync.Mutex
	var got capturedChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		mu.Unlock()

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"ok"},"done":true}`)
	}))
	defer server.Close()

	o := backend.NewOllama(server.URL, "")

	if _, err := drainChat(o.Chat(context.Background(), "llama3.2", []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
	})); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	assertConversation(t, got, "", "hi")
}

func TestOllamaChatStopsEarly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer server.Close()

	o := backend.NewOllama(server.URL, "")

	var first string
	for fragment, err := range o.Chat(context.Background(), "llama3.2", []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
	}) {
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		first = fragment
		break
	}

	if first != "Hel" {
		t.Errorf("Chat() first fragment = %q, want %q", first, "Hel")
	}
}

func TestOllamaChatServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, `{"error":"model not found"}`)
	}))
	defer server.Close()

	o := backend.NewOllama(server.URL, "")

	content, err := drainChat(o.Chat(context.Background(), "missing", []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
	}))
	if err == nil {
		t.Fatal("Chat() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("Chat() error = %v, want it to mention the server message", err)
	}
	if content != "" {
		t.Errorf("Chat() content = %q, want empty", content)
	}
}

func TestOllamaGenerateTitle(t *testing.T) {
	var mu sync.Mutex
	var got capturedChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		mu.Unlock()

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Greeting"},"done":true}`)
	}))
	defer server.Close()

	o := backend.NewOllama(server.URL, "Name this chat.")

	title, err := o.GenerateTitle(context.Background(), "llama3.2", "hi")
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if title != "Greeting" {
		t.Errorf("GenerateTitle() = %q, want %q", title, "Greeting")
	}

	mu.Lock()
	defer mu.Unlock()

	if got.Stream {
		t.Error("request stream = true, want false")
	}
	assertConversation(t, got, "Name this chat.", "hi")
}

func TestOllamaPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	o := backend.NewOllama(server.URL, "")

	if err := o.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v, want nil", err)
	}

	server.Close()

	if err := o.Ping(context.Background()); err == nil {
		t.Error("Ping() error = nil after server shutdown, want error")
	}
}
