package backend

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"slices"

	"github.com/ollama/ollama/api"

	"github.com/calegann/chatpanel/internal/models"
)

// DefaultOllamaHost is the address Ollama serves on out of the box.
const DefaultOllamaHost = "http://localhost:11434"

// Ollama provides a streaming chat implementation backed by a locally running
// Ollama server. It is the default backend of the panel.
type Ollama struct {
	host         string
	systemPrompt string

	client *api.Client
}

// NewOllama creates a new Ollama instance pointing at the given host URL. An
// empty host targets DefaultOllamaHost. If the host URL does not parse, the
// function panics; host values come from configuration validated at startup.
func NewOllama(host, systemPrompt string) Ollama {
	if host == "" {
		host = DefaultOllamaHost
	}

	u, err := url.Parse(host)
	if err != nil {
		panic(err)
	}

	return Ollama{
		host:         host,
		systemPrompt: systemPrompt,
		client:       api.NewClient(u, &http.Client{}),
	}
}

// errStopStream stops the client callback loop when the iterator's consumer
// quits early. Canceling the context instead would let lines already buffered
// by the client reach the callback after yield returned false.
var errStopStream = errors.New("stop stream")

// Chat streams a completion for the conversation from the Ollama server. The
// returned iterator yields response fragments in arrival order; stopping the
// iteration aborts the stream.
func (o Ollama) Chat(ctx context.Context, model string, messages []models.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		msgs := make([]api.Message, len(messages))
		for i, msg := range messages {
			msgs[i] = api.Message{
				Role:    string(msg.Role),
				Content: msg.Content,
			}
		}
		if o.systemPrompt != "" {
			msgs = slices.Insert(msgs, 0, api.Message{
				Role:    "system",
				Content: o.systemPrompt,
			})
		}

		t := true
		req := api.ChatRequest{
			Model:    model,
			Messages: msgs,
			Stream:   &t,
		}

		if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
			if !yield(res.Message.Content, nil) {
				return errStopStream
			}
			return nil
		}); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, errStopStream) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
		}
	}
}

// GenerateTitle asks the model for a single non-streamed completion and
// returns its content, used for chat title generation.
func (o Ollama) GenerateTitle(ctx context.Context, model, message string) (string, error) {
	msgs := []api.Message{
		{
			Role:    "user",
			Content: message,
		},
	}
	if o.systemPrompt != "" {
		msgs = slices.Insert(msgs, 0, api.Message{
			Role:    "system",
			Content: o.systemPrompt,
		})
	}

	f := false
	req := api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &f,
	}

	var title string
	if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
		title = res.Message.Content
		return nil
	}); err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	return title, nil
}

// Ping reports whether the Ollama server is reachable.
func (o Ollama) Ping(ctx context.Context) error {
	return o.client.Heartbeat(ctx)
}
