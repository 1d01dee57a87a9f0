package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"slices"

	"github.com/tmaxmax/go-sse"

	"github.com/calegann/chatpanel/internal/models"
)

// DefaultLMStudioHost is the address LM Studio listens on out of the box.
const DefaultLMStudioHost = "http://localhost:1234"

// LMStudio provides a streaming chat implementation for LM Studio and any
// other local runtime exposing the OpenAI-compatible HTTP API, speaking the
// wire format directly without an SDK.
type LMStudio struct {
	host         string
	systemPrompt string

	client *http.Client

	logger *slog.Logger
}

type lmStudioChatRequest struct {
	Model    string            `json:"model"`
	Messages []lmStudioMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

type lmStudioMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type lmStudioStreamingResponse struct {
	Choices []lmStudioStreamingChoice `json:"choices"`
}

type lmStudioStreamingChoice struct {
	Delta lmStudioMessage `json:"delta"`
}

type lmStudioResponse struct {
	Choices []lmStudioChoice `json:"choices"`
}

type lmStudioChoice struct {
	Message lmStudioMessage `json:"message"`
}

// NewLMStudio creates a new LMStudio instance. An empty host targets
// DefaultLMStudioHost.
func NewLMStudio(host, systemPrompt string, logger *slog.Logger) LMStudio {
	if host == "" {
		host = DefaultLMStudioHost
	}

	return LMStudio{
		host:         host,
		systemPrompt: systemPrompt,
		client:       &http.Client{},
		logger:       logger.With(slog.String("module", "lmstudio")),
	}
}

// Chat streams a completion for the conversation by reading the server-sent
// event stream of the completions endpoint until the [DONE] sentinel.
func (l LMStudio) Chat(ctx context.Context, model string, messages []models.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := l.doRequest(ctx, model, messages, true)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		for ev, err := range sse.Read(resp.Body, nil) {
			if err != nil {
				yield("", fmt.Errorf("error reading response: %w", err))
				return
			}

			if ev.Data == "[DONE]" {
				break
			}

			var res lmStudioStreamingResponse
			if err := json.Unmarshal([]byte(ev.Data), &res); err != nil {
				yield("", fmt.Errorf("error unmarshaling response: %w", err))
				return
			}

			if len(res.Choices) == 0 {
				continue
			}
			if content := res.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					break
				}
			}
		}
	}
}

// GenerateTitle asks the model for a single non-streamed completion and
// returns its content.
func (l LMStudio) GenerateTitle(ctx context.Context, model, message string) (string, error) {
	msgs := []models.ChatMessage{
		{Role: models.RoleUser, Content: message},
	}

	resp, err := l.doRequest(ctx, model, msgs, false)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	var res lmStudioResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("no choices found")
	}

	return res.Choices[0].Message.Content, nil
}

// Ping reports whether the runtime answers on its models endpoint.
func (l LMStudio) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.host+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

func (l LMStudio) doRequest(
	ctx context.Context,
	model string,
	messages []models.ChatMessage,
	stream bool,
) (*http.Response, error) {
	msgs := make([]lmStudioMessage, len(messages))
	for i, msg := range messages {
		msgs[i] = lmStudioMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	if l.systemPrompt != "" {
		msgs = slices.Insert(msgs, 0, lmStudioMessage{
			Role:    "system",
			Content: l.systemPrompt,
		})
	}

	reqBody := lmStudioChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   stream,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	l.logger.Debug("Request Body", slog.String("body", string(jsonBody)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		l.host+"/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
