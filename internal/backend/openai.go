package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/calegann/chatpanel/internal/models"
)

// OpenAI provides a streaming chat implementation backed by the OpenAI API,
// or any server compatible with it when baseURL is overridden.
type OpenAI struct {
	systemPrompt string

	client *goopenai.Client

	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI instance. An empty baseURL targets the
// public API endpoint.
func NewOpenAI(apiKey, baseURL, systemPrompt string, logger *slog.Logger) OpenAI {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return OpenAI{
		systemPrompt: systemPrompt,
		client:       goopenai.NewClientWithConfig(cfg),
		logger:       logger.With(slog.String("module", "openai")),
	}
}

func (o OpenAI) chatMessages(messages []models.ChatMessage) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(messages)+1)
	if o.systemPrompt != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	for _, msg := range messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return msgs
}

// Chat streams a completion for the conversation through the chat completions
// streaming API.
func (o OpenAI) Chat(ctx context.Context, model string, messages []models.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := goopenai.ChatCompletionRequest{
			Model:    model,
			Messages: o.chatMessages(messages),
			Stream:   true,
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := o.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			if len(response.Choices) == 0 {
				continue
			}
			if content := response.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					return
				}
			}
		}
	}
}

// GenerateTitle asks the model for a single non-streamed completion and
// returns its content.
func (o OpenAI) GenerateTitle(ctx context.Context, model, message string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: model,
		Messages: o.chatMessages([]models.ChatMessage{
			{Role: models.RoleUser, Content: message},
		}),
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices found")
	}

	return resp.Choices[0].Message.Content, nil
}

// Ping reports whether the API endpoint accepts requests.
func (o OpenAI) Ping(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("error listing models: %w", err)
	}
	return nil
}
