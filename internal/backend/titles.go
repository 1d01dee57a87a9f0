package backend

import (
	"context"
	"errors"
	"strings"
)

// Titler is implemented by backends that can produce a one-shot completion
// suitable for naming a conversation.
type Titler interface {
	GenerateTitle(ctx context.Context, model, message string) (string, error)
}

// TitleGenerator binds a Titler to a fixed model so callers only supply the
// message being titled.
type TitleGenerator struct {
	llm   Titler
	model string
}

// NewTitleGenerator creates a new TitleGenerator.
func NewTitleGenerator(llm Titler, model string) TitleGenerator {
	return TitleGenerator{
		llm:   llm,
		model: model,
	}
}

// GenerateTitle produces a title for a conversation opened by message. Models
// habitually wrap short answers in quotes, so those are stripped.
func (t TitleGenerator) GenerateTitle(ctx context.Context, message string) (string, error) {
	title, err := t.llm.GenerateTitle(ctx, t.model, message)
	if err != nil {
		return "", err
	}

	title = strings.TrimSpace(title)
	title = strings.Trim(title, `"'`)
	if title == "" {
		return "", errors.New("backend returned an empty title")
	}

	return title, nil
}
