package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Request is a single text-generation call.
type Request struct {
	Prompt string
	// Temperature is optional; nil leaves the provider default.
	Temperature *float32
	// MaxOutputTokens is optional; zero leaves the provider default.
	MaxOutputTokens int32
}

// Generator returns one text completion for one prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Assistant answers ad-hoc single prompts, used by the live assistant.
type Assistant struct {
	generator Generator
	logger    *zap.Logger
}

func NewAssistant(generator Generator, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{generator: generator, logger: logger}
}

// Ask sends the prompt unchanged and returns the trimmed answer.
func (a *Assistant) Ask(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	answer, err := a.generator.Generate(ctx, Request{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("assistant: %w", err)
	}

	a.logger.Debug("assistant answered", zap.Int("answer_length", len(answer)))

	return strings.TrimSpace(answer), nil
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
