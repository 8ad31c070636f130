package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Completer is the one capability this system needs from a language model.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ErrUnavailable marks the stub used when no API key is configured. Callers
// treat it like any other completion failure and fall back to heuristics.
var ErrUnavailable = errors.New("completion service not configured")

// Unconfigured is the Completer wired in when no key is present.
type Unconfigured struct{}

func (Unconfigured) Complete(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
}

// OpenAICompleter backs Completer with the chat completions API.
type OpenAICompleter struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &OpenAICompleter{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.model),
		Messages:  messages,
		MaxTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
