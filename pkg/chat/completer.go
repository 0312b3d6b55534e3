package chat

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Completer performs one non-streaming model call per round.
type Completer interface {
	Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error)
}

// OpenAICompleter backs Completer with the OpenAI chat completion API.
type OpenAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter builds a completer from API credentials. An empty
// base URL keeps the SDK default.
func NewOpenAICompleter(apiKey, baseURL string) *OpenAICompleter {
	opts := []option.RequestOption{}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAICompleter{client: openai.NewClient(opts...)}
}

// Complete issues one chat completion request and returns the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error) {
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	if len(completion.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: completion returned no choices", ErrProtocol)
	}
	return completion.Choices[0].Message, nil
}
