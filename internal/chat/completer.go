// Package chat serves the fine-tuned support model over HTTP: session
// based chat, the quality report, and the configured system prompts.
package chat

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
)

// Completer produces one assistant reply for a conversation
type Completer interface {
	Complete(ctx context.Context, model string, messages []dataset.Message) (string, error)
}

type openaiCompleter struct {
	api openai.Client
}

// NewOpenAICompleter builds the production completer. The API key comes
// from the OPENAI_API_KEY environment variable.
func NewOpenAICompleter() (Completer, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return &openaiCompleter{api: openai.NewClient(option.WithAPIKey(key))}, nil
}

func (c *openaiCompleter) Complete(ctx context.Context, model string, messages []dataset.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
