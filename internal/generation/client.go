package generation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"

	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

// Client wraps the OpenAI API for the generation phases. It adds retry
// with exponential backoff for synchronous calls and the full batch
// workflow for bulk generation.
type Client struct {
	api                openai.Client
	model              string
	maxRetries         int
	retryDelay         time.Duration
	batchCheckInterval time.Duration
	logger             zerolog.Logger
}

// NewClient builds a client from OpenAI settings. The API key comes from
// the OPENAI_API_KEY environment variable.
func NewClient(cfg config.OpenAIConfig) (*Client, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	return &Client{
		api:                openai.NewClient(option.WithAPIKey(key)),
		model:              cfg.Model,
		maxRetries:         cfg.MaxRetries,
		retryDelay:         time.Duration(cfg.RetryDelaySeconds) * time.Second,
		batchCheckInterval: time.Duration(cfg.BatchCheckIntervalSeconds) * time.Second,
		logger:             logging.GetLogger("openai"),
	}, nil
}

// GenerateSingle sends one chat completion request, retrying failures
// with exponential backoff. Used by the sync mode of both phases.
func (c *Client) GenerateSingle(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			c.logger.Warn().
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Err(lastErr).
				Msg("Retrying completion")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Temperature: openai.Float(temperature),
			MaxTokens:   openai.Int(int64(maxTokens)),
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("completion returned no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", c.maxRetries, lastErr)
}
