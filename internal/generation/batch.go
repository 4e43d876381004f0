package generation

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/openai/openai-go/v2"
)

// BatchRequest is one prompt destined for the batch API
type BatchRequest struct {
	CustomID    string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// BatchResult is one completed or failed batch request
type BatchResult struct {
	CustomID string
	Content  string
	Err      string
}

// batchInputLine is the JSONL request format the batch API expects
type batchInputLine struct {
	CustomID string         `json:"custom_id"`
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Body     batchInputBody `json:"body"`
}

type batchInputBody struct {
	Model       string             `json:"model"`
	Messages    []batchMessage     `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

type batchMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// batchOutputLine is the JSONL result format the batch API produces
type batchOutputLine struct {
	CustomID string          `json:"custom_id"`
	Error    json.RawMessage `json:"error"`
	Response struct {
		Body struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"body"`
	} `json:"response"`
}

// WriteBatchFile writes the batch request JSONL to disk.
func (c *Client) WriteBatchFile(path string, requests []BatchRequest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, req := range requests {
		line := batchInputLine{
			CustomID: req.CustomID,
			Method:   "POST",
			URL:      "/v1/chat/completions",
			Body: batchInputBody{
				Model:       c.model,
				Messages:    []batchMessage{{Role: "user", Content: req.Prompt}},
				Temperature: req.Temperature,
				MaxTokens:   req.MaxTokens,
			},
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}

	c.logger.Info().Int("requests", len(requests)).Str("path", path).Msg("Created batch file")
	return nil
}

// RunBatch executes the full batch workflow: write the request file,
// upload it, submit the batch, poll until a terminal status, and download
// the results. Blocks until the batch finishes or the context ends.
func (c *Client) RunBatch(ctx context.Context, requests []BatchRequest, batchFilePath string) ([]BatchResult, error) {
	if err := c.WriteBatchFile(batchFilePath, requests); err != nil {
		return nil, fmt.Errorf("writing batch file: %w", err)
	}

	fileID, err := c.uploadBatchFile(ctx, batchFilePath)
	if err != nil {
		return nil, fmt.Errorf("uploading batch file: %w", err)
	}

	batch, err := c.api.Batches.New(ctx, openai.BatchNewParams{
		InputFileID:      fileID,
		Endpoint:         openai.BatchNewParamsEndpointV1ChatCompletions,
		CompletionWindow: openai.BatchNewParamsCompletionWindow24h,
	})
	if err != nil {
		return nil, fmt.Errorf("submitting batch: %w", err)
	}
	c.logger.Info().Str("batch_id", batch.ID).Msg("Submitted batch job")

	outputFileID, err := c.waitForBatch(ctx, batch.ID)
	if err != nil {
		return nil, err
	}

	return c.fetchBatchResults(ctx, outputFileID)
}

func (c *Client) uploadBatchFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	file, err := c.api.Files.New(ctx, openai.FileNewParams{
		File:    f,
		Purpose: openai.FilePurposeBatch,
	})
	if err != nil {
		return "", err
	}
	c.logger.Info().Str("file_id", file.ID).Msg("Uploaded batch file")
	return file.ID, nil
}

// waitForBatch polls the batch until it reaches a terminal status and
// returns the output file ID.
func (c *Client) waitForBatch(ctx context.Context, batchID string) (string, error) {
	for {
		batch, err := c.api.Batches.Get(ctx, batchID)
		if err != nil {
			return "", fmt.Errorf("checking batch %s: %w", batchID, err)
		}

		c.logger.Info().
			Str("batch_id", batchID).
			Str("status", string(batch.Status)).
			Int64("completed", batch.RequestCounts.Completed).
			Int64("total", batch.RequestCounts.Total).
			Msg("Batch status")

		switch batch.Status {
		case openai.BatchStatusCompleted:
			return batch.OutputFileID, nil
		case openai.BatchStatusFailed, openai.BatchStatusExpired, openai.BatchStatusCancelled:
			return "", fmt.Errorf("batch %s ended with status %s", batchID, batch.Status)
		}

		select {
		case <-time.After(c.batchCheckInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (c *Client) fetchBatchResults(ctx context.Context, outputFileID string) ([]BatchResult, error) {
	resp, err := c.api.Files.Content(ctx, outputFileID)
	if err != nil {
		return nil, fmt.Errorf("downloading batch results: %w", err)
	}
	defer resp.Body.Close()

	results, err := parseBatchResults(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Int("results", len(results)).Msg("Retrieved batch results")
	return results, nil
}

// parseBatchResults decodes the result JSONL stream. Requests that
// errored keep their custom ID with an empty content.
func parseBatchResults(r io.Reader) ([]BatchResult, error) {
	var results []BatchResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var out batchOutputLine
		if err := json.Unmarshal(line, &out); err != nil {
			return nil, fmt.Errorf("parsing batch result line: %w", err)
		}

		result := BatchResult{CustomID: out.CustomID}
		if len(out.Error) > 0 && string(out.Error) != "null" {
			result.Err = string(out.Error)
		} else if len(out.Response.Body.Choices) > 0 {
			result.Content = out.Response.Body.Choices[0].Message.Content
		} else {
			result.Err = "no choices in response"
		}
		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
