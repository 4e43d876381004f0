package generation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

// questionCheckpointEvery controls checkpoint frequency in sync mode
const questionCheckpointEvery = 5

// Options controls one generation phase run
type Options struct {
	// Limit caps how many items are processed; 0 means no limit.
	Limit int
	// Sync uses per-item completions instead of the batch API.
	Sync bool
	// Resume restores progress from the checkpoint file.
	Resume bool
	// CheckpointPath enables progress persistence when non-empty.
	CheckpointPath string
	// BatchFilePath is where the batch request JSONL is written.
	BatchFilePath string
}

// Generator runs the question and answer generation phases
type Generator struct {
	client  *Client
	prompts *Prompts
	gen     config.GenerationConfig
	logger  zerolog.Logger
}

// NewGenerator wires a generator from its parts
func NewGenerator(client *Client, prompts *Prompts, gen config.GenerationConfig) *Generator {
	return &Generator{
		client:  client,
		prompts: prompts,
		gen:     gen,
		logger:  logging.GetLogger("generation"),
	}
}

// GenerateQuestions produces a question set per article, keyed by article
// ID. Articles that fail generation or parsing are logged and skipped.
func (g *Generator) GenerateQuestions(ctx context.Context, articles []dataset.Article, opts Options) (map[string]dataset.QuestionSet, error) {
	if opts.Limit > 0 && len(articles) > opts.Limit {
		articles = articles[:opts.Limit]
		g.logger.Info().Int("limit", opts.Limit).Msg("Limiting articles")
	}

	result := make(map[string]dataset.QuestionSet)
	if opts.Resume && opts.CheckpointPath != "" {
		cp, err := LoadCheckpoint(opts.CheckpointPath)
		if err != nil {
			return nil, err
		}
		if cp.Phase == PhaseQuestions && len(cp.Questions) > 0 {
			result = cp.Questions
			g.logger.Info().Int("already_done", len(result)).Msg("Resuming from checkpoint")
		}
	}

	var pending []dataset.Article
	for _, a := range articles {
		if _, done := result[a.ArticleID]; !done {
			pending = append(pending, a)
		}
	}
	g.logger.Info().Int("pending", len(pending)).Msg("Articles to process")
	if len(pending) == 0 {
		return result, nil
	}

	var err error
	if opts.Sync {
		err = g.questionsSync(ctx, pending, result, opts)
	} else {
		err = g.questionsBatch(ctx, pending, result, opts)
	}
	if err != nil {
		return nil, err
	}

	if opts.CheckpointPath != "" {
		cp := &Checkpoint{Phase: PhaseQuestionsComplete, Processed: len(result)}
		if err := cp.Save(opts.CheckpointPath); err != nil {
			g.logger.Warn().Err(err).Msg("Failed to save checkpoint")
		}
	}

	return result, nil
}

func (g *Generator) questionPrompt(a dataset.Article) (string, error) {
	return g.prompts.QuestionPrompt(QuestionPromptData{
		Title:       a.Title,
		Collection:  a.Collection,
		Description: a.Description,
		Content:     truncateRunes(a.Content.Markdown, g.gen.MaxContentChars),
	})
}

func (g *Generator) questionsSync(ctx context.Context, pending []dataset.Article, result map[string]dataset.QuestionSet, opts Options) error {
	for _, article := range pending {
		prompt, err := g.questionPrompt(article)
		if err != nil {
			return err
		}

		response, err := g.client.GenerateSingle(ctx, prompt,
			g.gen.TemperatureQuestions, g.gen.MaxTokensQuestions)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.logger.Error().Str("article_id", article.ArticleID).Err(err).Msg("Question generation failed")
			continue
		}

		questions := ParseQuestions(response)
		if len(questions) == 0 {
			g.logger.Warn().Str("article_id", article.ArticleID).Msg("No valid questions parsed")
			continue
		}

		result[article.ArticleID] = dataset.QuestionSet{
			ArticleID:  article.ArticleID,
			Title:      article.Title,
			Collection: article.Collection,
			Questions:  questions,
		}

		if opts.CheckpointPath != "" && len(result)%questionCheckpointEvery == 0 {
			cp := &Checkpoint{Phase: PhaseQuestions, Processed: len(result), Questions: result}
			if err := cp.Save(opts.CheckpointPath); err != nil {
				g.logger.Warn().Err(err).Msg("Failed to save checkpoint")
			}
		}
	}
	return nil
}

func (g *Generator) questionsBatch(ctx context.Context, pending []dataset.Article, result map[string]dataset.QuestionSet, opts Options) error {
	articleIndex := make(map[string]dataset.Article, len(pending))
	requests := make([]BatchRequest, 0, len(pending))
	for _, article := range pending {
		prompt, err := g.questionPrompt(article)
		if err != nil {
			return err
		}
		requests = append(requests, BatchRequest{
			CustomID:    article.ArticleID,
			Prompt:      prompt,
			Temperature: g.gen.TemperatureQuestions,
			MaxTokens:   g.gen.MaxTokensQuestions,
		})
		articleIndex[article.ArticleID] = article
	}

	batchFile := opts.BatchFilePath
	if batchFile == "" {
		return fmt.Errorf("batch mode requires a batch file path")
	}

	results, err := g.client.RunBatch(ctx, requests, batchFile)
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Err != "" {
			g.logger.Error().Str("article_id", res.CustomID).Str("error", res.Err).Msg("Batch request failed")
			continue
		}
		article, ok := articleIndex[res.CustomID]
		if !ok {
			g.logger.Warn().Str("article_id", res.CustomID).Msg("Batch result for unknown article")
			continue
		}

		questions := ParseQuestions(res.Content)
		if len(questions) == 0 {
			g.logger.Warn().Str("article_id", res.CustomID).Msg("No valid questions parsed")
			continue
		}

		result[article.ArticleID] = dataset.QuestionSet{
			ArticleID:  article.ArticleID,
			Title:      article.Title,
			Collection: article.Collection,
			Questions:  questions,
		}
	}
	return nil
}
