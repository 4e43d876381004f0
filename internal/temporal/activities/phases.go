// Package activities exposes the pipeline phases as temporal
// activities. Each activity is a thin wrapper so phase semantics stay
// in the pipeline package.
package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/Caia-Tech/caia-tuner/internal/pipeline"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
)

// Activities holds the configuration shared by every phase activity
type Activities struct {
	cfg *config.Config
}

// New creates the activity set for a worker
func New(cfg *config.Config) *Activities {
	return &Activities{cfg: cfg}
}

// ScrapeActivity crawls the helpdesk and writes the raw articles.
func (a *Activities) ScrapeActivity(ctx context.Context, opts pipeline.ScrapeOptions) (*pipeline.ScrapeResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Scraping helpdesk", "limit", opts.Limit, "resume", opts.Resume)

	result, err := pipeline.Scrape(ctx, a.cfg, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Scrape completed", "articles", result.Articles)
	return result, nil
}

// GenerateQuestionsActivity produces the per-article question sets.
func (a *Activities) GenerateQuestionsActivity(ctx context.Context, opts pipeline.GenerateOptions) (*pipeline.QuestionsResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Generating questions", "limit", opts.Limit, "sync", opts.Sync)

	result, err := pipeline.GenerateQuestions(ctx, a.cfg, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Question generation completed", "questions", result.TotalQuestions)
	return result, nil
}

// GenerateAnswersActivity produces the Q&A pair collection.
func (a *Activities) GenerateAnswersActivity(ctx context.Context, opts pipeline.GenerateOptions) (*pipeline.AnswersResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Generating answers", "limit", opts.Limit, "sync", opts.Sync)

	result, err := pipeline.GenerateAnswers(ctx, a.cfg, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Answer generation completed", "pairs", result.Pairs)
	return result, nil
}

// FormatDatasetActivity writes the chat-format training data and its
// metadata.
func (a *Activities) FormatDatasetActivity(ctx context.Context) (*pipeline.FormatResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Formatting dataset")

	result, err := pipeline.FormatDataset(a.cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Formatting completed", "records", result.Records)
	return result, nil
}

// QualityCheckActivity validates and deduplicates the dataset.
func (a *Activities) QualityCheckActivity(ctx context.Context) (*pipeline.QualityResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Running quality checks")

	result, err := pipeline.QualityCheck(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Quality check completed", "kept", result.Kept, "passed", result.Passed)
	return result, nil
}

// FinetuneActivity runs the fine-tuning job to completion.
func (a *Activities) FinetuneActivity(ctx context.Context, dryRun bool) (*pipeline.FinetuneResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting fine-tuning", "dry_run", dryRun)

	result, err := pipeline.Finetune(ctx, a.cfg, dryRun)
	if err != nil {
		return nil, err
	}
	logger.Info("Fine-tuning completed", "model_id", result.ModelID)
	return result, nil
}
