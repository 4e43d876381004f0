// Package workflows defines the temporal orchestration of the dataset
// pipeline: one workflow running every phase in order with durable
// retries around each activity.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Caia-Tech/caia-tuner/internal/pipeline"
)

// PipelineInput controls one full pipeline run
type PipelineInput struct {
	// Limit caps articles scraped and items generated; 0 means no limit.
	Limit int `json:"limit"`
	// Sync uses per-item completions instead of the batch API.
	Sync bool `json:"sync"`
	// Resume restores phase progress from checkpoints.
	Resume bool `json:"resume"`
	// RunFinetune submits the fine-tuning job after a passing quality
	// check. Validation failure always skips the job.
	RunFinetune bool `json:"run_finetune"`
	// DryRun validates fine-tuning inputs without creating a job.
	DryRun bool `json:"dry_run"`
}

// PipelineResult summarizes a completed pipeline run
type PipelineResult struct {
	Articles         int    `json:"articles"`
	Questions        int    `json:"questions"`
	Pairs            int    `json:"pairs"`
	Kept             int    `json:"kept"`
	ValidationPassed bool   `json:"validation_passed"`
	ModelID          string `json:"model_id,omitempty"`
	FinetuneSkipped  bool   `json:"finetune_skipped"`
}

// PipelineWorkflow runs scrape, generate, format, quality-check, and
// optionally fine-tune as a single durable execution.
func PipelineWorkflow(ctx workflow.Context, input PipelineInput) (PipelineResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting dataset pipeline", "limit", input.Limit, "sync", input.Sync)

	var result PipelineResult

	scrapeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Hour,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
		},
	})

	var scrape pipeline.ScrapeResult
	err := workflow.ExecuteActivity(scrapeCtx, ScrapeActivityName, pipeline.ScrapeOptions{
		Limit:  input.Limit,
		Resume: input.Resume,
	}).Get(ctx, &scrape)
	if err != nil {
		return result, err
	}
	result.Articles = scrape.Articles

	// Batch generation can take up to the 24 hour completion window.
	// Retries resume from the generation checkpoint.
	genCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 26 * time.Hour,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    2,
			InitialInterval:    1 * time.Minute,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Minute,
		},
	})
	genOpts := pipeline.GenerateOptions{
		Limit:  input.Limit,
		Sync:   input.Sync,
		Resume: input.Resume,
	}

	var questions pipeline.QuestionsResult
	if err := workflow.ExecuteActivity(genCtx, GenerateQuestionsActivityName, genOpts).Get(ctx, &questions); err != nil {
		return result, err
	}
	result.Questions = questions.TotalQuestions

	var answers pipeline.AnswersResult
	if err := workflow.ExecuteActivity(genCtx, GenerateAnswersActivityName, genOpts).Get(ctx, &answers); err != nil {
		return result, err
	}
	result.Pairs = answers.Pairs

	localCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
		},
	})

	var format pipeline.FormatResult
	if err := workflow.ExecuteActivity(localCtx, FormatDatasetActivityName).Get(ctx, &format); err != nil {
		return result, err
	}

	var quality pipeline.QualityResult
	if err := workflow.ExecuteActivity(localCtx, QualityCheckActivityName).Get(ctx, &quality); err != nil {
		return result, err
	}
	result.Kept = quality.Kept
	result.ValidationPassed = quality.Passed

	if !input.RunFinetune {
		logger.Info("Pipeline completed without fine-tuning", "kept", quality.Kept)
		return result, nil
	}
	if !quality.Passed {
		logger.Warn("Validation failed, skipping fine-tuning",
			"grounding_pass_rate", quality.Report.SemanticChecksSample.GroundingPassRate)
		result.FinetuneSkipped = true
		return result, nil
	}

	// A failed fine-tuning job is never resubmitted automatically.
	finetuneCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 12 * time.Hour,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var finetune pipeline.FinetuneResult
	if err := workflow.ExecuteActivity(finetuneCtx, FinetuneActivityName, input.DryRun).Get(ctx, &finetune); err != nil {
		return result, err
	}
	result.ModelID = finetune.ModelID

	logger.Info("Pipeline completed", "kept", quality.Kept, "model_id", finetune.ModelID)
	return result, nil
}

// Activity name constants
const (
	ScrapeActivityName            = "ScrapeActivity"
	GenerateQuestionsActivityName = "GenerateQuestionsActivity"
	GenerateAnswersActivityName   = "GenerateAnswersActivity"
	FormatDatasetActivityName     = "FormatDatasetActivity"
	QualityCheckActivityName      = "QualityCheckActivity"
	FinetuneActivityName          = "FinetuneActivity"
)
