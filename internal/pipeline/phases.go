// Package pipeline implements the six dataset phases as reusable
// functions. The cmd binaries and the temporal activities both call
// into this package so phase semantics live in exactly one place.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Caia-Tech/caia-tuner/internal/archive"
	"github.com/Caia-Tech/caia-tuner/internal/dataset"
	"github.com/Caia-Tech/caia-tuner/internal/finetune"
	"github.com/Caia-Tech/caia-tuner/internal/generation"
	"github.com/Caia-Tech/caia-tuner/internal/helpdesk"
	"github.com/Caia-Tech/caia-tuner/internal/quality"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

// validationPassThreshold is the grounding pass rate required to mark
// the dataset as validated.
const validationPassThreshold = 0.95

// ScrapeOptions controls the scrape phase
type ScrapeOptions struct {
	Limit  int
	Resume bool
}

// ScrapeResult summarizes a scrape run
type ScrapeResult struct {
	Articles   int    `json:"articles"`
	OutputPath string `json:"output_path"`
}

// Scrape crawls the helpdesk and writes the raw article collection.
func Scrape(ctx context.Context, cfg *config.Config, opts ScrapeOptions) (*ScrapeResult, error) {
	scraper := helpdesk.NewScraper(cfg.Scraping)
	articles, err := scraper.Run(ctx, helpdesk.Options{
		Limit:          opts.Limit,
		Resume:         opts.Resume,
		CheckpointPath: sidecarPath(cfg.Paths.Checkpoint, "scrape_checkpoint.json"),
	})
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteJSON(cfg.Paths.RawArticles, articles); err != nil {
		return nil, err
	}

	archivePhase(cfg, "scrape", cfg.Paths.RawArticles)
	return &ScrapeResult{Articles: len(articles), OutputPath: cfg.Paths.RawArticles}, nil
}

// GenerateOptions controls a generation phase run
type GenerateOptions struct {
	Limit int
	// Sync uses per-item completions instead of the batch API.
	Sync   bool
	Resume bool
}

// QuestionsResult summarizes the question generation phase
type QuestionsResult struct {
	Articles       int `json:"articles"`
	QuestionSets   int `json:"question_sets"`
	TotalQuestions int `json:"total_questions"`
}

// GenerateQuestions produces candidate questions per article and writes
// them keyed by article ID.
func GenerateQuestions(ctx context.Context, cfg *config.Config, opts GenerateOptions) (*QuestionsResult, error) {
	articles, err := dataset.LoadArticles(cfg.Paths.RawArticles)
	if err != nil {
		return nil, err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	questions, err := gen.GenerateQuestions(ctx, articles, generation.Options{
		Limit:          opts.Limit,
		Sync:           opts.Sync,
		Resume:         opts.Resume,
		CheckpointPath: cfg.Paths.Checkpoint,
		BatchFilePath:  sidecarPath(cfg.Paths.Checkpoint, "questions_batch.jsonl"),
	})
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteJSON(cfg.Paths.Questions, questions); err != nil {
		return nil, err
	}

	total := 0
	for _, set := range questions {
		total += len(set.Questions)
	}

	archivePhase(cfg, "questions", cfg.Paths.Questions)
	return &QuestionsResult{
		Articles:       len(articles),
		QuestionSets:   len(questions),
		TotalQuestions: total,
	}, nil
}

// AnswersResult summarizes the answer generation phase
type AnswersResult struct {
	Pairs int `json:"pairs"`
}

// GenerateAnswers produces an answer for every generated question and
// writes the Q&A pair collection.
func GenerateAnswers(ctx context.Context, cfg *config.Config, opts GenerateOptions) (*AnswersResult, error) {
	articles, err := dataset.LoadArticles(cfg.Paths.RawArticles)
	if err != nil {
		return nil, err
	}
	questions, err := dataset.LoadQuestions(cfg.Paths.Questions)
	if err != nil {
		return nil, err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	pairs, err := gen.GenerateAnswers(ctx, questions, dataset.IndexArticles(articles), generation.Options{
		Limit:          opts.Limit,
		Sync:           opts.Sync,
		Resume:         opts.Resume,
		CheckpointPath: cfg.Paths.Checkpoint,
		BatchFilePath:  sidecarPath(cfg.Paths.Checkpoint, "answers_batch.jsonl"),
	})
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteJSON(cfg.Paths.QAPairs, pairs); err != nil {
		return nil, err
	}

	archivePhase(cfg, "answers", cfg.Paths.QAPairs)
	return &AnswersResult{Pairs: len(pairs)}, nil
}

// FormatResult summarizes the formatting phase
type FormatResult struct {
	Records  int               `json:"records"`
	Metadata *dataset.Metadata `json:"metadata"`
}

// FormatDataset converts Q&A pairs into chat-format training records and
// writes the dataset metadata alongside them.
func FormatDataset(cfg *config.Config) (*FormatResult, error) {
	pairs, err := dataset.LoadQAPairs(cfg.Paths.QAPairs)
	if err != nil {
		return nil, err
	}

	records := formatPairs(pairs, cfg)
	if err := dataset.WriteRecords(cfg.Paths.TrainingData, records); err != nil {
		return nil, err
	}

	meta := dataset.BuildMetadata(pairs, cfg.Paths.TrainingData)
	if err := dataset.WriteJSON(cfg.Paths.Metadata, meta); err != nil {
		return nil, err
	}

	archivePhase(cfg, "format", cfg.Paths.TrainingData, cfg.Paths.Metadata)
	return &FormatResult{Records: len(records), Metadata: meta}, nil
}

// QualityResult summarizes the quality-check phase
type QualityResult struct {
	Total  int             `json:"total"`
	Kept   int             `json:"kept"`
	Passed bool            `json:"passed"`
	Report *quality.Report `json:"report"`
}

// QualityCheck validates the formatted dataset, deduplicates it, and
// writes the final training data plus the quality report. The metadata
// file is updated with the validation outcome when it exists.
func QualityCheck(ctx context.Context, cfg *config.Config) (*QualityResult, error) {
	pairs, err := dataset.LoadQAPairs(cfg.Paths.QAPairs)
	if err != nil {
		return nil, err
	}
	articles, err := dataset.LoadArticles(cfg.Paths.RawArticles)
	if err != nil {
		return nil, err
	}
	lines, err := dataset.ReadLines(cfg.Paths.TrainingData)
	if err != nil {
		return nil, err
	}

	result, err := quality.NewPipeline(cfg.Validation, dataset.IndexArticles(articles)).Run(ctx, pairs, lines)
	if err != nil {
		return nil, err
	}

	records := formatPairs(result.Kept, cfg)
	if err := dataset.WriteRecords(cfg.Paths.FinalTrainingData, records); err != nil {
		return nil, err
	}
	if err := dataset.WriteJSON(cfg.Paths.QualityReport, result.Report); err != nil {
		return nil, err
	}

	passed := result.GroundingPassRate >= validationPassThreshold
	if err := dataset.UpdateValidation(cfg.Paths.Metadata, passed, len(result.Kept)); err != nil {
		return nil, err
	}

	archivePhase(cfg, "quality-check", cfg.Paths.FinalTrainingData, cfg.Paths.QualityReport, cfg.Paths.Metadata)
	return &QualityResult{
		Total:  len(pairs),
		Kept:   len(result.Kept),
		Passed: passed,
		Report: result.Report,
	}, nil
}

// FinetuneResult summarizes the fine-tuning phase
type FinetuneResult struct {
	ModelID string `json:"model_id"`
	DryRun  bool   `json:"dry_run"`
}

// Finetune uploads the final training data and runs a fine-tuning job
// to completion.
func Finetune(ctx context.Context, cfg *config.Config, dryRun bool) (*FinetuneResult, error) {
	runner, err := finetune.NewRunner(cfg.Finetuning)
	if err != nil {
		return nil, err
	}

	err = runner.Run(ctx, cfg.Paths.FinalTrainingData, cfg.Paths.FinetuneJob, cfg.Paths.FinetunedModel, dryRun)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return &FinetuneResult{DryRun: true}, nil
	}

	info, err := finetune.LoadModelInfo(cfg.Paths.FinetunedModel)
	if err != nil {
		return nil, err
	}

	archivePhase(cfg, "finetune", cfg.Paths.FinetuneJob, cfg.Paths.FinetunedModel)
	return &FinetuneResult{ModelID: info.ModelID}, nil
}

func newGenerator(cfg *config.Config) (*generation.Generator, error) {
	client, err := generation.NewClient(cfg.OpenAI)
	if err != nil {
		return nil, err
	}
	prompts, err := generation.LoadPrompts(cfg.Paths.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}
	return generation.NewGenerator(client, prompts, cfg.Generation), nil
}

// formatPairs renders pairs as chat-format records with the system
// prompt resolved per collection.
func formatPairs(pairs []dataset.QAPair, cfg *config.Config) []dataset.TrainingRecord {
	records := make([]dataset.TrainingRecord, 0, len(pairs))
	for _, qa := range pairs {
		records = append(records, dataset.FormatRecord(qa, dataset.SystemPromptFor(qa.Collection, cfg)))
	}
	return records
}

// archivePhase commits phase artifacts to the archive repository when
// one is configured. Archiving never fails the phase itself.
func archivePhase(cfg *config.Config, phase string, files ...string) {
	if cfg.Paths.ArchiveRepo == "" {
		return
	}

	logger := logging.GetPhaseLogger("pipeline", phase)
	a, err := archive.Open(cfg.Paths.ArchiveRepo)
	if err != nil {
		logger.Warn().Err(err).Msg("Opening archive failed")
		return
	}
	if _, err := a.CommitArtifacts(phase, files...); err != nil {
		logger.Warn().Err(err).Msg("Archiving artifacts failed")
	}
}

// sidecarPath places an auxiliary file next to the configured
// checkpoint so every run-state file lives in one directory.
func sidecarPath(checkpoint, name string) string {
	if checkpoint == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(checkpoint), name)
}
