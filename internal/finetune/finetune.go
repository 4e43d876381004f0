// Package finetune uploads the validated training file and drives an
// OpenAI fine-tuning job to completion.
package finetune

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"

	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

// filePollInterval is how often file processing status is checked
const filePollInterval = 5 * time.Second

// ModelInfo is the persisted record of a finished fine-tune, consumed by
// the chat server.
type ModelInfo struct {
	ModelID   string `json:"model_id"`
	JobID     string `json:"job_id"`
	BaseModel string `json:"base_model"`
	CreatedAt int64  `json:"created_at"`
}

// Runner executes the fine-tuning phase
type Runner struct {
	api    openai.Client
	cfg    config.FinetuningConfig
	logger zerolog.Logger
}

// NewRunner builds a runner. The API key comes from the OPENAI_API_KEY
// environment variable.
func NewRunner(cfg config.FinetuningConfig) (*Runner, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return &Runner{
		api:    openai.NewClient(option.WithAPIKey(key)),
		cfg:    cfg,
		logger: logging.GetLogger("finetune"),
	}, nil
}

// Run uploads the training file, starts the fine-tuning job, polls it to
// a terminal status, and persists the job and model records. With dryRun
// set it validates inputs and stops before any API call.
func (r *Runner) Run(ctx context.Context, trainingPath, jobPath, modelPath string, dryRun bool) error {
	if _, err := os.Stat(trainingPath); err != nil {
		return fmt.Errorf("training file not found: %s", trainingPath)
	}
	r.logger.Info().Str("path", trainingPath).Msg("Found training data")

	if dryRun {
		r.logger.Info().
			Str("base_model", r.cfg.BaseModel).
			Str("suffix", r.cfg.Suffix).
			Msg("Dry run: would upload training file and start fine-tuning job")
		return nil
	}

	fileID, err := r.uploadTrainingFile(ctx, trainingPath)
	if err != nil {
		return err
	}

	job, err := r.createJob(ctx, fileID)
	if err != nil {
		return err
	}
	r.logger.Info().Str("job_id", job.ID).Msg("Fine-tuning job started")
	if err := writeJSON(jobPath, []byte(job.RawJSON())); err != nil {
		return err
	}

	final, err := r.waitForJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := writeJSON(jobPath, []byte(final.RawJSON())); err != nil {
		return err
	}

	if final.Status != openai.FineTuningJobStatusSucceeded {
		return fmt.Errorf("fine-tuning job %s ended with status %s: %s",
			final.ID, final.Status, final.Error.Message)
	}

	r.logger.Info().Str("model", final.FineTunedModel).Msg("Fine-tuning succeeded")

	info := ModelInfo{
		ModelID:   final.FineTunedModel,
		JobID:     final.ID,
		BaseModel: r.cfg.BaseModel,
		CreatedAt: final.CreatedAt,
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	if err := writeJSON(modelPath, data); err != nil {
		return err
	}
	r.logger.Info().Str("path", modelPath).Msg("Model info saved")
	return nil
}

// uploadTrainingFile uploads the JSONL and waits until the API reports
// it processed.
func (r *Runner) uploadTrainingFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	file, err := r.api.Files.New(ctx, openai.FileNewParams{
		File:    f,
		Purpose: openai.FilePurposeFineTune,
	})
	if err != nil {
		return "", fmt.Errorf("uploading training file: %w", err)
	}
	r.logger.Info().Str("file_id", file.ID).Msg("Training file uploaded")

	for {
		current, err := r.api.Files.Get(ctx, file.ID)
		if err != nil {
			return "", fmt.Errorf("checking file %s: %w", file.ID, err)
		}
		switch current.Status {
		case openai.FileObjectStatusProcessed:
			return file.ID, nil
		case openai.FileObjectStatusError:
			return "", fmt.Errorf("file %s failed processing", file.ID)
		}

		select {
		case <-time.After(filePollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (r *Runner) createJob(ctx context.Context, fileID string) (*openai.FineTuningJob, error) {
	params := openai.FineTuningJobNewParams{
		Model:        openai.FineTuningJobNewParamsModel(r.cfg.BaseModel),
		TrainingFile: fileID,
	}
	if r.cfg.Suffix != "" {
		params.Suffix = openai.String(r.cfg.Suffix)
	}
	params.Hyperparameters = buildHyperparameters(r.cfg.Hyperparameters)

	job, err := r.api.FineTuning.Jobs.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("creating fine-tuning job: %w", err)
	}
	return job, nil
}

// buildHyperparameters maps configured values onto the API params.
// "auto" entries are left unset so the API chooses.
func buildHyperparameters(hp map[string]any) openai.FineTuningJobNewParamsHyperparameters {
	var params openai.FineTuningJobNewParamsHyperparameters

	if v, ok := asInt(hp["n_epochs"]); ok {
		params.NEpochs.OfInt = openai.Int(v)
	}
	if v, ok := asInt(hp["batch_size"]); ok {
		params.BatchSize.OfInt = openai.Int(v)
	}
	if v, ok := asFloat(hp["learning_rate_multiplier"]); ok {
		params.LearningRateMultiplier.OfFloat = openai.Float(v)
	}

	return params
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// waitForJob polls the job until it reaches a terminal status.
func (r *Runner) waitForJob(ctx context.Context, jobID string) (*openai.FineTuningJob, error) {
	interval := time.Duration(r.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	var lastStatus openai.FineTuningJobStatus
	for {
		job, err := r.api.FineTuning.Jobs.Get(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("checking job %s: %w", jobID, err)
		}

		if job.Status != lastStatus {
			r.logger.Info().Str("job_id", jobID).Str("status", string(job.Status)).Msg("Job status")
			lastStatus = job.Status
		}

		switch job.Status {
		case openai.FineTuningJobStatusSucceeded,
			openai.FineTuningJobStatusFailed,
			openai.FineTuningJobStatusCancelled:
			return job, nil
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func writeJSON(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadModelInfo reads the persisted fine-tuned model record.
func LoadModelInfo(path string) (*ModelInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model info %s: %w", path, err)
	}
	var info ModelInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing model info %s: %w", path, err)
	}
	return &info, nil
}
