package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
scraping:
  base_url: https://helpdesk.example.com
  request_delay_seconds: 1.5
  max_retries: 3
  timeout_seconds: 30
  user_agent: caia-tuner/0.1

validation:
  min_question_chars: 10
  max_question_chars: 200
  min_answer_chars: 20
  max_answer_chars: 2000
  similarity_threshold: 0.95
  semantic_sample_rate: 0.1
  sample_seed: 42

collection_prompt_mapping:
  Billing: billing

system_prompts:
  default: You are a helpful support assistant.
  billing: You are a billing support assistant.

paths:
  raw_articles: data/raw/articles.json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://helpdesk.example.com", cfg.Scraping.BaseURL)
	assert.Equal(t, 10, cfg.Validation.MinQuestionChars)
	assert.Equal(t, 0.95, cfg.Validation.SimilarityThreshold)
	assert.Equal(t, int64(42), cfg.Validation.SampleSeed)
	assert.Equal(t, "billing", cfg.CollectionPromptMapping["Billing"])
	assert.Equal(t, "data/raw/articles.json", cfg.Paths.RawArticles)

	// Logging defaults applied when the section is absent
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadLoggingSection(t *testing.T) {
	yaml := `
logging:
  level: debug
  format: pretty
  output_file: logs/test.log
  console: true
` + validYAML

	cfg, err := Load(writeConfig(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.Format)
	assert.Equal(t, "logs/test.log", cfg.Logging.OutputFile)
	assert.True(t, cfg.Logging.Console)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing max question chars",
			mutate:  func(c *Config) { c.Validation.MaxQuestionChars = 0 },
			wantErr: "max_question_chars",
		},
		{
			name:    "missing max answer chars",
			mutate:  func(c *Config) { c.Validation.MaxAnswerChars = 0 },
			wantErr: "max_answer_chars",
		},
		{
			name:    "min above max",
			mutate:  func(c *Config) { c.Validation.MinQuestionChars = 500 },
			wantErr: "min_question_chars",
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Validation.SimilarityThreshold = 1.5 },
			wantErr: "similarity_threshold",
		},
		{
			name:    "zero sample rate",
			mutate:  func(c *Config) { c.Validation.SemanticSampleRate = 0 },
			wantErr: "semantic_sample_rate",
		},
		{
			name:    "no default system prompt",
			mutate:  func(c *Config) { delete(c.SystemPrompts, "default") },
			wantErr: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validYAML))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
