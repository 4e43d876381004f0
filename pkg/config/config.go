// Package config loads and validates the pipeline configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

// Config is the full pipeline configuration, loaded once at process start
// and read-only afterwards.
type Config struct {
	Logging    *logging.LogConfig `yaml:"logging"`
	Scraping   ScrapingConfig     `yaml:"scraping"`
	OpenAI     OpenAIConfig       `yaml:"openai"`
	Generation GenerationConfig   `yaml:"generation"`
	Validation ValidationConfig   `yaml:"validation"`
	Finetuning FinetuningConfig   `yaml:"finetuning"`
	Server     ServerConfig       `yaml:"server"`

	// CollectionPromptMapping maps a helpdesk collection name to a system
	// prompt key; unmapped collections fall back to "default".
	CollectionPromptMapping map[string]string `yaml:"collection_prompt_mapping"`
	SystemPrompts           map[string]string `yaml:"system_prompts"`

	Paths PathsConfig `yaml:"paths"`
}

// ScrapingConfig holds helpdesk scraper settings
type ScrapingConfig struct {
	BaseURL             string  `yaml:"base_url"`
	RequestDelaySeconds float64 `yaml:"request_delay_seconds"`
	MaxRetries          int     `yaml:"max_retries"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
	UserAgent           string  `yaml:"user_agent"`
}

// OpenAIConfig holds API client settings
type OpenAIConfig struct {
	Model                     string `yaml:"model"`
	MaxRetries                int    `yaml:"max_retries"`
	RetryDelaySeconds         int    `yaml:"retry_delay_seconds"`
	BatchCheckIntervalSeconds int    `yaml:"batch_check_interval_seconds"`
}

// GenerationConfig holds question/answer generation settings
type GenerationConfig struct {
	TemperatureQuestions float64 `yaml:"temperature_questions"`
	MaxTokensQuestions   int     `yaml:"max_tokens_questions"`
	TemperatureAnswers   float64 `yaml:"temperature_answers"`
	MaxTokensAnswers     int     `yaml:"max_tokens_answers"`
	MaxContentChars      int     `yaml:"max_content_chars"`
}

// ValidationConfig holds the quality-check bounds and thresholds
type ValidationConfig struct {
	MinQuestionChars    int     `yaml:"min_question_chars"`
	MaxQuestionChars    int     `yaml:"max_question_chars"`
	MinAnswerChars      int     `yaml:"min_answer_chars"`
	MaxAnswerChars      int     `yaml:"max_answer_chars"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	SemanticSampleRate  float64 `yaml:"semantic_sample_rate"`
	// SampleSeed makes grounding sampling reproducible; 0 seeds from the
	// current time.
	SampleSeed int64 `yaml:"sample_seed"`
}

// FinetuningConfig holds fine-tune job settings
type FinetuningConfig struct {
	BaseModel           string         `yaml:"base_model"`
	Suffix              string         `yaml:"suffix"`
	Hyperparameters     map[string]any `yaml:"hyperparameters"`
	PollIntervalSeconds int            `yaml:"poll_interval_seconds"`
}

// ServerConfig holds chat server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PathsConfig holds all data file paths, relative to the working directory
type PathsConfig struct {
	RawArticles       string `yaml:"raw_articles"`
	Questions         string `yaml:"questions"`
	QAPairs           string `yaml:"qa_pairs"`
	TrainingData      string `yaml:"training_data"`
	FinalTrainingData string `yaml:"final_training_data"`
	QualityReport     string `yaml:"quality_report"`
	Metadata          string `yaml:"metadata"`
	Checkpoint        string `yaml:"checkpoint"`
	FinetuneJob       string `yaml:"finetune_job"`
	FinetunedModel    string `yaml:"finetuned_model"`
	ArchiveRepo       string `yaml:"archive_repo"`
	PromptsDir        string `yaml:"prompts_dir"`
}

// Load reads and validates the configuration file. A validation failure
// here is fatal to every phase: the pipeline must not run with undefined
// bounds.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{Logging: logging.DefaultLogConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the settings the quality pipeline cannot default.
func (c *Config) Validate() error {
	v := c.Validation
	if v.MaxQuestionChars <= 0 {
		return fmt.Errorf("validation.max_question_chars must be set")
	}
	if v.MaxAnswerChars <= 0 {
		return fmt.Errorf("validation.max_answer_chars must be set")
	}
	if v.MinQuestionChars < 0 || v.MinQuestionChars > v.MaxQuestionChars {
		return fmt.Errorf("validation.min_question_chars out of range: %d", v.MinQuestionChars)
	}
	if v.MinAnswerChars < 0 || v.MinAnswerChars > v.MaxAnswerChars {
		return fmt.Errorf("validation.min_answer_chars out of range: %d", v.MinAnswerChars)
	}
	if v.SimilarityThreshold <= 0 || v.SimilarityThreshold > 1 {
		return fmt.Errorf("validation.similarity_threshold must be in (0, 1], got %v", v.SimilarityThreshold)
	}
	if v.SemanticSampleRate <= 0 || v.SemanticSampleRate > 1 {
		return fmt.Errorf("validation.semantic_sample_rate must be in (0, 1], got %v", v.SemanticSampleRate)
	}

	if len(c.SystemPrompts) == 0 {
		return fmt.Errorf("system_prompts must be configured")
	}
	if _, ok := c.SystemPrompts["default"]; !ok {
		return fmt.Errorf("system_prompts must include a 'default' entry")
	}

	return nil
}
