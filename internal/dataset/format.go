package dataset

import (
	"github.com/Caia-Tech/caia-tuner/pkg/config"
)

// SystemPromptFor resolves the system prompt for a collection through the
// collection→prompt-key mapping, falling back to the "default" prompt for
// unmapped collections and unknown keys.
func SystemPromptFor(collection string, cfg *config.Config) string {
	key, ok := cfg.CollectionPromptMapping[collection]
	if !ok {
		key = "default"
	}
	prompt, ok := cfg.SystemPrompts[key]
	if !ok {
		prompt = cfg.SystemPrompts["default"]
	}
	return prompt
}

// FormatRecord renders a Q&A pair as a training record with the resolved
// system prompt. Derivation is deterministic: same pair and prompt always
// produce the same record.
func FormatRecord(qa QAPair, systemPrompt string) TrainingRecord {
	return TrainingRecord{
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: qa.Question},
			{Role: "assistant", Content: qa.Answer},
		},
	}
}
