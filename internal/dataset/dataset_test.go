package dataset

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caia-Tech/caia-tuner/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		CollectionPromptMapping: map[string]string{
			"Billing":   "billing",
			"Ghost Key": "missing-prompt",
		},
		SystemPrompts: map[string]string{
			"default": "You are a helpful support assistant.",
			"billing": "You are a billing support assistant.",
		},
	}
}

func TestSystemPromptResolution(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, "You are a billing support assistant.", SystemPromptFor("Billing", cfg))
	assert.Equal(t, "You are a helpful support assistant.", SystemPromptFor("Unmapped Collection", cfg))
	// Mapped to a key with no prompt body falls back to default too
	assert.Equal(t, "You are a helpful support assistant.", SystemPromptFor("Ghost Key", cfg))
}

func TestFormatRecord(t *testing.T) {
	qa := QAPair{
		QAID:     "1001_q0",
		Question: "How do I reset my password?",
		Answer:   "Use the reset link on the login page.",
	}

	record := FormatRecord(qa, "system prompt")
	require.Len(t, record.Messages, 3)
	assert.Equal(t, "system", record.Messages[0].Role)
	assert.Equal(t, "user", record.Messages[1].Role)
	assert.Equal(t, "assistant", record.Messages[2].Role)
	assert.Equal(t, qa.Question, record.Messages[1].Content)
	assert.Equal(t, qa.Answer, record.Messages[2].Content)
}

func TestWriteAndReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "training.jsonl")

	records := []TrainingRecord{
		FormatRecord(QAPair{Question: "q1", Answer: "a1"}, "s"),
		FormatRecord(QAPair{Question: "q2", Answer: "a2"}, "s"),
	}
	require.NoError(t, WriteRecords(path, records))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	var decoded TrainingRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "q1", decoded.Messages[1].Content)
}

func TestIndexArticles(t *testing.T) {
	articles := []Article{
		{ArticleID: "100", Title: "First"},
		{ArticleID: "200", Title: "Second"},
	}

	index := IndexArticles(articles)
	require.Len(t, index, 2)
	assert.Equal(t, "First", index["100"].Title)
	_, ok := index["300"]
	assert.False(t, ok)
}

func TestBuildMetadata(t *testing.T) {
	pairs := []QAPair{
		{QAID: "a_q0", ArticleID: "a", Answer: "four", QuestionType: "factual", Collection: "Billing"},
		{QAID: "a_q1", ArticleID: "a", Answer: "chars!", QuestionType: "how-to", Collection: "Billing"},
		{QAID: "b_q0", ArticleID: "b", Answer: "xy", Collection: "General"},
	}

	m := BuildMetadata(pairs, "data/output/training_data.jsonl")
	assert.Equal(t, 3, m.TotalExamples)
	assert.Equal(t, 2, m.SourceArticles)
	assert.Equal(t, 1.5, m.AvgQuestionsPerArticle)
	assert.Equal(t, 1, m.QuestionTypeDistribution["unknown"])
	require.NotEmpty(t, m.CollectionsCovered)
	assert.Equal(t, "Billing", m.CollectionsCovered[0].Name)
	assert.Equal(t, 2, m.CollectionsCovered[0].Examples)
	assert.Nil(t, m.ValidationPassed)
	assert.Equal(t, 4.0, m.AvgAnswerLengthChars)
}

func TestUpdateValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	m := BuildMetadata([]QAPair{{QAID: "a_q0", ArticleID: "a"}}, "out.jsonl")
	require.NoError(t, WriteJSON(path, m))

	require.NoError(t, UpdateValidation(path, true, 82))

	updated, err := ReadLines(path)
	require.NoError(t, err)
	var got Metadata
	require.NoError(t, json.Unmarshal([]byte(joinLines(updated)), &got))
	require.NotNil(t, got.ValidationPassed)
	assert.True(t, *got.ValidationPassed)
	assert.Equal(t, 82, got.FinalExamples)
}

func TestUpdateValidationMissingFile(t *testing.T) {
	// Absent metadata is tolerated, mirroring standalone quality runs
	assert.NoError(t, UpdateValidation(filepath.Join(t.TempDir(), "missing.json"), false, 0))
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
