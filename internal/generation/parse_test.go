package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
)

func TestParseQuestionsBareArray(t *testing.T) {
	response := `[{"question":"How do I get paid?","type":"procedural"},{"question":"What are the fees?","type":"factual"}]`

	questions := ParseQuestions(response)
	require.Len(t, questions, 2)
	assert.Equal(t, dataset.Question{Question: "How do I get paid?", Type: "procedural"}, questions[0])
	assert.Equal(t, "factual", questions[1].Type)
}

func TestParseQuestionsJSONFence(t *testing.T) {
	response := "Here are the questions:\n```json\n[{\"question\":\"How do I get paid?\",\"type\":\"procedural\"}]\n```\nLet me know if you need more."

	questions := ParseQuestions(response)
	require.Len(t, questions, 1)
	assert.Equal(t, "How do I get paid?", questions[0].Question)
}

func TestParseQuestionsPlainFence(t *testing.T) {
	response := "```\n[{\"question\":\"What are the fees?\",\"type\":\"factual\"}]\n```"

	questions := ParseQuestions(response)
	require.Len(t, questions, 1)
	assert.Equal(t, "What are the fees?", questions[0].Question)
}

func TestParseQuestionsProseWrapped(t *testing.T) {
	response := `Sure! Based on the article I came up with: [{"question":"When do payouts run?","type":"factual"}] Hope that helps.`

	questions := ParseQuestions(response)
	require.Len(t, questions, 1)
	assert.Equal(t, "When do payouts run?", questions[0].Question)
}

func TestParseQuestionsGarbage(t *testing.T) {
	assert.Nil(t, ParseQuestions("I could not generate any questions for this article."))
	assert.Nil(t, ParseQuestions(""))
	assert.Nil(t, ParseQuestions(`{"question":"not an array"}`))
}
