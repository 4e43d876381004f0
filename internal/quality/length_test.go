package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBounds = Bounds{
	MinQuestionChars: 10,
	MaxQuestionChars: 50,
	MinAnswerChars:   20,
	MaxAnswerChars:   100,
}

func TestValidateLength(t *testing.T) {
	okAnswer := strings.Repeat("a", 20)

	tests := []struct {
		name     string
		question string
		answer   string
		wantErr  string
	}{
		{
			name:     "both within bounds",
			question: "How do I pay?",
			answer:   okAnswer,
		},
		{
			name:     "question too short",
			question: "size?",
			answer:   okAnswer,
			wantErr:  "question too short: 5 < 10",
		},
		{
			name:     "question exactly at minimum",
			question: strings.Repeat("q", 10),
			answer:   okAnswer,
		},
		{
			name:     "question exactly at maximum",
			question: strings.Repeat("q", 50),
			answer:   okAnswer,
		},
		{
			name:     "question too long",
			question: strings.Repeat("q", 51),
			answer:   okAnswer,
			wantErr:  "question too long: 51 > 50",
		},
		{
			name:     "answer too short",
			question: "How do I pay?",
			answer:   "short",
			wantErr:  "answer too short: 5 < 20",
		},
		{
			name:     "answer too long",
			question: "How do I pay?",
			answer:   strings.Repeat("a", 101),
			wantErr:  "answer too long: 101 > 100",
		},
		{
			name:     "question violation reported before answer violation",
			question: "tiny",
			answer:   "x",
			wantErr:  "question too short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLength(tt.question, tt.answer, testBounds)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLengthCountsRunes(t *testing.T) {
	// 10 multi-byte runes must satisfy a min bound of 10
	question := strings.Repeat("é", 10)
	err := ValidateLength(question, strings.Repeat("a", 20), testBounds)
	assert.NoError(t, err)
}

func TestValidateLengthQuestionNotTrimmed(t *testing.T) {
	// Validation counts the raw string; trimming is the caller's business
	question := "    пять   "
	err := ValidateLength(question, strings.Repeat("a", 20), testBounds)
	assert.NoError(t, err)
}
