package quality

import (
	"fmt"
	"unicode/utf8"

	"github.com/Caia-Tech/caia-tuner/pkg/config"
)

// Bounds holds the configured character limits for questions and answers.
// Lengths are counted in runes on the raw strings; bounds are inclusive.
type Bounds struct {
	MinQuestionChars int
	MaxQuestionChars int
	MinAnswerChars   int
	MaxAnswerChars   int
}

// BoundsFromConfig extracts the length bounds from validation settings.
func BoundsFromConfig(v config.ValidationConfig) Bounds {
	return Bounds{
		MinQuestionChars: v.MinQuestionChars,
		MaxQuestionChars: v.MaxQuestionChars,
		MinAnswerChars:   v.MinAnswerChars,
		MaxAnswerChars:   v.MaxAnswerChars,
	}
}

// ValidateLength checks a question/answer pair against the bounds.
// Violations are reported one at a time, checked in question-min,
// question-max, answer-min, answer-max order.
func ValidateLength(question, answer string, b Bounds) error {
	qLen := utf8.RuneCountInString(question)
	aLen := utf8.RuneCountInString(answer)

	switch {
	case qLen < b.MinQuestionChars:
		return fmt.Errorf("question too short: %d < %d", qLen, b.MinQuestionChars)
	case qLen > b.MaxQuestionChars:
		return fmt.Errorf("question too long: %d > %d", qLen, b.MaxQuestionChars)
	case aLen < b.MinAnswerChars:
		return fmt.Errorf("answer too short: %d < %d", aLen, b.MinAnswerChars)
	case aLen > b.MaxAnswerChars:
		return fmt.Errorf("answer too long: %d > %d", aLen, b.MaxAnswerChars)
	}

	return nil
}
