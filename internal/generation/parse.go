package generation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
)

var (
	jsonFencePattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fencePattern     = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// ParseQuestions extracts the question list from a model response. Models
// wrap JSON in markdown fences or prose more often than not, so parsing
// strips fences first, then scans for the outermost array, then falls
// back to decoding the whole response. Returns nil when nothing decodes.
func ParseQuestions(response string) []dataset.Question {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```json") {
		if m := jsonFencePattern.FindStringSubmatch(response); m != nil {
			response = m[1]
		}
	} else if strings.Contains(response, "```") {
		if m := fencePattern.FindStringSubmatch(response); m != nil {
			response = m[1]
		}
	}

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start != -1 && end > start {
		if questions, ok := decodeQuestions(response[start : end+1]); ok {
			return questions
		}
	}

	if questions, ok := decodeQuestions(response); ok {
		return questions
	}

	preview := response
	if len(preview) > 200 {
		preview = preview[:200]
	}
	log.Warn().Str("response", preview).Msg("Failed to parse questions JSON")
	return nil
}

func decodeQuestions(s string) ([]dataset.Question, bool) {
	var questions []dataset.Question
	if err := json.Unmarshal([]byte(s), &questions); err != nil {
		return nil, false
	}
	return questions, true
}
