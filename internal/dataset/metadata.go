package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"
	"unicode/utf8"
)

// Metadata describes one formatted dataset. The formatting phase writes
// it with ValidationPassed unset; the quality-check phase fills in
// ValidationPassed and FinalExamples afterwards.
type Metadata struct {
	GeneratedAt              string            `json:"generated_at"`
	TotalExamples            int               `json:"total_examples"`
	SourceArticles           int               `json:"source_articles"`
	AvgQuestionsPerArticle   float64           `json:"avg_questions_per_article"`
	CollectionsCovered       []CollectionCount `json:"collections_covered"`
	QuestionTypeDistribution map[string]int    `json:"question_type_distribution"`
	AvgAnswerLengthChars     float64           `json:"avg_answer_length_chars"`
	OutputFile               string            `json:"output_file"`
	ValidationPassed         *bool             `json:"validation_passed"`
	FinalExamples            int               `json:"final_examples,omitempty"`
}

// CollectionCount tallies examples per helpdesk collection
type CollectionCount struct {
	Name     string `json:"name"`
	Examples int    `json:"examples"`
}

// BuildMetadata computes dataset statistics for the formatting phase.
func BuildMetadata(pairs []QAPair, outputFile string) *Metadata {
	collections := make(map[string]int)
	questionTypes := make(map[string]int)
	articles := make(map[string]struct{})
	totalAnswerChars := 0

	for _, qa := range pairs {
		collections[qa.Collection]++
		qt := qa.QuestionType
		if qt == "" {
			qt = "unknown"
		}
		questionTypes[qt]++
		articles[qa.ArticleID] = struct{}{}
		totalAnswerChars += utf8.RuneCountInString(qa.Answer)
	}

	covered := make([]CollectionCount, 0, len(collections))
	for name, count := range collections {
		covered = append(covered, CollectionCount{Name: name, Examples: count})
	}
	sort.Slice(covered, func(i, j int) bool {
		if covered[i].Examples != covered[j].Examples {
			return covered[i].Examples > covered[j].Examples
		}
		return covered[i].Name < covered[j].Name
	})

	m := &Metadata{
		GeneratedAt:              time.Now().Format(time.RFC3339),
		TotalExamples:            len(pairs),
		SourceArticles:           len(articles),
		CollectionsCovered:       covered,
		QuestionTypeDistribution: questionTypes,
		OutputFile:               outputFile,
	}
	if len(articles) > 0 {
		m.AvgQuestionsPerArticle = float64(len(pairs)) / float64(len(articles))
	}
	if len(pairs) > 0 {
		m.AvgAnswerLengthChars = math.Round(float64(totalAnswerChars)/float64(len(pairs))*10) / 10
	}
	return m
}

// UpdateValidation records the quality-check outcome in the metadata
// file. Missing metadata is not an error: the formatting phase may not
// have run in isolated quality-check invocations.
func UpdateValidation(path string, passed bool, finalExamples int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read metadata %s: %w", path, err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}

	m.ValidationPassed = &passed
	m.FinalExamples = finalExamples
	return WriteJSON(path, &m)
}
