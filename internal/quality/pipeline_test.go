package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
)

var testValidation = config.ValidationConfig{
	MinQuestionChars:    10,
	MaxQuestionChars:    200,
	MinAnswerChars:      20,
	MaxAnswerChars:      2000,
	SimilarityThreshold: 0.95,
	SemanticSampleRate:  0.1,
	SampleSeed:          42,
}

// gib builds mutually dissimilar question stems so the near-duplicate
// pass only fires where a test plants a deliberate variant.
func gib(i int) string {
	return strings.Repeat(fmt.Sprintf("x%d", i), 5)
}

func baseQuestion(i int) string {
	return fmt.Sprintf("How do I %s?", gib(i))
}

func baseAnswer(i int) string {
	return fmt.Sprintf("To do this, open the settings page for %s and follow the steps shown there.", gib(i))
}

// buildFixture assembles a 100-pair dataset with a known removal
// profile: 92 distinct base pairs, 5 exact duplicates of the first five,
// 3 near duplicates of pairs 5 to 7, and short answers on pairs 10 to 19.
func buildFixture() ([]dataset.QAPair, map[string]*dataset.Article) {
	articles := make(map[string]*dataset.Article)
	var pairs []dataset.QAPair

	for i := 0; i < 92; i++ {
		articleID := fmt.Sprintf("art%02d", i)
		answer := baseAnswer(i)
		if i >= 10 && i <= 19 {
			answer = "Too short."
		}
		pairs = append(pairs, dataset.QAPair{
			QAID:      fmt.Sprintf("qa%02d", i),
			ArticleID: articleID,
			Question:  baseQuestion(i),
			Answer:    answer,
		})
		articles[articleID] = &dataset.Article{
			ArticleID: articleID,
			Content:   dataset.ArticleContent{PlainText: baseAnswer(i)},
		}
	}

	for i := 0; i < 5; i++ {
		pairs = append(pairs, dataset.QAPair{
			QAID:      fmt.Sprintf("dup_exact_%d", i),
			ArticleID: fmt.Sprintf("art%02d", i),
			Question:  "  " + strings.ToUpper(baseQuestion(i)),
			Answer:    strings.ToUpper(baseAnswer(i)) + "  ",
		})
	}

	for i := 5; i < 8; i++ {
		pairs = append(pairs, dataset.QAPair{
			QAID:      fmt.Sprintf("dup_near_%d", i),
			ArticleID: fmt.Sprintf("art%02d", i),
			Question:  strings.TrimSuffix(baseQuestion(i), "?") + " ?",
			Answer:    fmt.Sprintf("Alternatively, go to the dashboard for %s and click the button.", gib(i)),
		})
	}

	return pairs, articles
}

func recordLinesFor(t *testing.T, pairs []dataset.QAPair) []string {
	t.Helper()
	lines := make([]string, 0, len(pairs))
	for _, qa := range pairs {
		record := dataset.FormatRecord(qa, "You are a helpful support assistant.")
		data, err := json.Marshal(record)
		require.NoError(t, err)
		lines = append(lines, string(data))
	}
	return lines
}

func TestPipelineEndToEnd(t *testing.T) {
	pairs, articles := buildFixture()
	require.Len(t, pairs, 100)

	p := NewPipeline(testValidation, articles)
	result, err := p.Run(context.Background(), pairs, recordLinesFor(t, pairs))
	require.NoError(t, err)

	report := result.Report
	assert.Equal(t, 100, report.TotalExamplesGenerated)
	assert.Equal(t, 82, report.ExamplesAfterValidation)
	assert.Len(t, result.Kept, 82)

	assert.Equal(t, RemovalReasons{
		DuplicateExact:       5,
		DuplicateNear:        3,
		ContentLengthInvalid: 10,
	}, report.RemovalReasons)

	assert.Equal(t, CheckTally{Passed: 100}, report.AutomatedChecks.JSONValidity)
	assert.Equal(t, CheckTally{Passed: 100}, report.AutomatedChecks.SchemaCompliance)
	assert.Equal(t, CheckTally{Passed: 90, Failed: 10}, report.AutomatedChecks.ContentLength)

	assert.Equal(t, 10, report.SemanticChecksSample.SampleSize)
	assert.Equal(t, 1.0, report.SemanticChecksSample.GroundingPassRate)
	assert.Empty(t, report.SemanticChecksSample.GroundingIssues)
	assert.Equal(t, 1.0, result.GroundingPassRate)

	assert.Equal(t, []string{"All checks passed. Dataset is ready for fine-tuning."},
		report.Recommendations)

	// Survivors are the original base pairs minus the short-answer ones,
	// in their original order.
	removed := make(map[string]bool)
	for _, qa := range result.Kept {
		assert.NotContains(t, qa.QAID, "dup_")
	}
	for i := 10; i <= 19; i++ {
		removed[fmt.Sprintf("qa%02d", i)] = true
	}
	for _, qa := range result.Kept {
		assert.False(t, removed[qa.QAID], "length failure %s should not survive", qa.QAID)
	}
	assert.Equal(t, "qa00", result.Kept[0].QAID)
}

func TestPipelineEmptyDataset(t *testing.T) {
	p := NewPipeline(testValidation, nil)
	result, err := p.Run(context.Background(), nil, nil)
	require.NoError(t, err)

	require.NotNil(t, result.Report)
	assert.Equal(t, 0, result.Report.TotalExamplesGenerated)
	assert.Equal(t, 0, result.Report.ExamplesAfterValidation)
	assert.Empty(t, result.Kept)
	assert.Equal(t, 0, result.Report.SemanticChecksSample.SampleSize)
	assert.Equal(t, 1.0, result.GroundingPassRate)
	assert.Equal(t, []string{"All checks passed. Dataset is ready for fine-tuning."},
		result.Report.Recommendations)
}

func TestPipelineSkipsUnresolvedArticles(t *testing.T) {
	v := testValidation
	v.SemanticSampleRate = 1.0
	v.SampleSeed = 7

	pairs := []dataset.QAPair{
		{QAID: "qa1", ArticleID: "missing1", Question: baseQuestion(1), Answer: baseAnswer(1)},
		{QAID: "qa2", ArticleID: "missing2", Question: baseQuestion(2), Answer: baseAnswer(2)},
		{QAID: "qa3", ArticleID: "missing3", Question: baseQuestion(3), Answer: baseAnswer(3)},
	}

	p := NewPipeline(v, map[string]*dataset.Article{})
	result, err := p.Run(context.Background(), pairs, recordLinesFor(t, pairs))
	require.NoError(t, err)

	// Skipped pairs count toward the sample but neither pass nor fail.
	assert.Equal(t, 3, result.Report.SemanticChecksSample.SampleSize)
	assert.Equal(t, 1.0, result.Report.SemanticChecksSample.GroundingPassRate)
	assert.Empty(t, result.Report.SemanticChecksSample.GroundingIssues)
	assert.Len(t, result.Kept, 3)
}

func TestPipelineLowGroundingRecommendation(t *testing.T) {
	v := testValidation
	v.SemanticSampleRate = 1.0
	v.SampleSeed = 1

	articles := map[string]*dataset.Article{
		"art01": {ArticleID: "art01", Content: dataset.ArticleContent{PlainText: "Settings live in the account menu."}},
	}
	pairs := []dataset.QAPair{
		{QAID: "good1", ArticleID: "art01", Question: baseQuestion(1), Answer: "Settings live in the account menu."},
		{QAID: "good2", ArticleID: "art01", Question: baseQuestion(2), Answer: "Open the account menu to find settings."},
		{QAID: "bad1", ArticleID: "art01", Question: baseQuestion(3), Answer: "I cannot find that setting anywhere in the interface."},
		{QAID: "bad2", ArticleID: "art01", Question: baseQuestion(4), Answer: "According to the article, settings are in the menu."},
	}

	p := NewPipeline(v, articles)
	result, err := p.Run(context.Background(), pairs, recordLinesFor(t, pairs))
	require.NoError(t, err)

	assert.Equal(t, 0.5, result.Report.SemanticChecksSample.GroundingPassRate)
	assert.Equal(t, 0.5, result.GroundingPassRate)
	assert.Len(t, result.Report.SemanticChecksSample.GroundingIssues, 2)
	assert.Contains(t, result.Report.Recommendations,
		"Grounding pass rate is 50.0%. Review flagged examples.")

	// Grounding failures are reported, never removed.
	assert.Len(t, result.Kept, 4)
}

func TestPipelineCapsReportedIssues(t *testing.T) {
	v := testValidation
	v.SemanticSampleRate = 1.0
	v.SampleSeed = 3

	articles := make(map[string]*dataset.Article)
	var pairs []dataset.QAPair
	for i := 0; i < 12; i++ {
		articleID := fmt.Sprintf("art%02d", i)
		articles[articleID] = &dataset.Article{
			ArticleID: articleID,
			Content:   dataset.ArticleContent{PlainText: "Plans start at a flat monthly rate."},
		}
		pairs = append(pairs, dataset.QAPair{
			QAID:      fmt.Sprintf("qa%02d", i),
			ArticleID: articleID,
			Question:  baseQuestion(i),
			Answer:    fmt.Sprintf("I cannot find pricing details for %s in the plans.", gib(i)),
		})
	}

	p := NewPipeline(v, articles)
	result, err := p.Run(context.Background(), pairs, recordLinesFor(t, pairs))
	require.NoError(t, err)

	assert.Equal(t, 12, result.Report.SemanticChecksSample.SampleSize)
	assert.Equal(t, 0.0, result.Report.SemanticChecksSample.GroundingPassRate)
	assert.Len(t, result.Report.SemanticChecksSample.GroundingIssues, maxReportedIssues)
}

func TestPipelineStructuralFailuresTallied(t *testing.T) {
	pairs := []dataset.QAPair{
		{QAID: "qa1", ArticleID: "art01", Question: baseQuestion(1), Answer: baseAnswer(1)},
		{QAID: "qa2", ArticleID: "art01", Question: baseQuestion(2), Answer: baseAnswer(2)},
	}
	lines := recordLinesFor(t, pairs[:1])
	lines = append(lines, "not json at all")

	p := NewPipeline(testValidation, map[string]*dataset.Article{})
	result, err := p.Run(context.Background(), pairs, lines)
	require.NoError(t, err)

	assert.Equal(t, CheckTally{Passed: 1, Failed: 1}, result.Report.AutomatedChecks.JSONValidity)
	assert.Equal(t, CheckTally{Passed: 1, Failed: 1}, result.Report.AutomatedChecks.SchemaCompliance)
}

func TestReportEmptyGroundingIssuesIsArray(t *testing.T) {
	answer := "You can place a bid from the domain listing page at any time."
	pairs := []dataset.QAPair{{
		QAID:      "art01_q0",
		ArticleID: "art01",
		Question:  "How do I place a bid?",
		Answer:    answer,
	}}
	article := &dataset.Article{ArticleID: "art01"}
	article.Content.PlainText = answer
	articles := map[string]*dataset.Article{"art01": article}

	p := NewPipeline(testValidation, articles)
	result, err := p.Run(context.Background(), pairs, recordLinesFor(t, pairs))
	require.NoError(t, err)
	require.Empty(t, result.Report.SemanticChecksSample.GroundingIssues)

	data, err := json.Marshal(result.Report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"grounding_issues":[]`)
}

func TestReportJSONShape(t *testing.T) {
	pairs, articles := buildFixture()
	p := NewPipeline(testValidation, articles)
	result, err := p.Run(context.Background(), pairs, recordLinesFor(t, pairs))
	require.NoError(t, err)

	data, err := json.Marshal(result.Report)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{
		"validation_timestamp",
		"total_examples_generated",
		"examples_after_validation",
		"removal_reasons",
		"automated_checks",
		"semantic_checks_sample",
		"recommendations",
	} {
		assert.Contains(t, decoded, key)
	}
}
