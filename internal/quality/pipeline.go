package quality

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

// Pipeline runs every quality check over a full dataset and applies the
// removal policy. Construct once per run; the article index and seeded
// RNG are fixed for the lifetime of the pipeline.
type Pipeline struct {
	bounds     Bounds
	threshold  float64
	sampleRate float64
	articles   map[string]*dataset.Article
	rng        *rand.Rand
	logger     zerolog.Logger
}

// Result is the outcome of one pipeline run
type Result struct {
	// Kept is the final filtered dataset, in original relative order.
	Kept []dataset.QAPair
	// Report is always produced, even when every check fails.
	Report *Report
	// GroundingPassRate is the unrounded rate used for the
	// validation_passed metadata decision.
	GroundingPassRate float64
}

// NewPipeline creates a quality pipeline from validation settings and an
// article index. A zero sample seed falls back to the current time.
func NewPipeline(v config.ValidationConfig, articles map[string]*dataset.Article) *Pipeline {
	seed := v.SampleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Pipeline{
		bounds:     BoundsFromConfig(v),
		threshold:  v.SimilarityThreshold,
		sampleRate: v.SemanticSampleRate,
		articles:   articles,
		rng:        rand.New(rand.NewSource(seed)),
		logger:     logging.GetLogger("quality"),
	}
}

// Run executes every check category over the dataset. Categories are
// independent: a failure in one is tallied and never blocks the others,
// and the report is produced even for an all-failing dataset.
//
// recordLines is the already-formatted JSONL representation of the same
// dataset; it feeds structural validation only.
func (p *Pipeline) Run(ctx context.Context, pairs []dataset.QAPair, recordLines []string) (*Result, error) {
	report := &Report{
		ValidationTimestamp:    time.Now().Format(time.RFC3339),
		TotalExamplesGenerated: len(pairs),
	}

	p.validateRecords(recordLines, report)
	lengthFailed := p.validateLengths(pairs, report)
	passRate := p.checkGroundingSample(pairs, report)
	deduped, dedupStats := Deduplicate(pairs, p.threshold)

	report.RemovalReasons = RemovalReasons{
		DuplicateExact:       dedupStats.ExactDuplicatesRemoved,
		DuplicateNear:        dedupStats.NearDuplicatesRemoved,
		ContentLengthInvalid: report.AutomatedChecks.ContentLength.Failed,
	}

	// Final kept set: deduplicated survivors minus length failures, order
	// preserved from the deduplicated sequence.
	kept := make([]dataset.QAPair, 0, len(deduped))
	for _, qa := range deduped {
		if !lengthFailed[qa.QAID] {
			kept = append(kept, qa)
		}
	}

	report.ExamplesAfterValidation = len(kept)
	report.Recommendations = buildRecommendations(
		passRate, dedupStats.ExactDuplicatesRemoved+dedupStats.NearDuplicatesRemoved)

	p.logger.Info().
		Int("original", len(pairs)).
		Int("kept", len(kept)).
		Int("exact_duplicates", dedupStats.ExactDuplicatesRemoved).
		Int("near_duplicates", dedupStats.NearDuplicatesRemoved).
		Int("length_failures", report.AutomatedChecks.ContentLength.Failed).
		Float64("grounding_pass_rate", passRate).
		Msg("Quality pipeline completed")

	return &Result{Kept: kept, Report: report, GroundingPassRate: passRate}, nil
}

// validateRecords runs structural validation over the formatted JSONL
// lines. Structural failure counts against schema compliance too: both
// tallies measure the same record shape in this pipeline.
func (p *Pipeline) validateRecords(lines []string, report *Report) {
	for i, line := range lines {
		if err := ValidateStructure(line); err != nil {
			report.AutomatedChecks.JSONValidity.Failed++
			report.AutomatedChecks.SchemaCompliance.Failed++
			p.logger.Warn().Int("line", i).Err(err).Msg("Structural validation failed")
			continue
		}
		report.AutomatedChecks.JSONValidity.Passed++
		report.AutomatedChecks.SchemaCompliance.Passed++
	}
}

// validateLengths checks every pair against the bounds and returns the
// set of failing qa_ids.
func (p *Pipeline) validateLengths(pairs []dataset.QAPair, report *Report) map[string]bool {
	failed := make(map[string]bool)
	for _, qa := range pairs {
		if err := ValidateLength(qa.Question, qa.Answer, p.bounds); err != nil {
			report.AutomatedChecks.ContentLength.Failed++
			failed[qa.QAID] = true
			p.logger.Debug().Str("qa_id", qa.QAID).Err(err).Msg("Content length issue")
			continue
		}
		report.AutomatedChecks.ContentLength.Passed++
	}
	return failed
}

// checkGroundingSample runs the grounding heuristics over a random
// sample and returns the unrounded pass rate. Pairs whose article cannot
// be resolved are logged and skipped: they count neither as passed nor
// failed, and stay eligible for every other check.
func (p *Pipeline) checkGroundingSample(pairs []dataset.QAPair, report *Report) float64 {
	sample := p.samplePairs(pairs)
	report.SemanticChecksSample.SampleSize = len(sample)

	passed, failed := 0, 0
	// Kept non-nil so an issue-free report serializes grounding_issues
	// as an empty array.
	issues := []GroundingIssue{}

	for _, qa := range sample {
		article, ok := p.articles[qa.ArticleID]
		if !ok {
			p.logger.Warn().
				Str("qa_id", qa.QAID).
				Str("article_id", qa.ArticleID).
				Msg("Article not found for grounding check")
			continue
		}

		grounded, found := CheckGrounding(qa.Answer, article.Content.PlainText)
		if grounded {
			passed++
			continue
		}
		failed++
		issues = append(issues, GroundingIssue{QAID: qa.QAID, Issues: found})
	}

	report.SemanticChecksSample.GroundingIssues = issues
	if len(issues) > maxReportedIssues {
		report.SemanticChecksSample.GroundingIssues = issues[:maxReportedIssues]
	}

	passRate := 1.0
	if passed+failed > 0 {
		passRate = float64(passed) / float64(passed+failed)
	}
	report.SemanticChecksSample.GroundingPassRate = math.Round(passRate*1000) / 1000

	p.logger.Info().
		Int("sample_size", len(sample)).
		Int("passed", passed).
		Int("failed", failed).
		Msg("Grounding check completed")

	return passRate
}

// samplePairs selects max(1, floor(total·rate)) pairs without
// replacement, capped at the collection size.
func (p *Pipeline) samplePairs(pairs []dataset.QAPair) []dataset.QAPair {
	if len(pairs) == 0 {
		return nil
	}

	size := int(float64(len(pairs)) * p.sampleRate)
	if size < 1 {
		size = 1
	}
	if size > len(pairs) {
		size = len(pairs)
	}

	sample := make([]dataset.QAPair, 0, size)
	for _, idx := range p.rng.Perm(len(pairs))[:size] {
		sample = append(sample, pairs[idx])
	}
	return sample
}
