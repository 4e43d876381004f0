package quality

import "fmt"

// maxReportedIssues caps itemized grounding issues in the report; issues
// beyond the cap are still counted in the failed tally.
const maxReportedIssues = 10

// groundingPassThreshold is the acceptance rate below which the dataset
// is flagged for review.
const groundingPassThreshold = 0.95

// CheckTally counts pass/fail results for one check category
type CheckTally struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// RemovalReasons tallies why examples were removed from the dataset
type RemovalReasons struct {
	DuplicateExact       int `json:"duplicate_exact"`
	DuplicateNear        int `json:"duplicate_near"`
	ContentLengthInvalid int `json:"content_length_invalid"`
}

// AutomatedChecks holds the per-category tallies over the full dataset
type AutomatedChecks struct {
	JSONValidity     CheckTally `json:"json_validity"`
	SchemaCompliance CheckTally `json:"schema_compliance"`
	ContentLength    CheckTally `json:"content_length"`
}

// GroundingIssue records the issues found for one sampled pair
type GroundingIssue struct {
	QAID   string   `json:"qa_id"`
	Issues []string `json:"issues"`
}

// SemanticSample summarizes the sampled grounding check
type SemanticSample struct {
	SampleSize        int              `json:"sample_size"`
	GroundingPassRate float64          `json:"grounding_pass_rate"`
	GroundingIssues   []GroundingIssue `json:"grounding_issues"`
}

// Report is the structured quality report emitted once per pipeline run.
type Report struct {
	ValidationTimestamp     string          `json:"validation_timestamp"`
	TotalExamplesGenerated  int             `json:"total_examples_generated"`
	ExamplesAfterValidation int             `json:"examples_after_validation"`
	RemovalReasons          RemovalReasons  `json:"removal_reasons"`
	AutomatedChecks         AutomatedChecks `json:"automated_checks"`
	SemanticChecksSample    SemanticSample  `json:"semantic_checks_sample"`
	Recommendations         []string        `json:"recommendations"`
}

// buildRecommendations appends human-readable guidance based on the
// grounding rate and duplicate volume.
func buildRecommendations(groundingPassRate float64, duplicatesRemoved int) []string {
	var recs []string

	if groundingPassRate < groundingPassThreshold {
		recs = append(recs, fmt.Sprintf(
			"Grounding pass rate is %.1f%%. Review flagged examples.", groundingPassRate*100))
	}
	if duplicatesRemoved > 10 {
		recs = append(recs, "High duplicate count. Consider reviewing question generation prompts.")
	}
	if len(recs) == 0 {
		recs = append(recs, "All checks passed. Dataset is ready for fine-tuning.")
	}

	return recs
}
