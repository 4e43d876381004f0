package quality

import (
	"regexp"
	"strings"
)

// numberPattern matches numeric claims: optional currency symbol, digit
// groups with optional thousands separators, optional decimal part,
// optional trailing percent sign.
var numberPattern = regexp.MustCompile(`\$?\d+(?:,\d{3})*(?:\.\d+)?%?`)

// hallucinationMarkers are self-referential phrasings a grounded support
// answer should never contain. Matched case-insensitively.
var hallucinationMarkers = []string{
	"I don't have information",
	"I cannot find",
	"not mentioned in",
	"According to the article",
	"based on the document",
	"the article states",
	"as mentioned in the article",
}

// smallCounts are exempt from the numeric check: answers routinely
// enumerate steps ("there are 3 ways to...") without the article spelling
// the count out.
var smallCounts = map[string]bool{
	"1": true, "2": true, "3": true, "4": true, "5": true,
}

// CheckGrounding applies the hallucination heuristics to an answer
// against its source article text. Every numeric token in the answer that
// does not appear verbatim in the article (and is not a small count) is
// an issue, as is every marker phrase found in the answer. The answer is
// grounded iff no issues were found.
//
// This is a shallow syntactic check, not semantic verification:
// paraphrased or reformatted numbers produce false positives by intent.
func CheckGrounding(answer, articleText string) (bool, []string) {
	articleNumbers := make(map[string]bool)
	for _, num := range numberPattern.FindAllString(articleText, -1) {
		articleNumbers[num] = true
	}

	var issues []string

	seen := make(map[string]bool)
	for _, num := range numberPattern.FindAllString(answer, -1) {
		if seen[num] {
			continue
		}
		seen[num] = true
		if !articleNumbers[num] && !smallCounts[num] {
			issues = append(issues, num)
		}
	}

	lowerAnswer := strings.ToLower(answer)
	for _, marker := range hallucinationMarkers {
		if strings.Contains(lowerAnswer, strings.ToLower(marker)) {
			issues = append(issues, "marker: "+marker)
		}
	}

	return len(issues) == 0, issues
}
