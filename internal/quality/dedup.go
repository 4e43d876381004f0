package quality

import (
	"strings"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
)

// DedupStats summarizes one deduplication run
type DedupStats struct {
	OriginalCount          int `json:"original_count"`
	ExactDuplicatesRemoved int `json:"exact_duplicates_removed"`
	NearDuplicatesRemoved  int `json:"near_duplicates_removed"`
	FinalCount             int `json:"final_count"`
}

// Deduplicate removes exact and near-duplicate Q&A pairs. Both passes are
// deterministic and order-preserving: the first occurrence always wins.
//
// The exact pass keys on the trimmed lowercased question+answer jointly.
// The near pass compares questions only, over the exact-pass survivors,
// flagging the later-indexed member of every comparison at or above the
// threshold. A flagged pair still participates in later comparisons, so a
// chain A~B, B~C removes both B and C even when A and C are dissimilar.
// The O(n²) scan runs once per dataset; fine at helpdesk scale.
func Deduplicate(pairs []dataset.QAPair, threshold float64) ([]dataset.QAPair, DedupStats) {
	stats := DedupStats{OriginalCount: len(pairs)}

	type pairKey struct {
		question string
		answer   string
	}
	seen := make(map[pairKey]bool, len(pairs))
	survivors := make([]dataset.QAPair, 0, len(pairs))
	for _, p := range pairs {
		k := pairKey{normalize(p.Question), normalize(p.Answer)}
		if seen[k] {
			stats.ExactDuplicatesRemoved++
			continue
		}
		seen[k] = true
		survivors = append(survivors, p)
	}

	questions := make([][]rune, len(survivors))
	for i, p := range survivors {
		questions[i] = []rune(normalize(p.Question))
	}

	flagged := make(map[int]bool)
	for i := 0; i < len(survivors); i++ {
		for j := i + 1; j < len(survivors); j++ {
			// The ratio can never exceed 2·min/(len_i+len_j); skip the
			// DP when even that bound misses the threshold.
			if upperBoundRatio(questions[i], questions[j]) < threshold {
				continue
			}
			if similarityRatio(questions[i], questions[j]) >= threshold {
				stats.NearDuplicatesRemoved++
				flagged[j] = true
			}
		}
	}

	deduped := make([]dataset.QAPair, 0, len(survivors)-len(flagged))
	for i, p := range survivors {
		if !flagged[i] {
			deduped = append(deduped, p)
		}
	}

	stats.FinalCount = len(deduped)
	return deduped, stats
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func upperBoundRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	return 2.0 * float64(shorter) / float64(total)
}

// similarityRatio is the normalized longest-common-subsequence ratio
// 2·LCS(a,b)/(len(a)+len(b)), computed with a two-row DP.
func similarityRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return 2.0 * float64(prev[len(b)]) / float64(total)
}
