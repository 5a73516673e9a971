// Package fuzzy scores textual similarity on a 0-100 scale for the
// duplicate-avoidance policy.
package fuzzy

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Ratio returns a symmetric similarity score between a and b, normalized to
// 0-100. Identical strings always score 100.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	score := strutil.Similarity(strings.TrimSpace(a), strings.TrimSpace(b), lev)
	return int(score * 100)
}

// TooSimilar reports whether candidate scores at or above threshold against
// any element of against. An empty against list never rejects.
func TooSimilar(candidate string, against []string, threshold int) bool {
	for _, s := range against {
		if Ratio(candidate, s) >= threshold {
			return true
		}
	}
	return false
}
