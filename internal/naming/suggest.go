package naming

import (
	"sort"
	"strings"
)

// Levenshtein computes the edit distance between two strings: the minimum
// number of single-character insertions, deletions or substitutions needed
// to turn one into the other.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	if len(a) > len(b) {
		a, b = b, a
	}

	if len(a) == 0 {
		return len(b)
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(a)]
}

// Similarity returns 1 - distance/maxLen, in [0, 1]. Identical strings score 1.
func Similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	return 1.0 - float64(Levenshtein(a, b))/float64(max(len(a), len(b)))
}

// minSimilarity is the lowest score a candidate needs to be suggested.
const minSimilarity = 0.5

// Closest returns the candidates that plausibly match input, best first.
// Comparison ignores case and separators, so "Delta-Stream" still finds
// "delta_stream".
func Closest(input string, candidates []string) []string {
	type scored struct {
		name  string
		score float64
	}

	key := normalize(input)

	var hits []scored

	for _, c := range candidates {
		score := Similarity(key, normalize(c))
		if score >= minSimilarity {
			hits = append(hits, scored{name: c, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}

		return hits[i].name < hits[j].name
	})

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}

	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.Join(Tokenize(s), " "))), "")
}
