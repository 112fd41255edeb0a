package resolve

import "sort"

// Match pairs a candidate with its similarity score.
type Match[T any] struct {
	Item  T
	Score float64
}

// BestMatches scores every candidate's label against query and returns
// those at or above threshold, sorted by score descending. The sort is
// stable: ties keep encounter order. Recency boosting is the caller's
// concern and happens after this.
func BestMatches[T any](query string, candidates []T, label func(T) string, threshold float64) []Match[T] {
	var matches []Match[T]
	for _, cand := range candidates {
		score := Similarity(query, label(cand))
		if score >= threshold {
			matches = append(matches, Match[T]{Item: cand, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}
