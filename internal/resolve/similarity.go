package resolve

import "strings"

// Levenshtein returns the edit distance between a and b: the minimum
// number of single-rune insertions, deletions and substitutions needed
// to turn one into the other.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for j := 0; j <= len(ra); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(rb); i++ {
		curr[0] = i
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min3(
					prev[j-1]+1, // substitution
					curr[j-1]+1, // insertion
					prev[j]+1,   // deletion
				)
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(ra)]
}

// Similarity scores how well candidate matches query, in [0,1].
// Case-insensitive. Exact match scores 1.0; candidate containing the
// query scores 0.9; query containing the candidate scores 0.85;
// otherwise the score is normalized Levenshtein similarity.
func Similarity(query, candidate string) float64 {
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)

	if q == c {
		return 1
	}
	if strings.Contains(c, q) {
		return 0.9
	}
	if strings.Contains(q, c) {
		return 0.85
	}

	maxLen := len([]rune(q))
	if l := len([]rune(c)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}

	return 1 - float64(Levenshtein(q, c))/float64(maxLen)
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
