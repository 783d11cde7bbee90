package qtext

// DefaultSimilarityThreshold is the ratio above which a candidate question
// is considered a duplicate of a prior one.
const DefaultSimilarityThreshold = 0.4

// IsSimilar reports whether candidate exceeds the similarity threshold
// against any of the prior texts. The check short-circuits on the first
// match and returns false when prior is empty. Comparison cost is O(n*m)
// per pair; callers cap prior at 20 entries.
func IsSimilar(candidate string, prior []string, threshold float64) bool {
	c := []rune(candidate)
	for _, p := range prior {
		if Ratio(c, []rune(p)) > threshold {
			return true
		}
	}
	return false
}

// Ratio returns a similarity measure in [0, 1] for two rune sequences:
// 2*M/T, where M is the total length of all matching blocks and T is the
// combined length of both sequences. Two empty sequences are identical.
func Ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchLen(a, b)) / float64(total)
}

// matchLen sums the lengths of the matching blocks found by repeatedly
// locating the longest common run and recursing into the pieces on either
// side of it (Ratcliff/Obershelp).
func matchLen(a, b []rune) int {
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return k + matchLen(a[:i], b[:j]) + matchLen(a[i+k:], b[j+k:])
}

// longestMatch finds the longest run a[i:i+k] == b[j:j+k], preferring the
// earliest such run on ties.
func longestMatch(a, b []rune) (bi, bj, bk int) {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	j2len := make(map[int]int)
	for i, r := range a {
		newJ2len := make(map[int]int)
		for _, j := range b2j[r] {
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bk {
				bi, bj, bk = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}
	return bi, bj, bk
}
