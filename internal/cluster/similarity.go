package cluster

import "strings"

// Ratio returns a case-insensitive Ratcliff/Obershelp similarity in [0,1]:
// twice the number of matching characters over the total length of both
// strings, with matches found by recursively splitting around the longest
// common substring. Identical strings score 1.0, disjoint strings 0.0.
// The clustering threshold is tuned against this ratio specifically.
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matched := matchingChars(ra, rb)
	return 2.0 * float64(matched) / float64(total)
}

func matchingChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

// longestCommonSubstring returns the start offsets and length of the
// longest run of runes common to a and b. The earliest match in a (then b)
// wins ties, which keeps the recursion deterministic.
func longestCommonSubstring(a, b []rune) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > bestSize {
					bestSize = lengths[j]
					bestA = i - bestSize
					bestB = j - bestSize
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return bestA, bestB, bestSize
}
