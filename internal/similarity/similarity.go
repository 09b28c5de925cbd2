package similarity

import (
	"strings"
	"unicode/utf8"
)

// minWordLength is the shortest word that takes part in word overlap.
const minWordLength = 3

// wordMatchThreshold is the edit-distance similarity above which two words count as the same word.
const wordMatchThreshold = 0.7

// LevenshteinDistance calculates the Levenshtein distance between two strings.
// Insertion, deletion and substitution each cost 1. Strings are compared rune by rune.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)

	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Create matrix
	rows := len(r1) + 1
	cols := len(r2) + 1
	matrix := make([][]int, rows)
	for i := range matrix {
		matrix[i] = make([]int, cols)
	}

	// Initialize first row and column
	for i := 0; i < rows; i++ {
		matrix[i][0] = i
	}
	for j := 0; j < cols; j++ {
		matrix[0][j] = j
	}

	// Fill the matrix
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}

			deletion := matrix[i-1][j] + 1
			insertion := matrix[i][j-1] + 1
			substitution := matrix[i-1][j-1] + cost

			matrix[i][j] = min(deletion, insertion, substitution)
		}
	}

	return matrix[rows-1][cols-1]
}

// EditDistance returns the normalized Levenshtein similarity of two strings in [0, 1].
// Two empty strings are identical.
func EditDistance(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}

	distance := LevenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// WordOverlap returns the share of words the two strings have in common.
//
// Words of two characters or fewer are ignored. Each word of a is matched at most once,
// against the first word of b that contains it, is contained by it, or is close to it by
// edit distance. The count is divided by the larger of the two word counts.
func WordOverlap(a, b string) float64 {
	wordsA := words(a)
	wordsB := words(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	matches := 0
	for _, wa := range wordsA {
		for _, wb := range wordsB {
			if wordsMatch(wa, wb) {
				matches++
				break
			}
		}
	}

	return float64(matches) / float64(max(len(wordsA), len(wordsB)))
}

// Best returns the higher of the edit-distance and word-overlap similarities.
func Best(a, b string) float64 {
	return max(EditDistance(a, b), WordOverlap(a, b))
}

func wordsMatch(a, b string) bool {
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return true
	}
	return EditDistance(a, b) > wordMatchThreshold
}

func words(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minWordLength {
			out = append(out, f)
		}
	}
	return out
}
