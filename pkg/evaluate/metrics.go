// Package evaluate scores recognized text against a ground truth transcript.
package evaluate

import (
	"regexp"
	"strings"
)

// Metrics compares a recognized text with its ground truth.
type Metrics struct {
	CharacterSimilarity   float64 `json:"character_similarity" yaml:"character_similarity"`
	WordSimilarity        float64 `json:"word_similarity" yaml:"word_similarity"`
	WordAccuracy          float64 `json:"word_accuracy" yaml:"word_accuracy"`
	WordErrorRate         float64 `json:"word_error_rate" yaml:"word_error_rate"`
	TotalWordsOriginal    int     `json:"total_words_original" yaml:"total_words_original"`
	TotalWordsTranscribed int     `json:"total_words_transcribed" yaml:"total_words_transcribed"`
	CorrectWords          int     `json:"correct_words" yaml:"correct_words"`
	Substitutions         int     `json:"substitutions" yaml:"substitutions"`
	Deletions             int     `json:"deletions" yaml:"deletions"`
	Insertions            int     `json:"insertions" yaml:"insertions"`
}

var whitespace = regexp.MustCompile(`\s+`)

// Compare computes the metrics after lower-casing both texts and
// collapsing whitespace.
func Compare(original, transcribed string) Metrics {
	origNorm := normalizeText(original)
	transNorm := normalizeText(transcribed)
	origWords := strings.Fields(origNorm)
	transWords := strings.Fields(transNorm)

	ops := alignWords(origWords, transWords)
	edits := ops.substitutions + ops.deletions + ops.insertions
	wer := 0.0
	if len(origWords) > 0 {
		wer = float64(edits) / float64(len(origWords))
	}

	return Metrics{
		CharacterSimilarity:   Similarity(origNorm, transNorm),
		WordSimilarity:        Similarity(strings.Join(origWords, " "), strings.Join(transWords, " ")),
		WordAccuracy:          1.0 - wer,
		WordErrorRate:         wer,
		TotalWordsOriginal:    len(origWords),
		TotalWordsTranscribed: len(transWords),
		CorrectWords:          ops.correct,
		Substitutions:         ops.substitutions,
		Deletions:             ops.deletions,
		Insertions:            ops.insertions,
	}
}

// Average returns the mean of the ratio metrics and the sums of the counts.
func Average(all []Metrics) Metrics {
	var avg Metrics
	if len(all) == 0 {
		return avg
	}
	for _, m := range all {
		avg.CharacterSimilarity += m.CharacterSimilarity
		avg.WordSimilarity += m.WordSimilarity
		avg.WordAccuracy += m.WordAccuracy
		avg.WordErrorRate += m.WordErrorRate
		avg.TotalWordsOriginal += m.TotalWordsOriginal
		avg.TotalWordsTranscribed += m.TotalWordsTranscribed
		avg.CorrectWords += m.CorrectWords
		avg.Substitutions += m.Substitutions
		avg.Deletions += m.Deletions
		avg.Insertions += m.Insertions
	}
	n := float64(len(all))
	avg.CharacterSimilarity /= n
	avg.WordSimilarity /= n
	avg.WordAccuracy /= n
	avg.WordErrorRate /= n
	return avg
}

func normalizeText(text string) string {
	return strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(text), " "))
}

// Levenshtein is the edit distance between two strings in runes.
func Levenshtein(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// Similarity is 1 minus the edit distance over the longer length.
func Similarity(s1, s2 string) float64 {
	maxLen := max(len([]rune(s1)), len([]rune(s2)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(s1, s2))/float64(maxLen)
}

type wordOps struct {
	correct, substitutions, deletions, insertions int
}

// alignWords runs a word level edit distance and backtracks to count the
// operations.
func alignWords(orig, trans []string) wordOps {
	m, n := len(orig), len(trans)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dp[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if orig[i-1] == trans[j-1] {
				dp[i][j] = dp[i-1][j-1]
			} else {
				dp[i][j] = 1 + min(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
			}
		}
	}

	var ops wordOps
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && orig[i-1] == trans[j-1]:
			ops.correct++
			i--
			j--
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+1:
			ops.substitutions++
			i--
			j--
		case i > 0 && dp[i][j] == dp[i-1][j]+1:
			ops.deletions++
			i--
		default:
			ops.insertions++
			j--
		}
	}
	return ops
}
