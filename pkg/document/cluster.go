package document

import (
	"math"
	"sort"
	"strings"
)

// DefaultLineThreshold is the vertical tolerance in pixels between a word's
// top edge and the top edge of the word that opened the current line.
const DefaultLineThreshold = 30.0

// NewWord builds a word from a normalized box. The id is derived from the
// page id and the raw top-left corner.
func NewWord(pageID string, bbox BoundingBox, text string) Word {
	return Word{
		ID:   WordID(pageID, bbox.LeftTop.X, bbox.LeftTop.Y, text),
		Text: text,
		BBox: bbox.Compact(),
	}
}

// ClusterLines groups the words of one page into lines with a single pass
// over the words ordered by top edge. A word joins the current line when its
// top edge is within threshold of the top edge of the line's first word;
// otherwise the line is closed and the word opens the next one.
//
// The anchor is never recomputed, so on pages with lines spaced close to the
// threshold a word is assigned by its distance to the opening word rather
// than to its nearest neighbour.
func ClusterLines(pageID string, words []Word, threshold float64) []Line {
	lines := []Line{}
	if len(words) == 0 {
		return lines
	}

	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Top() < sorted[j].BBox.Top()
	})

	var currentLineWords []Word
	currentY := sorted[0].BBox.Top()

	for _, word := range sorted {
		if len(currentLineWords) == 0 || math.Abs(word.BBox.Top()-currentY) < threshold {
			currentLineWords = append(currentLineWords, word)
			continue
		}

		lines = append(lines, createLineFromWords(pageID, len(lines), currentLineWords))
		currentLineWords = []Word{word}
		currentY = word.BBox.Top()
	}

	if len(currentLineWords) > 0 {
		lines = append(lines, createLineFromWords(pageID, len(lines), currentLineWords))
	}

	return lines
}

// createLineFromWords orders words left to right and computes the envelope.
func createLineFromWords(pageID string, lineIndex int, words []Word) Line {
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].BBox.Left() < words[j].BBox.Left()
	})

	texts := make([]string, len(words))
	for i, word := range words {
		texts[i] = word.Text
	}

	return Line{
		ID:    LineID(pageID, lineIndex),
		Text:  strings.Join(texts, " "),
		BBox:  Envelope(words),
		Words: words,
	}
}

// Envelope returns the tightest box containing every word's box.
// It returns the zero Box for an empty slice.
func Envelope(words []Word) Box {
	if len(words) == 0 {
		return Box{}
	}

	env := words[0].BBox
	for _, word := range words[1:] {
		env[0] = math.Min(env[0], word.BBox.Left())
		env[1] = math.Min(env[1], word.BBox.Top())
		env[2] = math.Max(env[2], word.BBox.Right())
		env[3] = math.Max(env[3], word.BBox.Bottom())
	}
	return env
}
