package services

import (
	"regexp"
	"strings"

	"github.com/cloudymate/cloudymate/models"
)

// Chunking operating points. Uploads use the larger chunks for throughput;
// the finer default suits smaller documents such as watched drop-folder files.
const (
	IngestChunkSize    = 1500
	IngestChunkOverlap = 300

	DefaultChunkSize    = 800
	DefaultChunkOverlap = 200
)

var (
	multiBlankLines = regexp.MustCompile(`\n\s*\n\s*\n+`)
	multiSpaces     = regexp.MustCompile(` +`)
)

// NormalizeText cleans raw extracted text before chunking: runs of blank
// lines collapse to one, runs of spaces collapse to one, every line is
// stripped, and so is the whole text.
func NormalizeText(text string) string {
	text = multiBlankLines.ReplaceAllString(text, "\n\n")
	text = multiSpaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ChunkText splits text into overlapping chunks of at most chunkSize runes.
// A chunk that is not the last one ends after the rightmost sentence-like
// boundary ('.', '\n', '?', '!') found in its window, but only when that
// boundary sits past 70% of the window; otherwise the cut is hard. Each
// emitted chunk is whitespace-trimmed and non-empty.
//
// Callers must keep overlap < chunkSize; equal or larger overlap would stall
// the cursor.
func ChunkText(text string, chunkSize, overlap int) []models.Chunk {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}

	var chunks []models.Chunk
	start := 0
	for start < total {
		end := start + chunkSize

		if end < total {
			if bp := lastBoundary(runes[start:end]); float64(bp) > float64(chunkSize)*0.7 {
				end = start + bp + 1
			}
		} else {
			end = total
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, models.Chunk{
				Text:       piece,
				Index:      len(chunks),
				CharLength: len([]rune(piece)),
			})
		}

		if end < total {
			start = end - overlap
		} else {
			start = total
		}
	}
	return chunks
}

// lastBoundary returns the rightmost index of a sentence-like boundary rune
// in the window, or -1 when none is present.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		switch window[i] {
		case '.', '\n', '?', '!':
			return i
		}
	}
	return -1
}
