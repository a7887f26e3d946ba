package ingest

import (
	"strings"
)

const (
	// DefaultChunkSize is the target number of words per chunk.
	DefaultChunkSize = 200
	// DefaultOverlap is the number of overlapping words between chunks.
	DefaultOverlap = 30
)

// chunkSentences groups sentences into chunks of ~chunkSize words, carrying
// about overlap words of trailing context into the next chunk.
func chunkSentences(docID string, sentences []string, chunkSize, overlap int) []Chunk {
	if len(sentences) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []Chunk
	start := 0

	for start < len(sentences) {
		var buf strings.Builder
		words := 0
		end := start

		for end < len(sentences) {
			n := wordCount(sentences[end])
			if words+n > chunkSize && words > 0 {
				break
			}
			if buf.Len() > 0 {
				buf.WriteRune(' ')
			}
			buf.WriteString(sentences[end])
			words += n
			end++
		}

		chunks = append(chunks, Chunk{Text: buf.String(), Index: len(chunks), DocID: docID})
		if end == len(sentences) {
			break
		}

		// Step back over trailing sentences until overlap words are covered.
		carried := 0
		next := end
		for next > start+1 && carried < overlap {
			next--
			carried += wordCount(sentences[next])
		}
		start = next
	}
	return chunks
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
