package kb

import (
	"fmt"
	"strings"
)

// Chunker splits plain text into overlapping windows of at most size runes.
// Consecutive chunks share exactly overlap runes unless a natural boundary
// was used, in which case they share less. Splitting is deterministic.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := c.findBreak(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		next := cut - c.overlap
		if next <= start {
			next = start + (c.size - c.overlap)
		}
		start = next
	}
	return chunks
}

// findBreak prefers to end a chunk at a paragraph, line or word boundary.
// Only the trailing overlap region is searched so every chunk keeps at least
// size-overlap runes of fresh content.
func (c *Chunker) findBreak(runes []rune, start, end int) int {
	low := end - c.overlap
	if low <= start {
		low = start + 1
	}
	if cut := lastBoundary(runes, low, end, func(i int) bool {
		return runes[i] == '\n' && i > 0 && runes[i-1] == '\n'
	}); cut > 0 {
		return cut + 1
	}
	if cut := lastBoundary(runes, low, end, func(i int) bool { return runes[i] == '\n' }); cut > 0 {
		return cut + 1
	}
	if cut := lastBoundary(runes, low, end, func(i int) bool { return runes[i] == ' ' }); cut > 0 {
		return cut + 1
	}
	return end
}

func lastBoundary(runes []rune, low, end int, isBoundary func(int) bool) int {
	for i := end - 1; i >= low; i-- {
		if isBoundary(i) {
			return i
		}
	}
	return -1
}
