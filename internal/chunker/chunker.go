// Package chunker splits extracted document text into overlapping chunks
// and attributes each chunk to an approximate source page.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"scholarag/internal/domain"
)

// separators is the split priority: paragraph break, line break, space,
// and a character-level cut as last resort.
var separators = []string{"\n\n", "\n", " ", ""}

// minLineLength is the cleaning threshold: shorter lines are treated as
// extraction artifacts and dropped before splitting.
const minLineLength = 10

// pagePrefixLen bounds how much of a chunk and a page participate in
// page attribution.
const pagePrefixLen = 100

var (
	controlRe = regexp.MustCompile(`[\x{00}-\x{08}\x{0b}\x{0c}\x{0e}-\x{1f}\x{7f}-\x{9f}]`)
	blankRe   = regexp.MustCompile(`[ \t]+`)
)

// PageText is the extracted text of a single document page.
type PageText struct {
	Number int
	Text   string
}

// Chunker is a recursive character text splitter with overlap. Pure:
// Split has no side effects and is safe for concurrent use.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New validates the splitter configuration eagerly. An overlap that is
// not strictly smaller than the chunk size can never make progress.
func New(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", chunkSize, domain.ErrChunking)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be non-negative, got %d: %w", chunkOverlap, domain.ErrChunking)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d: %w",
			chunkOverlap, chunkSize, domain.ErrChunking)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split cleans the document text, splits it into chunks of at most the
// configured size, and attributes each chunk to an approximate page.
// Empty text (before or after cleaning) yields no chunks and no error.
func (c *Chunker) Split(sourceDocument, documentText string, pages []PageText) []domain.Chunk {
	cleaned := Clean(documentText)
	if cleaned == "" {
		return nil
	}

	pieces := c.splitRecursive(cleaned, separators)
	texts := c.merge(pieces)

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.NewChunk(text, sourceDocument, i, attributePage(text, pages)))
	}
	return chunks
}

// Clean strips control characters, collapses runs of spaces and tabs,
// and drops lines at or below the minimum meaningful length. Kept lines
// are rejoined with single newlines.
func Clean(text string) string {
	text = controlRe.ReplaceAllString(text, "")
	text = blankRe.ReplaceAllString(text, " ")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > minLineLength {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// splitRecursive breaks text into pieces no longer than chunkSize,
// preferring the earliest separator in seps that occurs in the text.
// Separators stay attached to the end of the preceding piece, so
// concatenating all pieces reproduces the input exactly.
func (c *Chunker) splitRecursive(text string, seps []string) []string {
	if len(text) <= c.chunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return cutEvery(text, c.chunkSize)
	}

	var pieces []string
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}
		if len(part) <= c.chunkSize {
			pieces = append(pieces, part)
			continue
		}
		pieces = append(pieces, c.splitRecursive(part, rest)...)
	}
	return pieces
}

// pickSeparator returns the first separator that occurs in text and the
// lower-priority remainder of the list. The empty separator means a
// character-level cut.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, s := range seps {
		if s == "" {
			return "", nil
		}
		if strings.Contains(text, s) {
			return s, seps[i+1:]
		}
	}
	return "", nil
}

func cutEvery(text string, size int) []string {
	pieces := make([]string, 0, (len(text)+size-1)/size)
	for len(text) > size {
		pieces = append(pieces, text[:size])
		text = text[size:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

// merge greedily packs pieces into chunks of at most chunkSize. Each
// chunk after the first starts with the last chunkOverlap characters of
// its predecessor; the overlap is trimmed when the next piece would not
// fit otherwise, so the size bound always holds.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var current string

	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		if len(current)+len(piece) <= c.chunkSize {
			current += piece
			continue
		}

		chunks = append(chunks, current)

		overlap := c.chunkOverlap
		if room := c.chunkSize - len(piece); overlap > room {
			overlap = room
		}
		if overlap > 0 {
			current = current[len(current)-min(overlap, len(current)):] + piece
		} else {
			current = piece
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// attributePage votes on the page whose opening tokens overlap most with
// the chunk's opening tokens. Ties keep the first page encountered.
// Heuristic only: pages sharing vocabulary can be misattributed.
func attributePage(chunkText string, pages []PageText) int {
	tokens := prefixTokens(chunkText)

	best := 1
	bestOverlap := 0
	for _, page := range pages {
		overlap := 0
		for tok := range prefixTokens(page.Text) {
			if _, ok := tokens[tok]; ok {
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = page.Number
		}
	}
	if best < 1 {
		best = 1
	}
	return best
}

func prefixTokens(text string) map[string]struct{} {
	if len(text) > pagePrefixLen {
		text = text[:pagePrefixLen]
	}
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}
