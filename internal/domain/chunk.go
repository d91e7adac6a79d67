package domain

// Chunk is a contiguous slice of document text, the unit of indexing
// and retrieval. Immutable after creation; removed only by a full
// index rebuild.
type Chunk struct {
	Text           string
	SourceDocument string
	ChunkIndex     int
	ApproxPage     int
	CharLength     int
}

// NewChunk creates a Chunk with CharLength derived from the text.
func NewChunk(text, sourceDocument string, chunkIndex, approxPage int) Chunk {
	if approxPage < 1 {
		approxPage = 1
	}
	return Chunk{
		Text:           text,
		SourceDocument: sourceDocument,
		ChunkIndex:     chunkIndex,
		ApproxPage:     approxPage,
		CharLength:     len(text),
	}
}

// ScoredChunk pairs a chunk with its distance from a query vector.
// Lower distance means more similar.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}
