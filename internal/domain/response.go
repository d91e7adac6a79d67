package domain

// SourceRef points a reader back at the chunk an answer was grounded on.
type SourceRef struct {
	SourceDocument string `json:"source_document"`
	ApproxPage     int    `json:"approx_page"`
	ChunkPreview   string `json:"chunk_preview"`
	ChunkLength    int    `json:"chunk_length"`
}

// Response is the structured answer to a single question.
// Confidence is a heuristic in [0,1], not a calibrated probability.
type Response struct {
	Answer         string      `json:"answer"`
	Sources        []SourceRef `json:"sources"`
	Confidence     float64     `json:"confidence"`
	DocumentsFound int         `json:"documents_found"`
}
