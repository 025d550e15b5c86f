package domain

// RetrievedChunk is one similarity-search match kept for context assembly.
// Score is the raw similarity in [0,1]; chunks below the configured
// threshold never reach the assembler.
type RetrievedChunk struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Source       string   `json:"source"`
	Score        float64  `json:"score"`
	Language     Language `json:"language"`
	DocumentType string   `json:"document_type"`
}

// UnstructuredResult is the filtered, capped outcome of vector retrieval.
type UnstructuredResult struct {
	Chunks     []RetrievedChunk
	Sources    []string
	MeanScore  float64
	TotalFound int
}

// SearchFilter narrows vector search by payload metadata. Empty fields add
// no constraint.
type SearchFilter struct {
	Language     Language
	DocumentType string
}
