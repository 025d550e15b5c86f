package chunking

import (
	"fmt"
	"strings"

	"github.com/techmart/store-assistant/internal/core/domain"
)

// Splitter bounds knowledge-base entries before embedding. Long policy or
// FAQ texts are cut into overlapping rune windows so each indexed vector
// stays within the embedding model's useful range.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// SplitDocument returns the document unchanged when it fits in one window;
// otherwise every part keeps the source metadata and gets a derived id.
func (s *Splitter) SplitDocument(doc domain.RetrievedChunk) []domain.RetrievedChunk {
	parts := s.split(doc.Text)
	if len(parts) <= 1 {
		return []domain.RetrievedChunk{doc}
	}

	out := make([]domain.RetrievedChunk, 0, len(parts))
	for i, part := range parts {
		piece := doc
		piece.ID = fmt.Sprintf("%s#%d", doc.ID, i)
		piece.Text = part
		out = append(out, piece)
	}
	return out
}

func (s *Splitter) split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
