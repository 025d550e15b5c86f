package pinecone

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
)

// MemoryIndex is an in-process cosine-similarity index with the same
// contract as the remote client. It backs local development and the
// catalog-import dry-run mode.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	chunk  domain.RetrievedChunk
	vector []float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]memoryEntry)}
}

var _ ports.VectorSearcher = (*MemoryIndex)(nil)

func (m *MemoryIndex) Upsert(_ context.Context, chunks []domain.RetrievedChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d vs %d", len(chunks), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, chunk := range chunks {
		m.entries[chunk.ID] = memoryEntry{chunk: chunk, vector: vectors[i]}
	}
	return nil
}

func (m *MemoryIndex) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, queryVector []float32, topK int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.RetrievedChunk, 0, len(m.entries))
	for _, entry := range m.entries {
		if filter.Language != "" && entry.chunk.Language != filter.Language {
			continue
		}
		if filter.DocumentType != "" && entry.chunk.DocumentType != filter.DocumentType {
			continue
		}
		chunk := entry.chunk
		chunk.Score = cosineSimilarity(queryVector, entry.vector)
		out = append(out, chunk)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
