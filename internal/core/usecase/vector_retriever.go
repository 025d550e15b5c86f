package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
)

const (
	defaultTopK               = 10
	defaultSimilarityFloor    = 0.60
	defaultMinChunkLength     = 20
	defaultMaxChunks          = 6
	defaultExpandedQueryLimit = 512
)

// intentKeywords expand the raw question with retrieval anchors per intent so
// short questions still land near the relevant documents.
var intentKeywords = map[domain.Intent][]string{
	domain.IntentPolicy:         {"policy", "procedure", "rules"},
	domain.IntentSupport:        {"troubleshooting", "support", "help"},
	domain.IntentService:        {"service", "repair", "maintenance"},
	domain.IntentProductInquiry: {"specifications", "features"},
	domain.IntentComparison:     {"comparison", "versus"},
	domain.IntentRecommendation: {"recommended", "best"},
}

// categoryDocumentTypes maps extracted categories onto the document-type
// metadata tag; the first matching category wins.
var categoryDocumentTypes = map[string]string{
	"policy":   "policy",
	"warranty": "policy",
	"return":   "policy",
	"faq":      "faq",
	"guide":    "guide",
	"manual":   "guide",
}

// VectorRetriever runs the semantic half of retrieval: embed an expanded
// query, search the index, then filter and bound the hits. Any failure
// degrades to the empty result.
type VectorRetriever struct {
	embedder ports.Embedder
	searcher ports.VectorSearcher

	topK            int
	similarityFloor float64
	minChunkLength  int
	maxChunks       int
}

func NewVectorRetriever(embedder ports.Embedder, searcher ports.VectorSearcher) *VectorRetriever {
	return &VectorRetriever{
		embedder:        embedder,
		searcher:        searcher,
		topK:            defaultTopK,
		similarityFloor: defaultSimilarityFloor,
		minChunkLength:  defaultMinChunkLength,
		maxChunks:       defaultMaxChunks,
	}
}

// Tune overrides the retrieval bounds; non-positive arguments keep the
// defaults.
func (r *VectorRetriever) Tune(topK int, similarityFloor float64, maxChunks int) *VectorRetriever {
	if topK > 0 {
		r.topK = topK
	}
	if similarityFloor > 0 {
		r.similarityFloor = similarityFloor
	}
	if maxChunks > 0 {
		r.maxChunks = maxChunks
	}
	return r
}

func (r *VectorRetriever) Retrieve(ctx context.Context, question string, analysis domain.QueryAnalysis) domain.UnstructuredResult {
	expanded := expandQuery(question, analysis)

	vector, err := r.embedder.EmbedQuery(ctx, expanded)
	if err != nil {
		slog.Warn("vector_retrieval_skipped", "stage", "embed", "error", err)
		return domain.UnstructuredResult{}
	}

	hits, err := r.searcher.Search(ctx, vector, r.topK, searchFilter(analysis))
	if err != nil {
		slog.Warn("vector_retrieval_skipped", "stage", "search", "error", err)
		return domain.UnstructuredResult{}
	}

	return r.collect(hits)
}

// collect applies the similarity floor, the minimum chunk length and the
// chunk cap, preserving the searcher's score order.
func (r *VectorRetriever) collect(hits []domain.RetrievedChunk) domain.UnstructuredResult {
	result := domain.UnstructuredResult{TotalFound: len(hits)}

	var scoreSum float64
	seenSources := make(map[string]struct{})
	for _, hit := range hits {
		if len(result.Chunks) >= r.maxChunks {
			break
		}
		if hit.Score < r.similarityFloor {
			continue
		}
		if len(strings.TrimSpace(hit.Text)) < r.minChunkLength {
			continue
		}
		result.Chunks = append(result.Chunks, hit)
		scoreSum += hit.Score
		if hit.Source != "" {
			if _, dup := seenSources[hit.Source]; !dup {
				seenSources[hit.Source] = struct{}{}
				result.Sources = append(result.Sources, hit.Source)
			}
		}
	}

	if len(result.Chunks) > 0 {
		result.MeanScore = scoreSum / float64(len(result.Chunks))
	}
	return result
}

// expandQuery appends intent anchors and extracted entity terms to the raw
// question, capped so the embedding input stays bounded.
func expandQuery(question string, analysis domain.QueryAnalysis) string {
	parts := []string{question}
	parts = append(parts, intentKeywords[analysis.Intent]...)
	parts = append(parts, analysis.Entities.Products...)
	parts = append(parts, analysis.Entities.Categories...)
	parts = append(parts, analysis.Entities.Services...)

	expanded := strings.Join(parts, " ")
	if runes := []rune(expanded); len(runes) > defaultExpandedQueryLimit {
		expanded = string(runes[:defaultExpandedQueryLimit])
	}
	return expanded
}

func searchFilter(analysis domain.QueryAnalysis) domain.SearchFilter {
	filter := domain.SearchFilter{Language: analysis.Language}
	for _, category := range analysis.Entities.Categories {
		if docType, ok := categoryDocumentTypes[strings.ToLower(category)]; ok {
			filter.DocumentType = docType
			break
		}
	}
	if filter.DocumentType == "" && analysis.Intent == domain.IntentPolicy {
		filter.DocumentType = "policy"
	}
	return filter
}
