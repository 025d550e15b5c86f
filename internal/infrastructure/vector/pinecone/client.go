package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
	"github.com/techmart/store-assistant/internal/infrastructure/resilience"
)

// Client talks to a Pinecone index over its data-plane REST API. Safe for
// concurrent use; connections are pooled by the shared http.Client.
type Client struct {
	indexHost  string
	apiKey     string
	namespace  string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(indexHost, apiKey, namespace string, executor *resilience.Executor) *Client {
	return &Client{
		indexHost:  strings.TrimRight(indexHost, "/"),
		apiKey:     apiKey,
		namespace:  namespace,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

var _ ports.VectorSearcher = (*Client)(nil)

type queryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
}

func (c *Client) Search(ctx context.Context, queryVector []float32, topK int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector":          queryVector,
		"topK":            topK,
		"includeMetadata": true,
	}
	if c.namespace != "" {
		reqBody["namespace"] = c.namespace
	}
	if metadataFilter := buildMetadataFilter(filter); len(metadataFilter) > 0 {
		reqBody["filter"] = metadataFilter
	}

	var response queryResponse
	err := c.executor.Execute(ctx, "pinecone.query", func(ctx context.Context) error {
		return c.postJSON(ctx, "/query", reqBody, &response, "query")
	}, classifyPineconeError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("vector search", err)
	}

	out := make([]domain.RetrievedChunk, 0, len(response.Matches))
	for _, match := range response.Matches {
		out = append(out, domain.RetrievedChunk{
			ID:           match.ID,
			Text:         metadataString(match.Metadata, "text"),
			Source:       metadataString(match.Metadata, "source"),
			Score:        match.Score,
			Language:     domain.Language(metadataString(match.Metadata, "language")),
			DocumentType: metadataString(match.Metadata, "document_type"),
		})
	}
	return out, nil
}

func (c *Client) Upsert(ctx context.Context, chunks []domain.RetrievedChunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d vs %d", len(chunks), len(vectors))
	}

	type vectorRecord struct {
		ID       string         `json:"id"`
		Values   []float32      `json:"values"`
		Metadata map[string]any `json:"metadata"`
	}

	records := make([]vectorRecord, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, vectorRecord{
			ID:     chunk.ID,
			Values: vectors[i],
			Metadata: map[string]any{
				"text":          chunk.Text,
				"source":        chunk.Source,
				"language":      string(chunk.Language),
				"document_type": chunk.DocumentType,
			},
		})
	}

	reqBody := map[string]any{"vectors": records}
	if c.namespace != "" {
		reqBody["namespace"] = c.namespace
	}

	var response struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	err := c.executor.Execute(ctx, "pinecone.upsert", func(ctx context.Context) error {
		return c.postJSON(ctx, "/vectors/upsert", reqBody, &response, "upsert")
	}, classifyPineconeError)
	return wrapTemporaryIfNeeded("vector upsert", err)
}

func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	reqBody := map[string]any{"ids": ids}
	if c.namespace != "" {
		reqBody["namespace"] = c.namespace
	}

	var response struct{}
	err := c.executor.Execute(ctx, "pinecone.delete", func(ctx context.Context) error {
		return c.postJSON(ctx, "/vectors/delete", reqBody, &response, "delete")
	}, classifyPineconeError)
	return wrapTemporaryIfNeeded("vector delete", err)
}

func buildMetadataFilter(filter domain.SearchFilter) map[string]any {
	out := map[string]any{}
	if filter.Language != "" {
		out["language"] = map[string]any{"$eq": string(filter.Language)}
	}
	if filter.DocumentType != "" {
		out["document_type"] = map[string]any{"$eq": filter.DocumentType}
	}
	return out
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexHost+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return formatPineconeHTTPError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func formatPineconeHTTPError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

func metadataString(metadata map[string]any, key string) string {
	v, ok := metadata[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
