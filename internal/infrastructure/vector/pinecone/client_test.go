package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1.0,
		BreakerEnabled:      false,
	})
}

func TestSearchBuildsQueryAndMapsMatches(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Api-Key") != "pc-key" {
			t.Errorf("api key header = %q", r.Header.Get("Api-Key"))
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"matches":[
			{"id":"c1","score":0.91,"metadata":{"text":"returns within 14 days","source":"policies.md","language":"en","document_type":"policy"}},
			{"id":"c2","score":0.55,"metadata":{"text":"other","source":"faq.md","language":"en","document_type":"faq"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "store-docs", testExecutor())
	chunks, err := client.Search(context.Background(), []float32{0.1, 0.2}, 10, domain.SearchFilter{
		Language:     domain.LanguageEnglish,
		DocumentType: "policy",
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if captured["topK"].(float64) != 10 {
		t.Fatalf("topK = %v", captured["topK"])
	}
	if captured["namespace"] != "store-docs" {
		t.Fatalf("namespace = %v", captured["namespace"])
	}
	filter := captured["filter"].(map[string]any)
	if filter["language"].(map[string]any)["$eq"] != "en" {
		t.Fatalf("language filter = %v", filter)
	}
	if filter["document_type"].(map[string]any)["$eq"] != "policy" {
		t.Fatalf("document_type filter = %v", filter)
	}

	if len(chunks) != 2 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	first := chunks[0]
	if first.ID != "c1" || first.Score != 0.91 || first.Source != "policies.md" || first.DocumentType != "policy" {
		t.Fatalf("first chunk = %+v", first)
	}
}

func TestSearchOmitsEmptyFilter(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "", testExecutor())
	if _, err := client.Search(context.Background(), []float32{0.1}, 5, domain.SearchFilter{}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, present := captured["filter"]; present {
		t.Fatalf("empty filter must be omitted: %v", captured)
	}
	if _, present := captured["namespace"]; present {
		t.Fatalf("empty namespace must be omitted: %v", captured)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "", testExecutor())
	if _, err := client.Search(context.Background(), []float32{0.1}, 5, domain.SearchFilter{}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want retry on 503", calls)
	}
}

func TestSearchMarksOutageTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "", testExecutor())
	_, err := client.Search(context.Background(), []float32{0.1}, 5, domain.SearchFilter{})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("outage must surface as temporary: %v", err)
	}
}

func TestUpsertSendsVectorsWithMetadata(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/upsert" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"upsertedCount":1}`))
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "store-docs", testExecutor())
	err := client.Upsert(context.Background(),
		[]domain.RetrievedChunk{{ID: "c1", Text: "warranty text", Source: "policies.md", Language: domain.LanguageEnglish, DocumentType: "policy"}},
		[][]float32{{0.1, 0.2}},
	)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	vectors := captured["vectors"].([]any)
	if len(vectors) != 1 {
		t.Fatalf("vectors = %v", vectors)
	}
	metadata := vectors[0].(map[string]any)["metadata"].(map[string]any)
	if metadata["source"] != "policies.md" || metadata["document_type"] != "policy" {
		t.Fatalf("metadata = %v", metadata)
	}
}

func TestUpsertRejectsMismatchedLengths(t *testing.T) {
	client := New("http://unused", "pc-key", "", testExecutor())
	err := client.Upsert(context.Background(), []domain.RetrievedChunk{{ID: "a"}}, nil)
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestDeleteSendsIDs(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/delete" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "", testExecutor())
	if err := client.Delete(context.Background(), []string{"c1", "c2"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ids := captured["ids"].([]any); len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
}
