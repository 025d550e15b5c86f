package config

import "testing"

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("VECTOR_TOP_K", "")
	t.Setenv("VECTOR_SIMILARITY_FLOOR", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")
	t.Setenv("NATS_SUBJECT", "")
	t.Setenv("OPENAI_CHAT_MODEL", "")

	cfg := Load()
	if cfg.VectorTopK != 10 {
		t.Fatalf("expected default vector top k 10, got %d", cfg.VectorTopK)
	}
	if cfg.VectorSimilarityFloor != 0.60 {
		t.Fatalf("expected default similarity floor 0.60, got %v", cfg.VectorSimilarityFloor)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected default rate limit 20 rps, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.NATSSubject != "analytics.queries" {
		t.Fatalf("expected default analytics subject, got %q", cfg.NATSSubject)
	}
	if cfg.OpenAIChatModel != "gpt-4o-mini" {
		t.Fatalf("expected default chat model, got %q", cfg.OpenAIChatModel)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("VECTOR_TOP_K", "25")
	t.Setenv("VECTOR_SIMILARITY_FLOOR", "0.75")
	t.Setenv("API_RATE_LIMIT_RPS", "5.5")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PINECONE_NAMESPACE", "docs-ar")

	cfg := Load()
	if cfg.VectorTopK != 25 {
		t.Fatalf("expected vector top k 25, got %d", cfg.VectorTopK)
	}
	if cfg.VectorSimilarityFloor != 0.75 {
		t.Fatalf("expected similarity floor 0.75, got %v", cfg.VectorSimilarityFloor)
	}
	if cfg.APIRateLimitRPS != 5.5 {
		t.Fatalf("expected rate limit 5.5 rps, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("expected redis db 3, got %d", cfg.RedisDB)
	}
	if cfg.PineconeNamespace != "docs-ar" {
		t.Fatalf("expected pinecone namespace override, got %q", cfg.PineconeNamespace)
	}
}

func TestLoadFallsBackOnUnparsableNumbers(t *testing.T) {
	t.Setenv("VECTOR_TOP_K", "lots")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.VectorTopK != 10 {
		t.Fatalf("expected fallback vector top k 10, got %d", cfg.VectorTopK)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected fallback rate limit 20, got %v", cfg.APIRateLimitRPS)
	}
}
