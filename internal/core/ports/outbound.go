package ports

import (
	"context"
	"time"

	"github.com/techmart/store-assistant/internal/core/domain"
)

// ProductOrder selects the catalog ordering policy derived from intent.
type ProductOrder string

const (
	OrderFeaturedThenName ProductOrder = "featured_name"
	OrderPriceAscending   ProductOrder = "price_asc"
	OrderPromotedFirst    ProductOrder = "promoted_first"
)

// ProductFilter is a conjunction of optional constraints. Empty slices and
// nil ranges add no constraint; the catalog must tolerate a fully empty
// filter and return default-ordered rows.
type ProductFilter struct {
	Names      []string
	Brands     []string
	Categories []string
	PriceRange *domain.PriceRange
}

type ServiceFilter struct {
	Names []string
}

// CatalogStore is the relational collaborator for products, services and
// store information.
type CatalogStore interface {
	FindProducts(ctx context.Context, filter ProductFilter, order ProductOrder, limit int) ([]domain.ProductRecord, error)
	FindServices(ctx context.Context, filter ServiceFilter, limit int) ([]domain.ServiceRecord, error)
	GetStoreInfo(ctx context.Context) (*domain.StoreRecord, error)
}

// Embedder builds vectors for query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the similarity-search collaborator over the already
// indexed document store. Upsert and Delete belong to the ingestion
// pipeline and are not called by the answer pipeline itself.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, topK int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	Upsert(ctx context.Context, chunks []domain.RetrievedChunk, vectors [][]float32) error
	Delete(ctx context.Context, ids []string) error
}

// GenerationOptions tune a single model call.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// ChatModel is the generative-model collaborator.
type ChatModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts GenerationOptions) (string, error)
	// CompleteStream delivers incremental text through emit and returns the
	// accumulated full text; a non-nil error from emit aborts the call.
	CompleteStream(ctx context.Context, systemPrompt, userPrompt string, opts GenerationOptions, emit func(token string) error) (string, error)
}

// SessionStore supplies bounded conversation history and accepts new turns.
type SessionStore interface {
	EnsureSession(ctx context.Context, sessionID string, language domain.Language) error
	PreferredLanguage(ctx context.Context, sessionID string) (domain.Language, error)
	UpdatePreferredLanguage(ctx context.Context, sessionID string, language domain.Language) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error)
	AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error
}

// AnalyticsPublisher hands a query-analytics record to the event bus.
type AnalyticsPublisher interface {
	PublishQueryAnalytics(ctx context.Context, record domain.QueryAnalytics) error
}

// AnalyticsStore persists analytics records on the worker side.
type AnalyticsStore interface {
	SaveQueryAnalytics(ctx context.Context, record domain.QueryAnalytics) error
}

// Cache is a byte-value cache with per-key TTL, used for read-through
// catalog caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
