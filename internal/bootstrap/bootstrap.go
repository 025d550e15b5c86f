package bootstrap

import (
	"context"
	"fmt"

	"github.com/techmart/store-assistant/internal/config"
	"github.com/techmart/store-assistant/internal/core/language"
	"github.com/techmart/store-assistant/internal/core/ports"
	"github.com/techmart/store-assistant/internal/core/prompt"
	"github.com/techmart/store-assistant/internal/core/usecase"
	"github.com/techmart/store-assistant/internal/infrastructure/cache/redis"
	"github.com/techmart/store-assistant/internal/infrastructure/llm/openai"
	"github.com/techmart/store-assistant/internal/infrastructure/queue/nats"
	"github.com/techmart/store-assistant/internal/infrastructure/repository/postgres"
	"github.com/techmart/store-assistant/internal/infrastructure/resilience"
	"github.com/techmart/store-assistant/internal/infrastructure/vector/pinecone"
)

// App wires the full dependency graph once and hands the API and worker
// binaries their entry points.
type App struct {
	Config config.Config

	Assistant   ports.Assistant
	Suggestions ports.SuggestionProvider
	Sessions    ports.SessionStore
	Queue       *nats.Queue
	Analytics   ports.AnalyticsStore

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	cache := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		_ = cache.Close()
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	catalogStore := redis.NewCachedCatalog(postgres.NewCatalogRepository(db), cache)
	sessions := postgres.NewSessionRepository(db)
	analytics := postgres.NewAnalyticsRepository(db)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = cache.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init analytics queue: %w", err)
	}

	model := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIChatModel, cfg.OpenAIEmbedModel, executor)
	embedder := openai.NewEmbedder(model)

	// Without an index host the assistant runs against the in-process index,
	// which answers from whatever was loaded by cmd/catalog-import.
	var searcher ports.VectorSearcher
	if cfg.PineconeIndexHost != "" {
		searcher = pinecone.New(cfg.PineconeIndexHost, cfg.PineconeAPIKey, cfg.PineconeNamespace, executor)
	} else {
		searcher = pinecone.NewMemoryIndex()
	}

	profile, err := prompt.LoadProfile()
	if err != nil {
		queue.Close()
		_ = cache.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load store profile: %w", err)
	}
	prompts := prompt.NewCatalog(profile)
	classifier := language.NewClassifier()

	assistant := usecase.NewAssistantService(
		usecase.NewQueryAnalyzer(model, prompts, classifier),
		usecase.NewCatalogRetriever(catalogStore),
		usecase.NewVectorRetriever(embedder, searcher).Tune(cfg.VectorTopK, cfg.VectorSimilarityFloor, cfg.VectorMaxChunks),
		usecase.NewContextAssembler(),
		usecase.NewResponseGenerator(model, prompts, classifier),
		usecase.NewConfidenceScorer(),
		prompts,
		sessions,
		queue,
	)

	return &App{
		Config: cfg,

		Assistant:   assistant,
		Suggestions: assistant,
		Sessions:    sessions,
		Queue:       queue,
		Analytics:   analytics,

		closeFn: func() {
			queue.Close()
			_ = cache.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
