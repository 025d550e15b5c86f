package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/techmart/store-assistant/internal/config"
	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/infrastructure/chunking"
	"github.com/techmart/store-assistant/internal/infrastructure/llm/openai"
	"github.com/techmart/store-assistant/internal/infrastructure/repository/postgres"
	"github.com/techmart/store-assistant/internal/infrastructure/resilience"
	"github.com/techmart/store-assistant/internal/infrastructure/vector/pinecone"
	"github.com/techmart/store-assistant/internal/observability/logging"
)

const (
	// embedBatchSize bounds one embeddings request while indexing documents.
	embedBatchSize = 64

	chunkWindowRunes  = 900
	chunkOverlapRunes = 150
)

func main() {
	var (
		file      = flag.String("file", "catalog.xlsx", "path to the catalog workbook")
		indexDocs = flag.Bool("index-documents", false, "embed and upsert the Documents sheet into the vector index")
	)
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(logging.New("store-assistant-import", cfg.LogLevel, cfg.LogFormat))

	ctx := context.Background()
	if err := run(ctx, cfg, *file, *indexDocs); err != nil {
		slog.Error("import_failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, path string, indexDocs bool) error {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer workbook.Close()

	products, err := readProducts(workbook)
	if err != nil {
		return err
	}
	services, err := readServices(workbook)
	if err != nil {
		return err
	}
	storeInfo, err := readStoreInfo(workbook)
	if err != nil {
		return err
	}

	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	repo := postgres.NewImportRepository(db)
	productCount, err := repo.UpsertProducts(ctx, products)
	if err != nil {
		return err
	}
	serviceCount, err := repo.UpsertServices(ctx, services)
	if err != nil {
		return err
	}
	if storeInfo != nil {
		if err := repo.SetStoreInfo(ctx, *storeInfo); err != nil {
			return err
		}
	}
	slog.Info("catalog_imported",
		"products", productCount,
		"services", serviceCount,
		"store_info", storeInfo != nil,
	)

	if !indexDocs {
		return nil
	}
	documents, err := readDocuments(workbook)
	if err != nil {
		return err
	}
	if len(documents) == 0 {
		slog.Info("no_documents_to_index")
		return nil
	}
	return indexDocuments(ctx, cfg, documents)
}

// indexDocuments embeds the knowledge-base rows and upserts them into the
// vector index in bounded batches.
func indexDocuments(ctx context.Context, cfg config.Config, documents []domain.RetrievedChunk) error {
	executor := resilience.NewExecutor(resilience.DefaultConfig())
	embedder := openai.NewEmbedder(openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIChatModel, cfg.OpenAIEmbedModel, executor))
	index := pinecone.New(cfg.PineconeIndexHost, cfg.PineconeAPIKey, cfg.PineconeNamespace, executor)

	splitter := chunking.NewSplitter(chunkWindowRunes, chunkOverlapRunes)
	var chunks []domain.RetrievedChunk
	for _, doc := range documents {
		chunks = append(chunks, splitter.SplitDocument(doc)...)
	}
	documents = chunks

	for start := 0; start < len(documents); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(documents) {
			end = len(documents)
		}
		batch := documents[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}
		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if err := index.Upsert(ctx, batch, vectors); err != nil {
			return err
		}
		slog.Info("documents_indexed", "from", start, "to", end)
	}
	return nil
}
