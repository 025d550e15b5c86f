package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
)

// AnalyticsRepository persists query-analytics records on the worker side.
type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

var _ ports.AnalyticsStore = (*AnalyticsRepository)(nil)

func (r *AnalyticsRepository) SaveQueryAnalytics(ctx context.Context, record domain.QueryAnalytics) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO query_analytics (
	id, session_id, query, intent, language,
	products_found, services_found, chunks_used, top_similarity,
	confidence, language_corrected, response_time_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO NOTHING`,
		record.ID, record.SessionID, record.Query, string(record.Intent), string(record.Language),
		record.ProductsFound, record.ServicesFound, record.ChunksUsed, record.TopSimilarity,
		record.Confidence, record.LanguageCorrected, record.ResponseTimeMillis, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save query analytics: %w", err)
	}
	return nil
}
