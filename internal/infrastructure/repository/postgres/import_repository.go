package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/techmart/store-assistant/internal/core/domain"
)

// ProductRow is one imported catalog row. NameArabic feeds the bilingual
// name matching and has no place on the read-side record.
type ProductRow struct {
	domain.ProductRecord
	NameArabic string
}

// ImportRepository is the write side of the catalog, used only by the
// catalog-import tool.
type ImportRepository struct {
	db *sql.DB
}

func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

func (r *ImportRepository) UpsertProducts(ctx context.Context, rows []ProductRow) (int, error) {
	const query = `
INSERT INTO products (sku, name, name_ar, brand, category, price, original_price, discount_percent, stock_quantity, warranty_months, is_featured, is_promotion, promotion_text, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
ON CONFLICT (sku) DO UPDATE SET
	name = EXCLUDED.name,
	name_ar = EXCLUDED.name_ar,
	brand = EXCLUDED.brand,
	category = EXCLUDED.category,
	price = EXCLUDED.price,
	original_price = EXCLUDED.original_price,
	discount_percent = EXCLUDED.discount_percent,
	stock_quantity = EXCLUDED.stock_quantity,
	warranty_months = EXCLUDED.warranty_months,
	is_featured = EXCLUDED.is_featured,
	is_promotion = EXCLUDED.is_promotion,
	promotion_text = EXCLUDED.promotion_text,
	updated_at = NOW()`

	count := 0
	for _, row := range rows {
		var promotionText sql.NullString
		if row.PromotionText != "" {
			promotionText = sql.NullString{String: row.PromotionText, Valid: true}
		}
		if _, err := r.db.ExecContext(ctx, query,
			row.SKU, row.Name, row.NameArabic, row.Brand, row.Category,
			row.Price, row.OriginalPrice, row.DiscountPercent,
			row.StockQuantity, row.WarrantyMonths,
			row.IsFeatured, row.IsPromotion, promotionText,
		); err != nil {
			return count, fmt.Errorf("upsert product %s: %w", row.SKU, err)
		}
		count++
	}
	return count, nil
}

func (r *ImportRepository) UpsertServices(ctx context.Context, services []domain.ServiceRecord) (int, error) {
	const query = `
INSERT INTO services (name, category, description, base_price, duration_hours, requirements, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (name) DO UPDATE SET
	category = EXCLUDED.category,
	description = EXCLUDED.description,
	base_price = EXCLUDED.base_price,
	duration_hours = EXCLUDED.duration_hours,
	requirements = EXCLUDED.requirements,
	updated_at = NOW()`

	count := 0
	for _, service := range services {
		var requirements []byte
		if len(service.Requirements) > 0 {
			encoded, err := json.Marshal(service.Requirements)
			if err != nil {
				return count, fmt.Errorf("encode requirements for %s: %w", service.Name, err)
			}
			requirements = encoded
		}
		if _, err := r.db.ExecContext(ctx, query,
			service.Name, service.Category, service.Description,
			service.Price, service.DurationHours, requirements,
		); err != nil {
			return count, fmt.Errorf("upsert service %s: %w", service.Name, err)
		}
		count++
	}
	return count, nil
}

// SetStoreInfo replaces the single store-info row.
func (r *ImportRepository) SetStoreInfo(ctx context.Context, info domain.StoreRecord) error {
	const query = `
INSERT INTO store_info (id, name, address, phone, email, opening_hours, updated_at)
VALUES (1, $1, $2, $3, $4, $5, NOW())
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	phone = EXCLUDED.phone,
	email = EXCLUDED.email,
	opening_hours = EXCLUDED.opening_hours,
	updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, info.Name, info.Address, info.Phone, info.Email, info.Hours); err != nil {
		return fmt.Errorf("set store info: %w", err)
	}
	return nil
}
