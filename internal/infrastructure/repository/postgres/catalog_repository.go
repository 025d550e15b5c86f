package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
)

// CatalogRepository serves the structured half of retrieval: products,
// services and the single store-info row.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

var _ ports.CatalogStore = (*CatalogRepository)(nil)

const productColumns = "sku, name, brand, category, price, original_price, discount_percent, stock_quantity, warranty_months, is_featured, is_promotion, promotion_text"

func (r *CatalogRepository) FindProducts(ctx context.Context, filter ports.ProductFilter, order ports.ProductOrder, limit int) ([]domain.ProductRecord, error) {
	var (
		conditions []string
		args       []any
	)
	appendTermGroup := func(columns []string, terms []string) {
		if len(terms) == 0 {
			return
		}
		group := make([]string, 0, len(terms)*len(columns))
		for _, term := range terms {
			args = append(args, "%"+term+"%")
			placeholder := fmt.Sprintf("$%d", len(args))
			for _, column := range columns {
				group = append(group, fmt.Sprintf("%s ILIKE %s", column, placeholder))
			}
		}
		conditions = append(conditions, "("+strings.Join(group, " OR ")+")")
	}

	appendTermGroup([]string{"name", "name_ar"}, filter.Names)
	appendTermGroup([]string{"brand"}, filter.Brands)
	appendTermGroup([]string{"category"}, filter.Categories)

	if filter.PriceRange != nil {
		if filter.PriceRange.Min > 0 {
			args = append(args, filter.PriceRange.Min)
			conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
		}
		if filter.PriceRange.Max > 0 {
			args = append(args, filter.PriceRange.Max)
			conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
		}
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + orderClause(order)
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ProductRecord, 0)
	for rows.Next() {
		var p domain.ProductRecord
		var promotionText sql.NullString
		if err := rows.Scan(
			&p.SKU, &p.Name, &p.Brand, &p.Category,
			&p.Price, &p.OriginalPrice, &p.DiscountPercent,
			&p.StockQuantity, &p.WarrantyMonths,
			&p.IsFeatured, &p.IsPromotion, &promotionText,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.PromotionText = promotionText.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func orderClause(order ports.ProductOrder) string {
	switch order {
	case ports.OrderPriceAscending:
		return "price ASC, name ASC"
	case ports.OrderPromotedFirst:
		return "is_promotion DESC, is_featured DESC, name ASC"
	default:
		return "is_featured DESC, name ASC"
	}
}

func (r *CatalogRepository) FindServices(ctx context.Context, filter ports.ServiceFilter, limit int) ([]domain.ServiceRecord, error) {
	var (
		conditions []string
		args       []any
	)
	for _, term := range filter.Names {
		args = append(args, "%"+term+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		conditions = append(conditions, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", placeholder, placeholder))
	}

	query := "SELECT name, category, description, base_price, duration_hours, requirements FROM services"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " OR ")
	}
	query += " ORDER BY base_price ASC"
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find services: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ServiceRecord, 0)
	for rows.Next() {
		var s domain.ServiceRecord
		var requirements []byte
		if err := rows.Scan(&s.Name, &s.Category, &s.Description, &s.Price, &s.DurationHours, &requirements); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		if len(requirements) > 0 {
			if err := json.Unmarshal(requirements, &s.Requirements); err != nil {
				return nil, fmt.Errorf("decode service requirements: %w", err)
			}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) GetStoreInfo(ctx context.Context) (*domain.StoreRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT name, address, phone, email, opening_hours
FROM store_info
ORDER BY updated_at DESC
LIMIT 1`)

	var info domain.StoreRecord
	if err := row.Scan(&info.Name, &info.Address, &info.Phone, &info.Email, &info.Hours); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store info: %w", err)
	}
	return &info, nil
}
