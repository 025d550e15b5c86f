package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/infrastructure/repository/postgres"
)

const (
	sheetProducts  = "Products"
	sheetServices  = "Services"
	sheetStoreInfo = "StoreInfo"
	sheetDocuments = "Documents"
)

// header lookup is case-insensitive so hand-edited workbooks keep working.
func headerIndex(row []string) map[string]int {
	index := make(map[string]int, len(row))
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key != "" {
			index[key] = i
		}
	}
	return index
}

func cellAt(row []string, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func floatAt(row []string, index map[string]int, column string) float64 {
	v, err := strconv.ParseFloat(cellAt(row, index, column), 64)
	if err != nil {
		return 0
	}
	return v
}

func intAt(row []string, index map[string]int, column string) int {
	v, err := strconv.Atoi(cellAt(row, index, column))
	if err != nil {
		return 0
	}
	return v
}

func boolAt(row []string, index map[string]int, column string) bool {
	switch strings.ToLower(cellAt(row, index, column)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func readProducts(f *excelize.File) ([]postgres.ProductRow, error) {
	rows, err := f.GetRows(sheetProducts)
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", sheetProducts, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	index := headerIndex(rows[0])
	out := make([]postgres.ProductRow, 0, len(rows)-1)
	for n, row := range rows[1:] {
		sku := cellAt(row, index, "sku")
		name := cellAt(row, index, "name")
		if sku == "" || name == "" {
			return nil, fmt.Errorf("%s row %d: sku and name are required", sheetProducts, n+2)
		}
		out = append(out, postgres.ProductRow{
			ProductRecord: domain.ProductRecord{
				SKU:             sku,
				Name:            name,
				Brand:           cellAt(row, index, "brand"),
				Category:        cellAt(row, index, "category"),
				Price:           floatAt(row, index, "price"),
				OriginalPrice:   floatAt(row, index, "original_price"),
				DiscountPercent: floatAt(row, index, "discount_percent"),
				StockQuantity:   intAt(row, index, "stock_quantity"),
				WarrantyMonths:  intAt(row, index, "warranty_months"),
				IsFeatured:      boolAt(row, index, "is_featured"),
				IsPromotion:     boolAt(row, index, "is_promotion"),
				PromotionText:   cellAt(row, index, "promotion_text"),
			},
			NameArabic: cellAt(row, index, "name_ar"),
		})
	}
	return out, nil
}

func readServices(f *excelize.File) ([]domain.ServiceRecord, error) {
	rows, err := f.GetRows(sheetServices)
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", sheetServices, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	index := headerIndex(rows[0])
	out := make([]domain.ServiceRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		name := cellAt(row, index, "name")
		if name == "" {
			return nil, fmt.Errorf("%s row %d: name is required", sheetServices, n+2)
		}
		var requirements []string
		if raw := cellAt(row, index, "requirements"); raw != "" {
			for _, item := range strings.Split(raw, ";") {
				if item = strings.TrimSpace(item); item != "" {
					requirements = append(requirements, item)
				}
			}
		}
		out = append(out, domain.ServiceRecord{
			Name:          name,
			Category:      cellAt(row, index, "category"),
			Description:   cellAt(row, index, "description"),
			Price:         floatAt(row, index, "base_price"),
			DurationHours: floatAt(row, index, "duration_hours"),
			Requirements:  requirements,
		})
	}
	return out, nil
}

func readStoreInfo(f *excelize.File) (*domain.StoreRecord, error) {
	rows, err := f.GetRows(sheetStoreInfo)
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", sheetStoreInfo, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	index := headerIndex(rows[0])
	row := rows[1]
	name := cellAt(row, index, "name")
	if name == "" {
		return nil, fmt.Errorf("%s: name is required", sheetStoreInfo)
	}
	return &domain.StoreRecord{
		Name:    name,
		Address: cellAt(row, index, "address"),
		Phone:   cellAt(row, index, "phone"),
		Email:   cellAt(row, index, "email"),
		Hours:   cellAt(row, index, "opening_hours"),
	}, nil
}

// readDocuments loads the optional knowledge-base sheet for vector indexing.
func readDocuments(f *excelize.File) ([]domain.RetrievedChunk, error) {
	exists, err := f.GetSheetIndex(sheetDocuments)
	if err != nil || exists < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheetDocuments)
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", sheetDocuments, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	index := headerIndex(rows[0])
	out := make([]domain.RetrievedChunk, 0, len(rows)-1)
	for n, row := range rows[1:] {
		id := cellAt(row, index, "id")
		text := cellAt(row, index, "text")
		if id == "" || text == "" {
			return nil, fmt.Errorf("%s row %d: id and text are required", sheetDocuments, n+2)
		}
		language := domain.Language(cellAt(row, index, "language"))
		if !language.Supported() {
			language = domain.LanguageEnglish
		}
		out = append(out, domain.RetrievedChunk{
			ID:           id,
			Text:         text,
			Source:       cellAt(row, index, "source"),
			Language:     language,
			DocumentType: cellAt(row, index, "document_type"),
		})
	}
	return out, nil
}
