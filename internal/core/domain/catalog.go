package domain

// ProductRecord is a read-only snapshot of one catalog row. Staleness is
// acceptable; the catalog backing store stays authoritative.
type ProductRecord struct {
	SKU             string  `json:"sku"`
	Name            string  `json:"name"`
	Brand           string  `json:"brand"`
	Category        string  `json:"category"`
	Price           float64 `json:"price_jod"`
	OriginalPrice   float64 `json:"original_price_jod"`
	DiscountPercent float64 `json:"discount_percentage"`
	StockQuantity   int     `json:"stock_quantity"`
	WarrantyMonths  int     `json:"warranty_months"`
	IsFeatured      bool    `json:"is_featured"`
	IsPromotion     bool    `json:"is_promotion"`
	PromotionText   string  `json:"promotion_text,omitempty"`
}

type ServiceRecord struct {
	Name          string   `json:"service_name"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	Price         float64  `json:"base_price_jod"`
	DurationHours float64  `json:"duration_hours"`
	Requirements  []string `json:"requirements,omitempty"`
}

type StoreRecord struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Hours   string `json:"opening_hours"`
}

// CatalogResult joins the three structured retrieval slices. A nil StoreInfo
// means the store-info sub-query was not triggered or yielded nothing.
type CatalogResult struct {
	Products  []ProductRecord
	Services  []ServiceRecord
	StoreInfo *StoreRecord
}

func (r CatalogResult) Empty() bool {
	return len(r.Products) == 0 && len(r.Services) == 0 && r.StoreInfo == nil
}
