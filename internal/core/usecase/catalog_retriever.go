package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
)

const (
	defaultProductLimit = 10
	defaultServiceLimit = 5
)

// CatalogRetriever maps an analysis onto relational lookups. Each sub-query
// is absorbed independently: a failing lookup logs and contributes nothing,
// the rest of the result stays intact.
type CatalogRetriever struct {
	store        ports.CatalogStore
	productLimit int
	serviceLimit int
}

func NewCatalogRetriever(store ports.CatalogStore) *CatalogRetriever {
	return &CatalogRetriever{
		store:        store,
		productLimit: defaultProductLimit,
		serviceLimit: defaultServiceLimit,
	}
}

// storeInfoWords trigger the store-information lookup from the raw question
// even when the analyzer extracted no store_info_topics.
var storeInfoWords = []string{
	"hour", "hours", "open", "close", "location", "address", "phone", "contact", "email",
	"ساعات", "دوام", "فتح", "مفتوح", "عنوان", "موقع", "هاتف", "رقم", "تواصل", "اتصال",
}

func (r *CatalogRetriever) Retrieve(ctx context.Context, question string, analysis domain.QueryAnalysis) domain.CatalogResult {
	var result domain.CatalogResult

	if wantsProducts(analysis) {
		products, err := r.store.FindProducts(ctx, productFilter(analysis), orderForIntent(analysis.Intent), r.productLimit)
		if err != nil {
			slog.Warn("catalog_products_skipped", "error", err, "intent", analysis.Intent)
		} else {
			result.Products = products
		}
	}

	if len(analysis.Entities.Services) > 0 || analysis.Intent == domain.IntentService || analysis.Intent == domain.IntentSupport {
		services, err := r.store.FindServices(ctx, ports.ServiceFilter{Names: analysis.Entities.Services}, r.serviceLimit)
		if err != nil {
			slog.Warn("catalog_services_skipped", "error", err, "intent", analysis.Intent)
		} else {
			result.Services = services
		}
	}

	if wantsStoreInfo(question, analysis) {
		info, err := r.store.GetStoreInfo(ctx)
		if err != nil {
			slog.Warn("catalog_store_info_skipped", "error", err)
		} else {
			result.StoreInfo = info
		}
	}

	return result
}

// wantsProducts gates the product lookup: any product-facing entity or a
// product-facing intent.
func wantsProducts(analysis domain.QueryAnalysis) bool {
	e := analysis.Entities
	if len(e.Products) > 0 || len(e.Brands) > 0 || len(e.Categories) > 0 || e.PriceRange != nil {
		return true
	}
	switch analysis.Intent {
	case domain.IntentProductInquiry, domain.IntentPriceCheck, domain.IntentAvailability,
		domain.IntentComparison, domain.IntentRecommendation:
		return true
	}
	return false
}

func productFilter(analysis domain.QueryAnalysis) ports.ProductFilter {
	return ports.ProductFilter{
		Names:      analysis.Entities.Products,
		Brands:     analysis.Entities.Brands,
		Categories: analysis.Entities.Categories,
		PriceRange: analysis.Entities.PriceRange,
	}
}

func orderForIntent(intent domain.Intent) ports.ProductOrder {
	switch intent {
	case domain.IntentPriceCheck, domain.IntentComparison:
		return ports.OrderPriceAscending
	case domain.IntentRecommendation:
		return ports.OrderPromotedFirst
	default:
		return ports.OrderFeaturedThenName
	}
}

func wantsStoreInfo(question string, analysis domain.QueryAnalysis) bool {
	if len(analysis.Entities.StoreInfo) > 0 {
		return true
	}
	if analysis.Intent == domain.IntentPolicy || analysis.Intent == domain.IntentSupport {
		return true
	}
	lowered := strings.ToLower(question)
	for _, word := range storeInfoWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
