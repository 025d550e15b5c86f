package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
)

// CachedCatalog is a read-through decorator over a catalog store. Catalog
// snapshots tolerate staleness, so short TTLs are fine and errors on the
// cache path always fall through to the backing store.
type CachedCatalog struct {
	store ports.CatalogStore
	cache ports.Cache

	productTTL   time.Duration
	serviceTTL   time.Duration
	storeInfoTTL time.Duration
}

func NewCachedCatalog(store ports.CatalogStore, cache ports.Cache) *CachedCatalog {
	return &CachedCatalog{
		store:        store,
		cache:        cache,
		productTTL:   2 * time.Minute,
		serviceTTL:   5 * time.Minute,
		storeInfoTTL: 10 * time.Minute,
	}
}

var _ ports.CatalogStore = (*CachedCatalog)(nil)

func (c *CachedCatalog) FindProducts(ctx context.Context, filter ports.ProductFilter, order ports.ProductOrder, limit int) ([]domain.ProductRecord, error) {
	key := productKey(filter, order, limit)

	var cached []domain.ProductRecord
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	products, err := c.store.FindProducts(ctx, filter, order, limit)
	if err != nil {
		return nil, err
	}
	c.fill(key, products, c.productTTL)
	return products, nil
}

func (c *CachedCatalog) FindServices(ctx context.Context, filter ports.ServiceFilter, limit int) ([]domain.ServiceRecord, error) {
	key := fmt.Sprintf("catalog:services:%s:%d", hashTerms(filter.Names), limit)

	var cached []domain.ServiceRecord
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	services, err := c.store.FindServices(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	c.fill(key, services, c.serviceTTL)
	return services, nil
}

func (c *CachedCatalog) GetStoreInfo(ctx context.Context) (*domain.StoreRecord, error) {
	const key = "catalog:store_info"

	var cached domain.StoreRecord
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	info, err := c.store.GetStoreInfo(ctx)
	if err != nil {
		return nil, err
	}
	if info != nil {
		c.fill(key, info, c.storeInfoTTL)
	}
	return info, nil
}

// lookup reports whether key was present and decoded; any cache error is a
// miss.
func (c *CachedCatalog) lookup(ctx context.Context, key string, out any) bool {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("catalog_cache_decode_failed", "key", key, "error", err)
		return false
	}
	return true
}

// fill writes asynchronously so a slow cache never delays the response.
func (c *CachedCatalog) fill(key string, value any, ttl time.Duration) {
	go func() {
		data, err := json.Marshal(value)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.cache.Set(ctx, key, data, ttl); err != nil {
			slog.Warn("catalog_cache_fill_failed", "key", key, "error", err)
		}
	}()
}

func productKey(filter ports.ProductFilter, order ports.ProductOrder, limit int) string {
	var priceRange string
	if filter.PriceRange != nil {
		priceRange = fmt.Sprintf("%.2f-%.2f", filter.PriceRange.Min, filter.PriceRange.Max)
	}
	terms := make([]string, 0, len(filter.Names)+len(filter.Brands)+len(filter.Categories))
	for _, name := range filter.Names {
		terms = append(terms, "n="+name)
	}
	for _, brand := range filter.Brands {
		terms = append(terms, "b="+brand)
	}
	for _, category := range filter.Categories {
		terms = append(terms, "c="+category)
	}
	return fmt.Sprintf("catalog:products:%s:%s:%s:%d", hashTerms(terms), priceRange, order, limit)
}

func hashTerms(terms []string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(terms, "|"))))
	return hex.EncodeToString(sum[:8])
}
