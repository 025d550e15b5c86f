package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return data, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	f.sets++
	return nil
}

func (f *fakeCache) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

type countingCatalog struct {
	products  []domain.ProductRecord
	services  []domain.ServiceRecord
	storeInfo *domain.StoreRecord

	productCalls int
	serviceCalls int
	storeCalls   int
}

func (c *countingCatalog) FindProducts(_ context.Context, _ ports.ProductFilter, _ ports.ProductOrder, _ int) ([]domain.ProductRecord, error) {
	c.productCalls++
	return c.products, nil
}

func (c *countingCatalog) FindServices(_ context.Context, _ ports.ServiceFilter, _ int) ([]domain.ServiceRecord, error) {
	c.serviceCalls++
	return c.services, nil
}

func (c *countingCatalog) GetStoreInfo(_ context.Context) (*domain.StoreRecord, error) {
	c.storeCalls++
	return c.storeInfo, nil
}

func waitForSet(t *testing.T, cache *fakeCache, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cache.setCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("cache never reached %d sets", want)
}

func TestCachedCatalogServesProductsFromCacheAfterMiss(t *testing.T) {
	cache := newFakeCache()
	backing := &countingCatalog{products: []domain.ProductRecord{{SKU: "p-1", Name: "iPhone 15"}}}
	cached := NewCachedCatalog(backing, cache)

	filter := ports.ProductFilter{Names: []string{"iPhone 15"}}

	first, err := cached.FindProducts(context.Background(), filter, ports.OrderFeaturedThenName, 10)
	if err != nil {
		t.Fatalf("FindProducts() error = %v", err)
	}
	if len(first) != 1 || first[0].SKU != "p-1" {
		t.Fatalf("first read = %+v", first)
	}
	if backing.productCalls != 1 {
		t.Fatalf("backing calls after miss = %d, want 1", backing.productCalls)
	}

	waitForSet(t, cache, 1)

	second, err := cached.FindProducts(context.Background(), filter, ports.OrderFeaturedThenName, 10)
	if err != nil {
		t.Fatalf("FindProducts() second read error = %v", err)
	}
	if len(second) != 1 || second[0].Name != "iPhone 15" {
		t.Fatalf("second read = %+v", second)
	}
	if backing.productCalls != 1 {
		t.Fatalf("backing calls after hit = %d, want 1", backing.productCalls)
	}
}

func TestCachedCatalogKeysVaryWithFilterAndOrder(t *testing.T) {
	cache := newFakeCache()
	backing := &countingCatalog{products: []domain.ProductRecord{{SKU: "p-1"}}}
	cached := NewCachedCatalog(backing, cache)

	base := ports.ProductFilter{Names: []string{"laptop"}}
	priced := ports.ProductFilter{Names: []string{"laptop"}, PriceRange: &domain.PriceRange{Min: 100, Max: 900}}

	if _, err := cached.FindProducts(context.Background(), base, ports.OrderFeaturedThenName, 10); err != nil {
		t.Fatalf("FindProducts() error = %v", err)
	}
	if _, err := cached.FindProducts(context.Background(), priced, ports.OrderFeaturedThenName, 10); err != nil {
		t.Fatalf("FindProducts() error = %v", err)
	}
	if _, err := cached.FindProducts(context.Background(), base, ports.OrderPriceAscending, 10); err != nil {
		t.Fatalf("FindProducts() error = %v", err)
	}

	if backing.productCalls != 3 {
		t.Fatalf("backing calls = %d, want 3 distinct keys", backing.productCalls)
	}
	waitForSet(t, cache, 3)
	if len(cache.entries) != 3 {
		t.Fatalf("cache entries = %d, want 3", len(cache.entries))
	}
}

func TestCachedCatalogKeysVaryWithFilterField(t *testing.T) {
	byName := ports.ProductFilter{Names: []string{"apple"}}
	byBrand := ports.ProductFilter{Brands: []string{"apple"}}
	byCategory := ports.ProductFilter{Categories: []string{"apple"}}

	keys := map[string]struct{}{}
	for _, filter := range []ports.ProductFilter{byName, byBrand, byCategory} {
		keys[productKey(filter, ports.OrderFeaturedThenName, 10)] = struct{}{}
	}
	if len(keys) != 3 {
		t.Fatalf("the same term on different filter fields must not share a key, got %v", keys)
	}

	cache := newFakeCache()
	backing := &countingCatalog{products: []domain.ProductRecord{{SKU: "p-1"}}}
	cached := NewCachedCatalog(backing, cache)

	if _, err := cached.FindProducts(context.Background(), byName, ports.OrderFeaturedThenName, 10); err != nil {
		t.Fatalf("FindProducts() error = %v", err)
	}
	waitForSet(t, cache, 1)
	if _, err := cached.FindProducts(context.Background(), byBrand, ports.OrderFeaturedThenName, 10); err != nil {
		t.Fatalf("FindProducts() error = %v", err)
	}
	if backing.productCalls != 2 {
		t.Fatalf("brand filter must miss the name filter's entry, backing calls = %d", backing.productCalls)
	}
}

func TestCachedCatalogFallsThroughOnCacheError(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = context.DeadlineExceeded
	backing := &countingCatalog{services: []domain.ServiceRecord{{Name: "Screen repair"}}}
	cached := NewCachedCatalog(backing, cache)

	services, err := cached.FindServices(context.Background(), ports.ServiceFilter{Names: []string{"repair"}}, 5)
	if err != nil {
		t.Fatalf("FindServices() error = %v", err)
	}
	if len(services) != 1 || services[0].Name != "Screen repair" {
		t.Fatalf("services = %+v", services)
	}
	if backing.serviceCalls != 1 {
		t.Fatalf("backing calls = %d, want 1", backing.serviceCalls)
	}
}

func TestCachedCatalogIgnoresCorruptEntries(t *testing.T) {
	cache := newFakeCache()
	backing := &countingCatalog{storeInfo: &domain.StoreRecord{Name: "TechMart"}}
	cached := NewCachedCatalog(backing, cache)

	cache.entries["catalog:store_info"] = []byte("{not json")

	info, err := cached.GetStoreInfo(context.Background())
	if err != nil {
		t.Fatalf("GetStoreInfo() error = %v", err)
	}
	if info == nil || info.Name != "TechMart" {
		t.Fatalf("info = %+v", info)
	}
	if backing.storeCalls != 1 {
		t.Fatalf("backing calls = %d, want 1", backing.storeCalls)
	}
}

func TestCachedCatalogDoesNotCacheMissingStoreInfo(t *testing.T) {
	cache := newFakeCache()
	backing := &countingCatalog{}
	cached := NewCachedCatalog(backing, cache)

	info, err := cached.GetStoreInfo(context.Background())
	if err != nil {
		t.Fatalf("GetStoreInfo() error = %v", err)
	}
	if info != nil {
		t.Fatalf("info = %+v, want nil", info)
	}

	time.Sleep(20 * time.Millisecond)
	if cache.setCount() != 0 {
		t.Fatalf("cache sets = %d, want 0", cache.setCount())
	}
}

func TestCachedCatalogStoresDecodableSnapshots(t *testing.T) {
	cache := newFakeCache()
	backing := &countingCatalog{products: []domain.ProductRecord{{SKU: "p-9", Price: 499.99, StockQuantity: 4}}}
	cached := NewCachedCatalog(backing, cache)

	filter := ports.ProductFilter{Brands: []string{"Samsung"}}
	if _, err := cached.FindProducts(context.Background(), filter, ports.OrderPromotedFirst, 10); err != nil {
		t.Fatalf("FindProducts() error = %v", err)
	}
	waitForSet(t, cache, 1)

	for _, data := range cache.entries {
		var decoded []domain.ProductRecord
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("stored snapshot not decodable: %v", err)
		}
		if len(decoded) != 1 || decoded[0].Price != 499.99 {
			t.Fatalf("decoded = %+v", decoded)
		}
	}
}
