package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"lobomat-api/internal/cache"
	"lobomat-api/internal/catalog"
	"lobomat-api/internal/classify"
	"lobomat-api/internal/model"
)

const shopCacheKeyPrefix = "lobomat:shop:"

// CatalogService serves the normalized, classified shop catalog, caching
// the upstream feed behind the cache abstraction.
type CatalogService struct {
	client      *catalog.Client
	cache       cache.Cache
	ttl         time.Duration
	defaultLang string
}

// NewCatalogService creates the catalog service. cache may be nil, in which
// case every call hits the upstream feed.
func NewCatalogService(client *catalog.Client, shopCache cache.Cache, ttl time.Duration, defaultLang string) *CatalogService {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &CatalogService{
		client:      client,
		cache:       shopCache,
		ttl:         ttl,
		defaultLang: defaultLang,
	}
}

// GetShop returns the current shop items, serving from cache when possible.
// Cache failures degrade to a direct fetch.
func (s *CatalogService) GetShop(ctx context.Context, lang string) ([]model.ShopItem, error) {
	if lang == "" {
		lang = s.defaultLang
	}
	key := shopCacheKeyPrefix + lang

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var items []model.ShopItem
			if err := json.Unmarshal(data, &items); err == nil {
				return items, nil
			}
			// Corrupt cached payload, drop it and refetch.
			_ = s.cache.Delete(ctx, key)
		}
	}

	items, err := s.client.FetchShop(ctx, lang)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				log.Printf("[CatalogService] Failed to cache shop feed: %v", err)
			}
		}
	}
	return items, nil
}

// FindItem looks an item up by catalog ID or offer ID.
func (s *CatalogService) FindItem(ctx context.Context, lang, itemID string) (*model.ShopItem, error) {
	items, err := s.GetShop(ctx, lang)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == itemID || (items[i].OfferID != "" && items[i].OfferID == itemID) {
			return &items[i], nil
		}
	}
	return nil, nil
}

// OrganizedShop is the browsing view of the catalog.
type OrganizedShop struct {
	Sections  []classify.Group `json:"sections"`
	ItemCount int              `json:"item_count"`
}

// GetOrganizedShop returns the shop filtered by category and search term,
// grouped into display sections.
func (s *CatalogService) GetOrganizedShop(ctx context.Context, lang string, category model.CategoryTag, search string) (*OrganizedShop, error) {
	items, err := s.GetShop(ctx, lang)
	if err != nil {
		return nil, err
	}

	filtered := classify.Filter(items, category, search)
	return &OrganizedShop{
		Sections:  classify.GroupSections(filtered),
		ItemCount: len(filtered),
	}, nil
}
