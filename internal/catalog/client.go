// Package catalog fetches the third-party cosmetics shop feed and
// normalizes it into the flat item list the rest of the API works with.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"lobomat-api/internal/model"
)

// Client is a read-only HTTP client for the upstream shop feed.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a catalog client. timeout bounds every feed request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Raw feed shapes. Every field is optional; missing fields are treated as
// unset, never as an error.
type feedResponse struct {
	Shop []feedEntry `json:"shop"`
}

type feedEntry struct {
	MainID             string `json:"mainId"`
	OfferID            string `json:"offerId"`
	MainType           string `json:"mainType"`
	DisplayType        string `json:"displayType"`
	DisplayName        string `json:"displayName"`
	DisplayDescription string `json:"displayDescription"`
	DisplayAssets      []struct {
		URL string `json:"url"`
	} `json:"displayAssets"`
	Granted []struct {
		ID   string `json:"id"`
		Type *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"type"`
		Images *struct {
			Icon string `json:"icon"`
		} `json:"images"`
	} `json:"granted"`
	Price *struct {
		FinalPrice   *int `json:"finalPrice"`
		RegularPrice int  `json:"regularPrice"`
	} `json:"price"`
	Rarity *struct {
		Name string `json:"name"`
	} `json:"rarity"`
	Section *struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	} `json:"section"`
}

// FetchShop retrieves and normalizes the current shop feed. Entries with no
// usable image or no defined final price are dropped as malformed.
func (c *Client) FetchShop(ctx context.Context, lang string) ([]model.ShopItem, error) {
	endpoint := fmt.Sprintf("%s/v2/shop?lang=%s", c.baseURL, url.QueryEscape(lang))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build shop request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shop feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shop feed returned status %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode shop feed: %w", err)
	}

	items := make([]model.ShopItem, 0, len(feed.Shop))
	for _, entry := range feed.Shop {
		if item, ok := normalize(entry); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// normalize maps one raw feed entry to a ShopItem. The second return value
// is false when the entry is malformed and must be excluded from display.
func normalize(entry feedEntry) (model.ShopItem, bool) {
	item := model.ShopItem{
		ID:                 entry.MainID,
		OfferID:            entry.OfferID,
		MainType:           entry.MainType,
		DisplayType:        entry.DisplayType,
		DisplayName:        entry.DisplayName,
		DisplayDescription: entry.DisplayDescription,
	}

	for _, asset := range entry.DisplayAssets {
		if asset.URL != "" {
			item.DisplayAssets = append(item.DisplayAssets, asset.URL)
		}
	}

	for _, g := range entry.Granted {
		granted := model.GrantedItem{ID: g.ID}
		if g.Type != nil {
			granted.Type = model.ItemType{ID: g.Type.ID, Name: g.Type.Name}
		}
		if g.Images != nil {
			granted.ImageIcon = g.Images.Icon
		}
		item.Granted = append(item.Granted, granted)
	}

	if entry.Price != nil && entry.Price.FinalPrice != nil {
		item.Price = model.Price{
			FinalPrice:   *entry.Price.FinalPrice,
			RegularPrice: entry.Price.RegularPrice,
		}
	} else {
		return model.ShopItem{}, false
	}

	if item.PrimaryImage() == "" {
		return model.ShopItem{}, false
	}

	if entry.Rarity != nil {
		item.Rarity = entry.Rarity.Name
	}
	if entry.Section != nil {
		item.Section = &model.Section{
			Name:     entry.Section.Name,
			Category: entry.Section.Category,
		}
	}

	return item, true
}
