package model

// CategoryTag is the derived category of a shop item. Every item maps to
// exactly one tag; classification precedence lives in internal/classify.
type CategoryTag string

const (
	CategoryBundle   CategoryTag = "bundle"
	CategoryMusic    CategoryTag = "music"
	CategorySkin     CategoryTag = "skin"
	CategoryBackpack CategoryTag = "backpack-accessory"
	CategoryEmote    CategoryTag = "emote"
	CategoryOther    CategoryTag = "other"
)

// ItemType identifies the cosmetic type of a granted sub-item.
type ItemType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GrantedItem is one sub-item actually delivered when an offer is purchased.
// More than one granted item implies a bundle candidate.
type GrantedItem struct {
	ID        string   `json:"id"`
	Type      ItemType `json:"type"`
	ImageIcon string   `json:"image_icon,omitempty"`
}

// Price holds the offer cost in V-Bucks. FinalPrice <= RegularPrice.
type Price struct {
	FinalPrice   int `json:"final_price"`
	RegularPrice int `json:"regular_price"`
}

// Section is the provider-assigned shop grouping. It is a hint for display
// grouping, not authoritative for classification.
type Section struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// ShopItem is one purchasable catalog entry, normalized from the upstream
// shop feed. Entries with no usable image or no defined final price are
// dropped during normalization and never reach this type.
type ShopItem struct {
	ID                 string        `json:"id"`
	OfferID            string        `json:"offer_id,omitempty"`
	MainType           string        `json:"main_type,omitempty"`
	DisplayType        string        `json:"display_type,omitempty"`
	DisplayName        string        `json:"display_name"`
	DisplayDescription string        `json:"display_description,omitempty"`
	DisplayAssets      []string      `json:"display_assets,omitempty"`
	Granted            []GrantedItem `json:"granted,omitempty"`
	Price              Price         `json:"price"`
	Rarity             string        `json:"rarity,omitempty"`
	Section            *Section      `json:"section,omitempty"`
}

// PrimaryImage returns the first display asset, falling back to the first
// granted item's icon.
func (i *ShopItem) PrimaryImage() string {
	if len(i.DisplayAssets) > 0 && i.DisplayAssets[0] != "" {
		return i.DisplayAssets[0]
	}
	if len(i.Granted) > 0 {
		return i.Granted[0].ImageIcon
	}
	return ""
}

// Giftable reports whether the item carries a purchase handle.
func (i *ShopItem) Giftable() bool {
	return i.OfferID != ""
}
