// Package classify derives category tags and display groupings for shop
// items using heuristic field inspection of the normalized catalog feed.
package classify

import (
	"strings"

	"lobomat-api/internal/model"
)

// rule pairs a category tag with its predicate. Rules are evaluated in
// order and the first match wins, so an item that qualifies as both bundle
// and skin is always a bundle. This order must not change.
type rule struct {
	tag   model.CategoryTag
	match func(*model.ShopItem) bool
}

var rules = []rule{
	{model.CategoryBundle, isBundle},
	{model.CategoryMusic, isMusic},
	{model.CategorySkin, isSkin},
	{model.CategoryBackpack, isBackpack},
	{model.CategoryEmote, isEmote},
}

// Classify assigns exactly one category tag to an item. It is total and
// deterministic: every item maps to a tag, and the same item always maps to
// the same tag.
func Classify(item *model.ShopItem) model.CategoryTag {
	for _, r := range rules {
		if r.match(item) {
			return r.tag
		}
	}
	return model.CategoryOther
}

var bundleKeywords = []string{"bundle", "pack", "set", "paquete", "conjunto"}

func isBundle(item *model.ShopItem) bool {
	if len(item.Granted) <= 1 {
		return false
	}

	name := strings.ToLower(item.DisplayName)
	for _, kw := range bundleKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}

	return strings.Contains(sectionName(item), "bundle") ||
		strings.Contains(sectionCategory(item), "bundle")
}

func isMusic(item *model.ShopItem) bool {
	return strings.EqualFold(item.DisplayType, "music") ||
		strings.EqualFold(item.MainType, "sparks_song") ||
		grantedTypeID(item) == "sparks_song" ||
		strings.Contains(sectionName(item), "jam tracks") ||
		strings.Contains(sectionName(item), "music pack")
}

func isSkin(item *model.ShopItem) bool {
	return grantedTypeID(item) == "outfit" ||
		grantedTypeName(item) == "outfit" ||
		strings.EqualFold(item.MainType, "outfit") ||
		strings.EqualFold(item.DisplayType, "outfit")
}

func isBackpack(item *model.ShopItem) bool {
	switch grantedTypeID(item) {
	case "backpack", "backbling":
		return true
	}
	switch grantedTypeName(item) {
	case "backpack", "backbling":
		return true
	}
	return strings.EqualFold(item.DisplayType, "backbling")
}

var emoteKeywords = []string{"emote", "dance", "gesture", "baile", "gesto"}

func isEmote(item *model.ShopItem) bool {
	if grantedTypeID(item) == "emote" ||
		grantedTypeName(item) == "emote" ||
		strings.EqualFold(item.DisplayType, "emote") ||
		strings.EqualFold(item.MainType, "emote") {
		return true
	}

	haystacks := []string{
		strings.ToLower(item.DisplayName),
		strings.ToLower(item.DisplayType),
		strings.ToLower(item.MainType),
		strings.ToLower(item.DisplayDescription),
	}
	for _, kw := range emoteKeywords {
		for _, h := range haystacks {
			if strings.Contains(h, kw) {
				return true
			}
		}
	}
	return false
}

func grantedTypeID(item *model.ShopItem) string {
	if len(item.Granted) == 0 {
		return ""
	}
	return strings.ToLower(item.Granted[0].Type.ID)
}

func grantedTypeName(item *model.ShopItem) string {
	if len(item.Granted) == 0 {
		return ""
	}
	return strings.ToLower(item.Granted[0].Type.Name)
}

func sectionName(item *model.ShopItem) string {
	if item.Section == nil {
		return ""
	}
	return strings.ToLower(item.Section.Name)
}

func sectionCategory(item *model.ShopItem) string {
	if item.Section == nil {
		return ""
	}
	return strings.ToLower(item.Section.Category)
}
