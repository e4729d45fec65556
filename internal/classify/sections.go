package classify

import (
	"strings"

	"lobomat-api/internal/model"
)

// Group names for the two synthetic display groups.
const (
	BundlesGroupName   = "Bundles"
	JamTracksGroupName = "Jam Tracks"
	DefaultGroupName   = "Individual Items"
)

// Group is one display section of the shop page.
type Group struct {
	Name     string           `json:"name"`
	Category string           `json:"category,omitempty"`
	Items    []model.ShopItem `json:"items"`
}

// GroupSections arranges items for browsing: bundles are collapsed into one
// synthetic Bundles group first, regular items follow grouped by their
// provider section in first-seen order, and music items close the list as a
// synthetic Jam Tracks group.
func GroupSections(items []model.ShopItem) []Group {
	var bundles, tracks []model.ShopItem
	var regularOrder []string
	regular := make(map[string]*Group)

	for _, item := range items {
		switch Classify(&item) {
		case model.CategoryBundle:
			bundles = append(bundles, item)
		case model.CategoryMusic:
			tracks = append(tracks, item)
		default:
			name := DefaultGroupName
			category := ""
			if item.Section != nil && item.Section.Name != "" {
				name = item.Section.Name
				category = item.Section.Category
			}
			g, ok := regular[name]
			if !ok {
				g = &Group{Name: name, Category: category}
				regular[name] = g
				regularOrder = append(regularOrder, name)
			}
			g.Items = append(g.Items, item)
		}
	}

	groups := make([]Group, 0, len(regularOrder)+2)
	if len(bundles) > 0 {
		groups = append(groups, Group{Name: BundlesGroupName, Category: "Bundles", Items: bundles})
	}
	for _, name := range regularOrder {
		groups = append(groups, *regular[name])
	}
	if len(tracks) > 0 {
		groups = append(groups, Group{Name: JamTracksGroupName, Category: "Music", Items: tracks})
	}
	return groups
}

// Filter narrows items by category tag and a case-insensitive substring
// search over the display name. An empty category or search matches all.
func Filter(items []model.ShopItem, category model.CategoryTag, search string) []model.ShopItem {
	search = strings.ToLower(search)

	var out []model.ShopItem
	for _, item := range items {
		if category != "" && Classify(&item) != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.DisplayName), search) {
			continue
		}
		out = append(out, item)
	}
	return out
}
