package handler

import (
	"net/http"

	"lobomat-api/internal/model"
	"lobomat-api/internal/service"
	"lobomat-api/pkg/apierror"
	"lobomat-api/pkg/response"
)

// ShopHandler serves the classified, grouped shop catalog.
type ShopHandler struct {
	catalogService *service.CatalogService
}

// NewShopHandler creates a new shop handler.
func NewShopHandler(catalogService *service.CatalogService) *ShopHandler {
	return &ShopHandler{catalogService: catalogService}
}

// validCategories are the category filters the storefront may request.
var validCategories = map[string]model.CategoryTag{
	"":                   "",
	"all":                "",
	"bundle":             model.CategoryBundle,
	"music":              model.CategoryMusic,
	"skin":               model.CategorySkin,
	"backpack-accessory": model.CategoryBackpack,
	"emote":              model.CategoryEmote,
	"other":              model.CategoryOther,
}

// GetShop handles GET /api/v1/shop?lang=&category=&search=
func (h *ShopHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	category, ok := validCategories[query.Get("category")]
	if !ok {
		response.Error(w, apierror.BadRequest("unknown category filter"))
		return
	}

	shop, err := h.catalogService.GetOrganizedShop(r.Context(), query.Get("lang"), category, query.Get("search"))
	if err != nil {
		response.Error(w, apierror.BadGateway(err.Error()))
		return
	}

	response.OK(w, shop)
}
