package handler

import (
	"encoding/json"
	"net/http"

	"lobomat-api/internal/service"
	"lobomat-api/pkg/apierror"
	"lobomat-api/pkg/response"
)

// GiftHandler exposes the gift fulfillment workflow.
type GiftHandler struct {
	fulfillmentService *service.FulfillmentService
}

// NewGiftHandler creates a new gift handler.
func NewGiftHandler(fulfillmentService *service.FulfillmentService) *GiftHandler {
	return &GiftHandler{fulfillmentService: fulfillmentService}
}

// FulfillRequest is the body of a fulfillment run.
type FulfillRequest struct {
	Username string `json:"username"`
}

// Fulfill handles POST /api/v1/gifts/fulfill. The workflow always runs to a
// terminal outcome; that outcome is the response body, delivered or not, so
// the storefront can show the user the exact reason.
func (h *GiftHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	var req FulfillRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierror.BadRequest("invalid request body"))
			return
		}
		defer r.Body.Close()
	}

	outcome := h.fulfillmentService.Fulfill(r.Context(), req.Username)
	response.OK(w, outcome)
}
