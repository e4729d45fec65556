package handler

import (
	"encoding/json"
	"net/http"

	"lobomat-api/internal/model"
	"lobomat-api/internal/provider"
	"lobomat-api/pkg/apierror"
	"lobomat-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ProviderHandler exposes delivery provider health and friend requests.
type ProviderHandler struct {
	providers []model.DeliveryProvider
	client    *provider.Client
}

// NewProviderHandler creates a new provider handler.
func NewProviderHandler(providers []model.DeliveryProvider, client *provider.Client) *ProviderHandler {
	return &ProviderHandler{providers: providers, client: client}
}

// GetStatus handles GET /api/v1/providers/status
func (h *ProviderHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	statuses := make([]model.ProviderStatus, 0, len(h.providers))
	for _, p := range h.providers {
		entry := model.ProviderStatus{ID: p.ID}

		status, err := h.client.Status(r.Context(), p)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Online = status.IsReady
			entry.Status = status
		}
		statuses = append(statuses, entry)
	}

	response.OK(w, map[string]interface{}{
		"providers": statuses,
	})
}

// FriendRequestBody is the body of a friend request.
type FriendRequestBody struct {
	Username string `json:"username"`
}

// SendFriendRequest handles POST /api/v1/providers/{provider_id}/friend-request
func (h *ProviderHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	var target *model.DeliveryProvider
	for i := range h.providers {
		if h.providers[i].ID == providerID {
			target = &h.providers[i]
			break
		}
	}
	if target == nil {
		response.Error(w, apierror.NotFound("unknown provider"))
		return
	}

	var req FriendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Username == "" {
		response.Error(w, apierror.BadRequest("username is required"))
		return
	}

	if err := h.client.SendFriendRequest(r.Context(), *target, req.Username); err != nil {
		response.Error(w, apierror.BadGateway(err.Error()))
		return
	}

	response.OK(w, map[string]string{
		"provider_id": providerID,
		"username":    req.Username,
		"status":      "sent",
	})
}
