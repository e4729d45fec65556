package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"lobomat-api/internal/model"
	"lobomat-api/internal/service"
	"lobomat-api/pkg/apierror"
	"lobomat-api/pkg/response"
)

// PaymentHandler handles payment order creation and the redirect-return
// callback, plus support inspection of the pending purchase.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateOrder handles POST /api/v1/payment/orders
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.ItemID == "" {
		response.Error(w, apierror.BadRequest("item_id is required"))
		return
	}
	if req.Payer.Name == "" || req.Payer.Email == "" || req.Payer.Document == "" {
		response.Error(w, apierror.BadRequest("payer name, email and document are required"))
		return
	}

	result, err := h.paymentService.CreateOrder(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			response.Error(w, apierror.NotFound(err.Error()))
		case errors.Is(err, service.ErrItemNotGiftable):
			response.Error(w, apierror.Conflict(err.Error()))
		default:
			response.Error(w, apierror.BadGateway(err.Error()))
		}
		return
	}

	response.Created(w, result)
}

// CallbackRequest is the redirect-return payload from the hosted payment
// flow.
type CallbackRequest struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Callback handles POST /api/v1/payment/callback
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.OrderID == "" || req.Status == "" {
		response.Error(w, apierror.BadRequest("order_id and status are required"))
		return
	}

	err := h.paymentService.ConfirmPayment(r.Context(), req.OrderID, model.PaymentStatus(req.Status))
	if err != nil {
		response.Error(w, apierror.Conflict(err.Error()))
		return
	}

	response.OK(w, map[string]string{
		"order_id": req.OrderID,
		"status":   req.Status,
	})
}

// GetPending handles GET /api/v1/purchase/pending
func (h *PaymentHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.paymentService.PendingPurchase(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if purchase == nil {
		response.Error(w, apierror.NotFound("no pending purchase"))
		return
	}

	response.OK(w, purchase)
}
