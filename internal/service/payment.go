package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"lobomat-api/internal/config"
	"lobomat-api/internal/model"
	"lobomat-api/internal/repository"
)

// PaymentService creates payment orders through the external payment proxy
// and writes the pending-purchase record the fulfillment workflow consumes.
// The stored payment status is trusted downstream without re-verification.
type PaymentService struct {
	cfg     config.PaymentConfig
	store   repository.PendingPurchaseRepository
	catalog *CatalogService
	http    *http.Client
}

// NewPaymentService creates the payment service.
func NewPaymentService(cfg config.PaymentConfig, store repository.PendingPurchaseRepository, catalogService *CatalogService) *PaymentService {
	if store == nil || catalogService == nil {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaymentService{
		cfg:     cfg,
		store:   store,
		catalog: catalogService,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateOrderRequest is the input to order creation.
type CreateOrderRequest struct {
	ItemID            string      `json:"item_id"`
	Lang              string      `json:"lang,omitempty"`
	RecipientUsername string      `json:"recipient_username,omitempty"`
	Payer             model.Payer `json:"payer"`
}

// CreateOrderResult is what the storefront needs to continue the flow.
type CreateOrderResult struct {
	OrderID     string              `json:"order_id"`
	PaymentID   string              `json:"payment_id"`
	Status      model.PaymentStatus `json:"status"`
	AmountUSD   float64             `json:"amount_usd"`
	RedirectURL string              `json:"redirect_url,omitempty"`
}

// proxyOrder is the order body sent to the payment proxy.
type proxyOrder struct {
	Amount      float64     `json:"amount"`
	Currency    string      `json:"currency"`
	Country     string      `json:"country"`
	OrderID     string      `json:"order_id"`
	Description string      `json:"description"`
	SuccessURL  string      `json:"success_url"`
	BackURL     string      `json:"back_url"`
	Payer       proxyPayer  `json:"payer"`
}

type proxyPayer struct {
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Document     string       `json:"document"`
	DocumentType string       `json:"document_type"`
	Address      proxyAddress `json:"address"`
}

type proxyAddress struct {
	State   string `json:"state"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Street  string `json:"street"`
}

// proxyResponse is the payment proxy's answer to order creation.
type proxyResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
}

// CreateOrder resolves the item, creates the payment order and saves the
// pending purchase with the provider-reported status.
func (s *PaymentService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	item, err := s.catalog.FindItem(ctx, req.Lang, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if !item.Giftable() {
		return nil, ErrItemNotGiftable
	}

	orderID := fmt.Sprintf("ORDER-%d", time.Now().UnixMilli())
	amount := float64(item.Price.FinalPrice) * s.cfg.USDPerVBuck

	order := proxyOrder{
		Amount:      amount,
		Currency:    s.cfg.Currency,
		Country:     s.cfg.Country,
		OrderID:     orderID,
		Description: fmt.Sprintf("Purchase of %s", item.DisplayName),
		SuccessURL:  s.cfg.SuccessURL,
		BackURL:     s.cfg.BackURL,
		Payer: proxyPayer{
			Name:         req.Payer.Name,
			Email:        req.Payer.Email,
			Document:     req.Payer.Document,
			DocumentType: req.Payer.DocumentType,
			Address: proxyAddress{
				State:   orDefault(req.Payer.State, "NA"),
				City:    orDefault(req.Payer.City, "NA"),
				ZipCode: orDefault(req.Payer.ZipCode, "00000"),
				Street:  orDefault(req.Payer.Address, "NA"),
			},
		},
	}

	resp, err := s.postOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("invalid response from payment provider")
	}

	status := model.PaymentPending
	if resp.Status == string(model.PaymentPaid) {
		status = model.PaymentPaid
	}

	purchase := &model.PendingPurchase{
		Item:              *item,
		OfferID:           item.OfferID,
		RecipientUsername: req.RecipientUsername,
		PaymentStatus:     status,
		PaymentID:         resp.ID,
		OrderID:           orderID,
		AmountUSD:         amount,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.Save(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to save pending purchase: %w", err)
	}

	log.Printf("[PaymentService] Created order %s for %s (%.2f USD, status %s)",
		orderID, item.DisplayName, amount, status)

	return &CreateOrderResult{
		OrderID:     orderID,
		PaymentID:   resp.ID,
		Status:      status,
		AmountUSD:   amount,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// ConfirmPayment records the payment status reported by the redirect-return
// leg of the hosted payment flow.
func (s *PaymentService) ConfirmPayment(ctx context.Context, orderID string, status model.PaymentStatus) error {
	switch status {
	case model.PaymentPaid, model.PaymentPending, model.PaymentFailed:
	default:
		return fmt.Errorf("unknown payment status %q", status)
	}
	return s.store.UpdatePaymentStatus(ctx, orderID, status)
}

// PendingPurchase exposes the stored record for support inspection.
func (s *PaymentService) PendingPurchase(ctx context.Context) (*model.PendingPurchase, error) {
	return s.store.Load(ctx)
}

func (s *PaymentService) postOrder(ctx context.Context, order proxyOrder) (*proxyResponse, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ProxyURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var result proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("malformed payment response: %w", err)
	}
	return &result, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Sentinel errors for order creation.
type paymentError string

func (e paymentError) Error() string { return string(e) }

const (
	ErrItemNotFound    paymentError = "item not found in the current shop"
	ErrItemNotGiftable paymentError = "item is not available for gifting"
)
