package model

import "time"

// PaymentStatus is the payment state reported by the payment provider.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentPending PaymentStatus = "PENDING"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payer holds buyer billing details forwarded to the payment provider.
type Payer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	DocumentType string `json:"document_type"`
	Document     string `json:"document"`
	State        string `json:"state,omitempty"`
	City         string `json:"city,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	Address      string `json:"address,omitempty"`
}

// PendingPurchase is the single-slot record of the purchase currently being
// fulfilled. It is created after the payment step, read once per fulfillment
// run, and cleared only on confirmed delivery. On any other terminal outcome
// it stays in place for support diagnosis and manual retry.
type PendingPurchase struct {
	Item              ShopItem      `json:"item"`
	OfferID           string        `json:"offer_id"`
	RecipientUsername string        `json:"recipient_username"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	PaymentID         string        `json:"payment_id,omitempty"`
	OrderID           string        `json:"order_id"`
	AmountUSD         float64       `json:"amount_usd"`
	CreatedAt         time.Time     `json:"created_at"`
}

// IsPaid reports whether the workflow may act on this record.
func (p *PendingPurchase) IsPaid() bool {
	return p.PaymentStatus == PaymentPaid
}
