package model

import (
	"fmt"
	"time"
)

// DeliveryProvider is one configured gifting bot. The configured list is
// fixed and ordered; list order is priority order.
type DeliveryProvider struct {
	ID      string `json:"id"`
	BaseURL string `json:"base_url"`
}

// OutcomeStatus is the terminal state of a fulfillment run.
type OutcomeStatus string

const (
	OutcomeDelivered OutcomeStatus = "delivered"
	OutcomeRejected  OutcomeStatus = "rejected"
	OutcomeExhausted OutcomeStatus = "exhausted"
)

// Rejection reasons surfaced to the user.
const (
	ReasonPaymentNotConfirmed = "payment-not-confirmed"
	ReasonNoPendingPurchase   = "no-pending-purchase"
	ReasonNotFriends          = "recipient-not-friends-with-provider"
	ReasonFriendshipTooRecent = "friendship-too-recent"
)

// FulfillmentOutcome is the terminal result of one fulfillment run. Every
// outcome is user-visible; Message is always set to something human-readable.
type FulfillmentOutcome struct {
	Status         OutcomeStatus `json:"status"`
	ProviderID     string        `json:"provider_id,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	Message        string        `json:"message"`
	HoursRemaining int           `json:"hours_remaining,omitempty"`
}

// Delivered builds the success outcome for the given provider.
func Delivered(providerID string) FulfillmentOutcome {
	return FulfillmentOutcome{
		Status:     OutcomeDelivered,
		ProviderID: providerID,
		Message:    fmt.Sprintf("gift delivered by provider %s", providerID),
	}
}

// Rejected builds a terminal non-recoverable outcome.
func Rejected(reason, message string) FulfillmentOutcome {
	if message == "" {
		message = reason
	}
	return FulfillmentOutcome{
		Status:  OutcomeRejected,
		Reason:  reason,
		Message: message,
	}
}

// Exhausted builds the outcome for a fallback chain that ran out of
// providers without a delivery.
func Exhausted(message string) FulfillmentOutcome {
	if message == "" {
		message = "no delivery provider was able to send the gift"
	}
	return FulfillmentOutcome{
		Status:  OutcomeExhausted,
		Message: message,
	}
}

// FulfillmentAttempt is one recorded step of a fulfillment run, kept for
// support diagnosis.
type FulfillmentAttempt struct {
	ID         int64     `json:"id"`
	OrderID    string    `json:"order_id"`
	ProviderID string    `json:"provider_id"`
	Recipient  string    `json:"recipient"`
	Stage      string    `json:"stage"`  // eligibility or delivery
	Result     string    `json:"result"` // ok, recoverable, rejected
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// BotStatus mirrors the status payload exposed by a delivery provider.
type BotStatus struct {
	IsReady         bool   `json:"isReady"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	DisplayName     string `json:"displayName,omitempty"`
	LastError       string `json:"lastError,omitempty"`
	HasFriendToken  bool   `json:"hasFriendToken"`
}

// ProviderStatus pairs a provider with its last observed bot status.
type ProviderStatus struct {
	ID     string     `json:"id"`
	Online bool       `json:"online"`
	Status *BotStatus `json:"status,omitempty"`
	Error  string     `json:"error,omitempty"`
}
