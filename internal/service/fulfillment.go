package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"lobomat-api/internal/classify"
	"lobomat-api/internal/model"
	"lobomat-api/internal/provider"
	"lobomat-api/internal/repository"
)

// DefaultMinFriendshipHours is how long a recipient must have been friends
// with a provider's bot before it may gift.
const DefaultMinFriendshipHours = 48

// FulfillmentService runs the gift fulfillment workflow: payment
// precondition, per-provider eligibility check, delivery attempt, and narrow
// fallback across the ordered provider list.
type FulfillmentService struct {
	store              repository.PendingPurchaseRepository
	providers          []model.DeliveryProvider
	client             *provider.Client
	attemptLog         repository.FulfillmentLogRepository // optional
	minFriendshipHours float64
}

// NewFulfillmentService creates the workflow service. attemptLog may be nil;
// attempt recording is best-effort either way.
func NewFulfillmentService(
	store repository.PendingPurchaseRepository,
	providers []model.DeliveryProvider,
	client *provider.Client,
	attemptLog repository.FulfillmentLogRepository,
	minFriendshipHours float64,
) *FulfillmentService {
	if store == nil || client == nil {
		return nil
	}
	if minFriendshipHours <= 0 {
		minFriendshipHours = DefaultMinFriendshipHours
	}
	return &FulfillmentService{
		store:              store,
		providers:          providers,
		client:             client,
		attemptLog:         attemptLog,
		minFriendshipHours: minFriendshipHours,
	}
}

// Fulfill runs one fulfillment attempt sequence for the stored pending
// purchase and returns the terminal outcome. Providers are tried strictly
// in configured order, one at a time; the only failures that advance to the
// next provider are the recoverable delivery error codes. The stored record
// is cleared on delivery and preserved on every other outcome.
//
// recipientUsername overrides the stored recipient when non-empty; the
// chosen recipient is persisted back so a support retry targets the same
// account.
func (s *FulfillmentService) Fulfill(ctx context.Context, recipientUsername string) model.FulfillmentOutcome {
	purchase, err := s.store.Load(ctx)
	if err != nil {
		return model.Rejected("store-error", fmt.Sprintf("failed to load pending purchase: %v", err))
	}
	if purchase == nil {
		return model.Rejected(model.ReasonNoPendingPurchase, "there is no pending gift to deliver")
	}

	// Payment precondition: refuse to act, with zero network calls,
	// unless the payment step marked the purchase PAID.
	if !purchase.IsPaid() {
		return model.Rejected(model.ReasonPaymentNotConfirmed,
			fmt.Sprintf("payment not confirmed: status is %s", purchase.PaymentStatus))
	}

	recipient := purchase.RecipientUsername
	if recipientUsername != "" {
		recipient = recipientUsername
	}
	if recipient == "" {
		return model.Rejected("recipient-missing", "no recipient username was provided for the gift")
	}
	if recipient != purchase.RecipientUsername {
		purchase.RecipientUsername = recipient
		if err := s.store.Save(ctx, purchase); err != nil {
			log.Printf("[FulfillmentService] Failed to persist recipient %s: %v", recipient, err)
		}
	}

	delivery := provider.DeliveryRequest{
		RecipientUsername: recipient,
		OfferID:           purchase.OfferID,
		Price:             purchase.Item.Price.FinalPrice,
		IsBundle:          classify.Classify(&purchase.Item) == model.CategoryBundle,
	}

	// Explicit loop over the fixed provider order; never parallel, never
	// reordered. lastRecoverable only feeds the exhausted message.
	var lastRecoverable string
	for _, prov := range s.providers {
		log.Printf("[FulfillmentService] order=%s trying provider %s", purchase.OrderID, prov.ID)

		eligibility, err := s.client.CheckEligibility(ctx, prov, recipient)
		if err != nil {
			s.record(purchase.OrderID, prov.ID, recipient, "eligibility", "rejected", err.Error())
			return model.Rejected("provider-error", err.Error())
		}

		if !eligibility.IsFriend {
			s.record(purchase.OrderID, prov.ID, recipient, "eligibility", "rejected", "recipient is not a friend")
			return model.Rejected(model.ReasonNotFriends,
				fmt.Sprintf("you must add provider %s as a friend before it can send gifts", prov.ID))
		}

		if !eligibility.HasMinTime {
			hoursLeft := int(math.Ceil(s.minFriendshipHours - eligibility.FriendshipHours))
			if hoursLeft < 0 {
				hoursLeft = 0
			}
			s.record(purchase.OrderID, prov.ID, recipient, "eligibility", "rejected",
				fmt.Sprintf("friendship too recent, %d hours left", hoursLeft))
			outcome := model.Rejected(model.ReasonFriendshipTooRecent,
				fmt.Sprintf("you must wait %d more hours before provider %s can send you gifts", hoursLeft, prov.ID))
			outcome.HoursRemaining = hoursLeft
			return outcome
		}

		result, err := s.client.Deliver(ctx, prov, delivery)
		if err != nil {
			s.record(purchase.OrderID, prov.ID, recipient, "delivery", "rejected", err.Error())
			return model.Rejected("provider-error", err.Error())
		}

		if result.Success {
			s.record(purchase.OrderID, prov.ID, recipient, "delivery", "ok", "")
			if err := s.store.Clear(ctx); err != nil {
				log.Printf("[FulfillmentService] Failed to clear pending purchase after delivery: %v", err)
			}
			return model.Delivered(prov.ID)
		}

		if result.Recoverable() {
			s.record(purchase.OrderID, prov.ID, recipient, "delivery", "recoverable", result.Error)
			log.Printf("[FulfillmentService] provider %s failed with %s, trying next", prov.ID, result.Error)
			lastRecoverable = result.Error
			continue
		}

		message := result.Message
		if message == "" {
			message = result.Error
		}
		s.record(purchase.OrderID, prov.ID, recipient, "delivery", "rejected", message)
		return model.Rejected(result.Error, message)
	}

	message := "no delivery provider was able to send the gift"
	if lastRecoverable != "" {
		message = fmt.Sprintf("no delivery provider was able to send the gift (last error: %s)", lastRecoverable)
	}
	return model.Exhausted(message)
}

// record appends one attempt to the audit log, best-effort.
func (s *FulfillmentService) record(orderID, providerID, recipient, stage, result, detail string) {
	if s.attemptLog == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := s.attemptLog.RecordAttempt(ctx, &model.FulfillmentAttempt{
		OrderID:    orderID,
		ProviderID: providerID,
		Recipient:  recipient,
		Stage:      stage,
		Result:     result,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[FulfillmentService] Failed to record attempt: %v", err)
	}
}
