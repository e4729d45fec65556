package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lobomat-api/internal/model"
	"lobomat-api/internal/provider"
	"lobomat-api/internal/repository"
)

// fakeProvider simulates one delivery bot with scripted answers.
type fakeProvider struct {
	srv *httptest.Server

	eligibility provider.EligibilityResult
	delivery    provider.DeliveryResult

	eligibilityCalls atomic.Int64
	deliveryCalls    atomic.Int64
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	fp := &fakeProvider{
		eligibility: provider.EligibilityResult{IsFriend: true, HasMinTime: true, FriendshipHours: 100},
		delivery:    provider.DeliveryResult{Success: true},
	}

	fp.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/eligibility/"):
			fp.eligibilityCalls.Add(1)
			_ = json.NewEncoder(w).Encode(fp.eligibility)
		case r.URL.Path == "/deliver":
			fp.deliveryCalls.Add(1)
			if !fp.delivery.Success {
				w.WriteHeader(http.StatusBadRequest)
			}
			_ = json.NewEncoder(w).Encode(fp.delivery)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(fp.srv.Close)
	return fp
}

func (fp *fakeProvider) asProvider(id string) model.DeliveryProvider {
	return model.DeliveryProvider{ID: id, BaseURL: fp.srv.URL}
}

func (fp *fakeProvider) calls() int64 {
	return fp.eligibilityCalls.Load() + fp.deliveryCalls.Load()
}

func paidPurchase() *model.PendingPurchase {
	return &model.PendingPurchase{
		Item: model.ShopItem{
			ID:          "item-1",
			OfferID:     "offer-1",
			DisplayName: "Renegade Raider",
			Granted: []model.GrantedItem{
				{Type: model.ItemType{ID: "outfit"}},
			},
			Price: model.Price{FinalPrice: 1500, RegularPrice: 2000},
		},
		OfferID:           "offer-1",
		RecipientUsername: "player-one",
		PaymentStatus:     model.PaymentPaid,
		OrderID:           "ORDER-1",
		AmountUSD:         15,
		CreatedAt:         time.Now().UTC(),
	}
}

func newService(t *testing.T, store repository.PendingPurchaseRepository, providers ...model.DeliveryProvider) *FulfillmentService {
	t.Helper()

	svc := NewFulfillmentService(store, providers, provider.NewClient(5*time.Second), nil, 48)
	if svc == nil {
		t.Fatal("NewFulfillmentService returned nil")
	}
	return svc
}

func TestFulfillNoPendingPurchase(t *testing.T) {
	fp := newFakeProvider(t)
	svc := newService(t, repository.NewMemoryPendingPurchaseRepository(), fp.asProvider("bot1"))

	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeRejected {
		t.Fatalf("status = %s, want rejected", outcome.Status)
	}
	if outcome.Reason != model.ReasonNoPendingPurchase {
		t.Fatalf("reason = %s, want %s", outcome.Reason, model.ReasonNoPendingPurchase)
	}
	if fp.calls() != 0 {
		t.Fatalf("expected no provider calls, got %d", fp.calls())
	}
}

func TestFulfillPaymentNotConfirmed(t *testing.T) {
	fp := newFakeProvider(t)
	store := repository.NewMemoryPendingPurchaseRepository()

	purchase := paidPurchase()
	purchase.PaymentStatus = model.PaymentPending
	if err := store.Save(context.Background(), purchase); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, fp.asProvider("bot1"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeRejected {
		t.Fatalf("status = %s, want rejected", outcome.Status)
	}
	if outcome.Reason != model.ReasonPaymentNotConfirmed {
		t.Fatalf("reason = %s, want %s", outcome.Reason, model.ReasonPaymentNotConfirmed)
	}
	if fp.calls() != 0 {
		t.Fatalf("expected zero provider calls for unpaid purchase, got %d", fp.calls())
	}

	// The record must survive the rejection.
	stored, err := store.Load(context.Background())
	if err != nil || stored == nil {
		t.Fatalf("pending purchase should remain after rejection: %v", err)
	}
}

func TestFulfillDeliversOnFirstProvider(t *testing.T) {
	fp := newFakeProvider(t)
	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, fp.asProvider("bot1"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeDelivered {
		t.Fatalf("status = %s, want delivered (message: %s)", outcome.Status, outcome.Message)
	}
	if outcome.ProviderID != "bot1" {
		t.Fatalf("provider = %s, want bot1", outcome.ProviderID)
	}

	stored, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stored != nil {
		t.Fatal("pending purchase should be cleared after delivery")
	}
}

func TestFulfillNotFriendsStopsRun(t *testing.T) {
	first := newFakeProvider(t)
	first.eligibility = provider.EligibilityResult{IsFriend: false}
	second := newFakeProvider(t)

	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, first.asProvider("bot1"), second.asProvider("bot2"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeRejected {
		t.Fatalf("status = %s, want rejected", outcome.Status)
	}
	if outcome.Reason != model.ReasonNotFriends {
		t.Fatalf("reason = %s, want %s", outcome.Reason, model.ReasonNotFriends)
	}
	// Eligibility failures are terminal: the second provider is never tried.
	if second.calls() != 0 {
		t.Fatalf("second provider should not be contacted, got %d calls", second.calls())
	}
	if first.deliveryCalls.Load() != 0 {
		t.Fatal("delivery should not be attempted after failed eligibility")
	}
}

func TestFulfillFriendshipTooRecent(t *testing.T) {
	fp := newFakeProvider(t)
	fp.eligibility = provider.EligibilityResult{IsFriend: true, HasMinTime: false, FriendshipHours: 40}

	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, fp.asProvider("bot1"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Reason != model.ReasonFriendshipTooRecent {
		t.Fatalf("reason = %s, want %s", outcome.Reason, model.ReasonFriendshipTooRecent)
	}
	if outcome.HoursRemaining != 8 {
		t.Fatalf("hours remaining = %d, want 8", outcome.HoursRemaining)
	}
}

func TestFulfillFriendshipHoursRoundedUp(t *testing.T) {
	fp := newFakeProvider(t)
	fp.eligibility = provider.EligibilityResult{IsFriend: true, HasMinTime: false, FriendshipHours: 47.5}

	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, fp.asProvider("bot1"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.HoursRemaining != 1 {
		t.Fatalf("hours remaining = %d, want 1", outcome.HoursRemaining)
	}
}

func TestFulfillFallsBackOnInsufficientBalance(t *testing.T) {
	first := newFakeProvider(t)
	first.delivery = provider.DeliveryResult{Success: false, Error: provider.ErrCodeInsufficientBalance}
	second := newFakeProvider(t)

	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, first.asProvider("bot1"), second.asProvider("bot2"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeDelivered {
		t.Fatalf("status = %s, want delivered (message: %s)", outcome.Status, outcome.Message)
	}
	if outcome.ProviderID != "bot2" {
		t.Fatalf("provider = %s, want bot2", outcome.ProviderID)
	}
	if first.deliveryCalls.Load() != 1 || second.deliveryCalls.Load() != 1 {
		t.Fatalf("expected one delivery attempt each, got %d and %d",
			first.deliveryCalls.Load(), second.deliveryCalls.Load())
	}

	stored, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stored != nil {
		t.Fatal("pending purchase should be cleared after fallback delivery")
	}
}

func TestFulfillNonRecoverableErrorStopsRun(t *testing.T) {
	first := newFakeProvider(t)
	first.delivery = provider.DeliveryResult{Success: false, Error: "server-error", Message: "internal failure"}
	second := newFakeProvider(t)

	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, first.asProvider("bot1"), second.asProvider("bot2"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeRejected {
		t.Fatalf("status = %s, want rejected", outcome.Status)
	}
	if outcome.Reason != "server-error" {
		t.Fatalf("reason = %s, want server-error", outcome.Reason)
	}
	if second.calls() != 0 {
		t.Fatalf("second provider should not be contacted, got %d calls", second.calls())
	}

	stored, err := store.Load(context.Background())
	if err != nil || stored == nil {
		t.Fatalf("pending purchase should remain after rejection: %v", err)
	}
}

func TestFulfillExhaustsProviderList(t *testing.T) {
	first := newFakeProvider(t)
	first.delivery = provider.DeliveryResult{Success: false, Error: provider.ErrCodeInsufficientBalance}
	second := newFakeProvider(t)
	second.delivery = provider.DeliveryResult{Success: false, Error: provider.ErrCodeNotFriend}

	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, first.asProvider("bot1"), second.asProvider("bot2"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeExhausted {
		t.Fatalf("status = %s, want exhausted", outcome.Status)
	}
	if !strings.Contains(outcome.Message, provider.ErrCodeNotFriend) {
		t.Fatalf("exhausted message should mention last error, got %q", outcome.Message)
	}

	stored, err := store.Load(context.Background())
	if err != nil || stored == nil {
		t.Fatalf("pending purchase should remain after exhaustion: %v", err)
	}
}

func TestFulfillEmptyProviderList(t *testing.T) {
	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store)
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeExhausted {
		t.Fatalf("status = %s, want exhausted", outcome.Status)
	}
}

func TestFulfillRecipientOverridePersisted(t *testing.T) {
	fp := newFakeProvider(t)
	fp.delivery = provider.DeliveryResult{Success: false, Error: "server-error", Message: "boom"}

	store := repository.NewMemoryPendingPurchaseRepository()
	if err := store.Save(context.Background(), paidPurchase()); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, store, fp.asProvider("bot1"))
	svc.Fulfill(context.Background(), "player-two")

	stored, err := store.Load(context.Background())
	if err != nil || stored == nil {
		t.Fatalf("load: %v", err)
	}
	if stored.RecipientUsername != "player-two" {
		t.Fatalf("recipient = %s, want player-two", stored.RecipientUsername)
	}
}

func TestFulfillMissingRecipient(t *testing.T) {
	store := repository.NewMemoryPendingPurchaseRepository()
	purchase := paidPurchase()
	purchase.RecipientUsername = ""
	if err := store.Save(context.Background(), purchase); err != nil {
		t.Fatal(err)
	}

	fp := newFakeProvider(t)
	svc := newService(t, store, fp.asProvider("bot1"))
	outcome := svc.Fulfill(context.Background(), "")

	if outcome.Status != model.OutcomeRejected {
		t.Fatalf("status = %s, want rejected", outcome.Status)
	}
	if fp.calls() != 0 {
		t.Fatalf("expected no provider calls, got %d", fp.calls())
	}
}
