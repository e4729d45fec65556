package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lobomat-api/internal/catalog"
	"lobomat-api/internal/handler"
	"lobomat-api/internal/middleware"
	"lobomat-api/internal/model"
	"lobomat-api/internal/provider"
	"lobomat-api/internal/repository"
	"lobomat-api/internal/service"
)

const shopFeed = `{
  "shop": [
    {
      "mainId": "Outfit_Renegade",
      "offerId": "v2:/offer-1",
      "mainType": "outfit",
      "displayName": "Renegade Raider",
      "displayAssets": [{"url": "https://cdn.example/renegade.png"}],
      "granted": [{"id": "CID_028", "type": {"id": "outfit", "name": "Outfit"}}],
      "price": {"finalPrice": 1200, "regularPrice": 1500}
    }
  ]
}`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newTestRouter wires a router against fake upstreams: a static shop feed
// and a single always-successful delivery provider.
func newTestRouter(t *testing.T) (http.Handler, repository.PendingPurchaseRepository) {
	t.Helper()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(shopFeed))
	}))
	t.Cleanup(feed.Close)

	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/eligibility/"):
			w.Write([]byte(`{"isFriend":true,"hasMinTime":true,"friendshipHours":100}`))
		case r.URL.Path == "/deliver":
			w.Write([]byte(`{"success":true}`))
		case r.URL.Path == "/status":
			w.Write([]byte(`{"isReady":true,"isAuthenticated":true,"hasFriendToken":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(bot.Close)

	store := repository.NewMemoryPendingPurchaseRepository()
	providers := []model.DeliveryProvider{{ID: "bot1", BaseURL: bot.URL}}
	providerClient := provider.NewClient(5 * time.Second)

	catalogService := service.NewCatalogService(
		catalog.NewClient(feed.URL, "", 5*time.Second), nil, time.Minute, "en")
	fulfillmentService := service.NewFulfillmentService(
		store, providers, providerClient, nil, 48)

	mux := New(Config{
		Handler:         handler.New("test"),
		ShopHandler:     handler.NewShopHandler(catalogService),
		GiftHandler:     handler.NewGiftHandler(fulfillmentService),
		ProviderHandler: handler.NewProviderHandler(providers, providerClient),
		AdminHandler:    handler.NewAdminHandler(nil, store, "memory"),
		AdminMiddleware: middleware.NewLoginKeyMiddleware("secret-key"),
	})
	return mux, store
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not the standard envelope: %v (body: %s)", err, rec.Body.String())
	}
	return rec, env
}

func TestShopEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/shop?category=skin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}

	var shop service.OrganizedShop
	if err := json.Unmarshal(env.Data, &shop); err != nil {
		t.Fatal(err)
	}
	if shop.ItemCount != 1 {
		t.Fatalf("item count = %d, want 1", shop.ItemCount)
	}
}

func TestShopEndpointUnknownCategory(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/shop?category=vehicles", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
}

func TestFulfillEndpointDelivers(t *testing.T) {
	h, store := newTestRouter(t)

	purchase := &model.PendingPurchase{
		Item: model.ShopItem{
			ID:          "Outfit_Renegade",
			OfferID:     "v2:/offer-1",
			DisplayName: "Renegade Raider",
			Price:       model.Price{FinalPrice: 1200},
		},
		OfferID:           "v2:/offer-1",
		RecipientUsername: "player-one",
		PaymentStatus:     model.PaymentPaid,
		OrderID:           "ORDER-1",
		CreatedAt:         time.Now().UTC(),
	}
	if err := store.Save(context.Background(), purchase); err != nil {
		t.Fatal(err)
	}

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/gifts/fulfill", `{"username":"player-one"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var outcome model.FulfillmentOutcome
	if err := json.Unmarshal(env.Data, &outcome); err != nil {
		t.Fatal(err)
	}
	if outcome.Status != model.OutcomeDelivered {
		t.Fatalf("outcome = %+v, want delivered", outcome)
	}

	stored, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stored != nil {
		t.Fatal("pending purchase should be cleared after delivery")
	}
}

func TestFulfillEndpointNoPending(t *testing.T) {
	h, _ := newTestRouter(t)

	// Rejections still come back as 200 with the outcome in the body.
	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/gifts/fulfill", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var outcome model.FulfillmentOutcome
	if err := json.Unmarshal(env.Data, &outcome); err != nil {
		t.Fatal(err)
	}
	if outcome.Status != model.OutcomeRejected || outcome.Reason != model.ReasonNoPendingPurchase {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestProviderStatusEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/providers/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload struct {
		Providers []model.ProviderStatus `json:"providers"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Providers) != 1 || !payload.Providers[0].Online {
		t.Fatalf("unexpected statuses %+v", payload.Providers)
	}
}

func TestAdminRequiresLoginKey(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-Login-Key", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with wrong key = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-Login-Key", "secret-key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with key = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("health check failed: %d %s", rec.Code, rec.Body.String())
	}
}
