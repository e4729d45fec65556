package handler

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"lobomat-api/internal/repository"
	"lobomat-api/pkg/apierror"
	"lobomat-api/pkg/response"
)

// AdminHandler serves support endpoints: fulfillment attempt history and
// server stats. Routes using it sit behind the login-key middleware.
type AdminHandler struct {
	attemptLog repository.FulfillmentLogRepository
	store      repository.PendingPurchaseRepository
	dbType     string
	startTime  time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	attemptLog repository.FulfillmentLogRepository,
	store repository.PendingPurchaseRepository,
	dbType string,
) *AdminHandler {
	return &AdminHandler{
		attemptLog: attemptLog,
		store:      store,
		dbType:     dbType,
		startTime:  time.Now(),
	}
}

// GetAttempts handles GET /api/v1/admin/attempts?limit=
func (h *AdminHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	if h.attemptLog == nil {
		response.Error(w, apierror.ServiceUnavailable("attempt log not configured"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	attempts, err := h.attemptLog.ListRecent(r.Context(), limit)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to fetch attempts"))
		return
	}

	response.OK(w, map[string]interface{}{
		"attempts": attempts,
		"count":    len(attempts),
	})
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["purchase_db_type"] = h.dbType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":   float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":     float64(memStats.Sys) / 1024 / 1024,
		"num_gc":     memStats.NumGC,
		"goroutines": runtime.NumGoroutine(),
	}

	if h.store != nil {
		if purchase, err := h.store.Load(r.Context()); err == nil && purchase != nil {
			stats["pending_purchase"] = map[string]interface{}{
				"order_id":       purchase.OrderID,
				"payment_status": purchase.PaymentStatus,
				"created_at":     purchase.CreatedAt,
			}
		} else {
			stats["pending_purchase"] = nil
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}

	response.OK(w, stats)
}
