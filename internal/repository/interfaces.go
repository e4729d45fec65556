package repository

import (
	"context"
	"time"

	"lobomat-api/internal/model"
)

// PendingPurchaseRepository is the single-slot store for the purchase
// currently being fulfilled. Save overwrites any existing record; last write
// wins. The API drives one purchase at a time, so no concurrent-writer
// protection is attempted.
type PendingPurchaseRepository interface {
	// Save overwrites the pending purchase record.
	Save(ctx context.Context, purchase *model.PendingPurchase) error

	// Load returns the current record, or nil when absent.
	Load(ctx context.Context) (*model.PendingPurchase, error)

	// UpdatePaymentStatus sets the payment status of the stored record,
	// guarded by order ID.
	UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error

	// Clear removes the record. Called only on confirmed delivery.
	Clear(ctx context.Context) error

	// Close closes the repository connection.
	Close() error
}

// FulfillmentLogRepository records fulfillment attempts for support
// diagnosis.
type FulfillmentLogRepository interface {
	// RecordAttempt appends one attempt record.
	RecordAttempt(ctx context.Context, attempt *model.FulfillmentAttempt) error

	// ListRecent returns the most recent attempts, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.FulfillmentAttempt, error)

	// DeleteOlderThan prunes attempts older than the threshold and returns
	// the number removed.
	DeleteOlderThan(ctx context.Context, threshold time.Duration) (int64, error)

	// Close closes the repository connection.
	Close() error
}
