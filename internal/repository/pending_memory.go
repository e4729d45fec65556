package repository

import (
	"context"
	"fmt"
	"sync"

	"lobomat-api/internal/model"
)

// MemoryPendingPurchaseRepository is an in-memory single-slot store for
// tests and no-persistence deployments.
type MemoryPendingPurchaseRepository struct {
	mu     sync.Mutex
	record *model.PendingPurchase
}

// NewMemoryPendingPurchaseRepository creates an empty in-memory store.
func NewMemoryPendingPurchaseRepository() *MemoryPendingPurchaseRepository {
	return &MemoryPendingPurchaseRepository{}
}

// Save overwrites the pending purchase record.
func (r *MemoryPendingPurchaseRepository) Save(ctx context.Context, purchase *model.PendingPurchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *purchase
	r.record = &copied
	return nil
}

// Load returns the current record, or nil when absent.
func (r *MemoryPendingPurchaseRepository) Load(ctx context.Context) (*model.PendingPurchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.record == nil {
		return nil, nil
	}
	copied := *r.record
	return &copied, nil
}

// UpdatePaymentStatus sets the payment status, guarded by order ID.
func (r *MemoryPendingPurchaseRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.record == nil || r.record.OrderID != orderID {
		return fmt.Errorf("no pending purchase with order id %s", orderID)
	}
	r.record.PaymentStatus = status
	return nil
}

// Clear removes the record.
func (r *MemoryPendingPurchaseRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record = nil
	return nil
}

// Close is a no-op.
func (r *MemoryPendingPurchaseRepository) Close() error {
	return nil
}

// Ensure MemoryPendingPurchaseRepository implements PendingPurchaseRepository
var _ PendingPurchaseRepository = (*MemoryPendingPurchaseRepository)(nil)
