package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lobomat-api/internal/model"
)

// MySQLPendingPurchaseRepository implements PendingPurchaseRepository using
// MySQL, for deployments that already run one. Same single-slot semantics as
// the SQLite store.
type MySQLPendingPurchaseRepository struct {
	db *sql.DB
}

// NewMySQLPendingPurchaseRepository creates the MySQL store on an existing
// connection. The caller owns the connection lifecycle.
func NewMySQLPendingPurchaseRepository(db *sql.DB) (*MySQLPendingPurchaseRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS pending_purchase (
		id INT PRIMARY KEY,
		order_id VARCHAR(64) NOT NULL,
		payment_id VARCHAR(128),
		offer_id VARCHAR(128) NOT NULL,
		recipient_username VARCHAR(128),
		payment_status VARCHAR(16) NOT NULL,
		amount_usd DOUBLE NOT NULL,
		item_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create pending_purchase table: %w", err)
	}

	log.Printf("[MySQLPendingPurchaseRepository] Initialized")
	return &MySQLPendingPurchaseRepository{db: db}, nil
}

// Save overwrites the pending purchase record.
func (r *MySQLPendingPurchaseRepository) Save(ctx context.Context, purchase *model.PendingPurchase) error {
	itemJSON, err := json.Marshal(purchase.Item)
	if err != nil {
		return fmt.Errorf("failed to serialize item: %w", err)
	}

	query := `
		INSERT INTO pending_purchase (id, order_id, payment_id, offer_id, recipient_username, payment_status, amount_usd, item_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			order_id = VALUES(order_id),
			payment_id = VALUES(payment_id),
			offer_id = VALUES(offer_id),
			recipient_username = VALUES(recipient_username),
			payment_status = VALUES(payment_status),
			amount_usd = VALUES(amount_usd),
			item_json = VALUES(item_json),
			created_at = VALUES(created_at)`

	_, err = r.db.ExecContext(ctx, query,
		slotID, purchase.OrderID, purchase.PaymentID, purchase.OfferID,
		purchase.RecipientUsername, string(purchase.PaymentStatus),
		purchase.AmountUSD, string(itemJSON), purchase.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save pending purchase: %w", err)
	}
	return nil
}

// Load returns the current record, or nil when absent.
func (r *MySQLPendingPurchaseRepository) Load(ctx context.Context) (*model.PendingPurchase, error) {
	query := `SELECT order_id, payment_id, offer_id, recipient_username, payment_status, amount_usd, item_json, created_at
		FROM pending_purchase WHERE id = ?`

	var p model.PendingPurchase
	var status, itemJSON string
	var createdAt time.Time

	err := r.db.QueryRowContext(ctx, query, slotID).Scan(
		&p.OrderID, &p.PaymentID, &p.OfferID, &p.RecipientUsername,
		&status, &p.AmountUSD, &itemJSON, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load pending purchase: %w", err)
	}

	if err := json.Unmarshal([]byte(itemJSON), &p.Item); err != nil {
		return nil, fmt.Errorf("failed to parse stored item: %w", err)
	}
	p.PaymentStatus = model.PaymentStatus(status)
	p.CreatedAt = createdAt
	return &p, nil
}

// UpdatePaymentStatus sets the payment status, guarded by order ID.
func (r *MySQLPendingPurchaseRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE pending_purchase SET payment_status = ? WHERE id = ? AND order_id = ?`,
		string(status), slotID, orderID)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no pending purchase with order id %s", orderID)
	}
	return nil
}

// Clear removes the record.
func (r *MySQLPendingPurchaseRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_purchase WHERE id = ?`, slotID)
	if err != nil {
		return fmt.Errorf("failed to clear pending purchase: %w", err)
	}
	return nil
}

// Close is a no-op; the connection is owned by the caller.
func (r *MySQLPendingPurchaseRepository) Close() error {
	return nil
}

// Ensure MySQLPendingPurchaseRepository implements PendingPurchaseRepository
var _ PendingPurchaseRepository = (*MySQLPendingPurchaseRepository)(nil)
