package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"lobomat-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLitePendingPurchaseRepository implements PendingPurchaseRepository using
// SQLite. The record survives process restarts, which is what lets a
// fulfillment run pick up a purchase created before a payment redirect.
type SQLitePendingPurchaseRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// slotID is the fixed primary key of the single record slot.
const slotID = 1

// NewSQLitePendingPurchaseRepository creates the SQLite store at dbPath.
func NewSQLitePendingPurchaseRepository(dbPath string) (*SQLitePendingPurchaseRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	query := `
	CREATE TABLE IF NOT EXISTS pending_purchase (
		id INTEGER PRIMARY KEY,
		order_id TEXT NOT NULL,
		payment_id TEXT,
		offer_id TEXT NOT NULL,
		recipient_username TEXT,
		payment_status TEXT NOT NULL,
		amount_usd REAL NOT NULL,
		item_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create pending_purchase table: %w", err)
	}

	log.Printf("[SQLitePendingPurchaseRepository] Initialized with database: %s", dbPath)
	return &SQLitePendingPurchaseRepository{db: db}, nil
}

// Save overwrites the pending purchase record.
func (r *SQLitePendingPurchaseRepository) Save(ctx context.Context, purchase *model.PendingPurchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	itemJSON, err := json.Marshal(purchase.Item)
	if err != nil {
		return fmt.Errorf("failed to serialize item: %w", err)
	}

	query := `
		INSERT INTO pending_purchase (id, order_id, payment_id, offer_id, recipient_username, payment_status, amount_usd, item_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_id = excluded.order_id,
			payment_id = excluded.payment_id,
			offer_id = excluded.offer_id,
			recipient_username = excluded.recipient_username,
			payment_status = excluded.payment_status,
			amount_usd = excluded.amount_usd,
			item_json = excluded.item_json,
			created_at = excluded.created_at`

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
func (r *SQLitePendingPurchaseRepository) Load(ctx context.Context) (*model.PendingPurchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

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
func (r *SQLitePendingPurchaseRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

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
func (r *SQLitePendingPurchaseRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_purchase WHERE id = ?`, slotID)
	if err != nil {
		return fmt.Errorf("failed to clear pending purchase: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLitePendingPurchaseRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLitePendingPurchaseRepository implements PendingPurchaseRepository
var _ PendingPurchaseRepository = (*SQLitePendingPurchaseRepository)(nil)
