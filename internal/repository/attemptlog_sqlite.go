package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"lobomat-api/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteFulfillmentLogRepository implements FulfillmentLogRepository using
// SQLite. Writes are best-effort from the workflow's point of view; a failed
// insert never changes a fulfillment outcome.
type SQLiteFulfillmentLogRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteFulfillmentLogRepository creates the attempt log at dbPath.
func NewSQLiteFulfillmentLogRepository(dbPath string) (*SQLiteFulfillmentLogRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	query := `
	CREATE TABLE IF NOT EXISTS fulfillment_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		recipient TEXT NOT NULL,
		stage TEXT NOT NULL,
		result TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_created ON fulfillment_attempts(created_at);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create fulfillment_attempts table: %w", err)
	}

	log.Printf("[SQLiteFulfillmentLogRepository] Initialized with database: %s", dbPath)
	return &SQLiteFulfillmentLogRepository{db: db}, nil
}

// RecordAttempt appends one attempt record.
func (r *SQLiteFulfillmentLogRepository) RecordAttempt(ctx context.Context, attempt *model.FulfillmentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO fulfillment_attempts (order_id, provider_id, recipient, stage, result, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		attempt.OrderID, attempt.ProviderID, attempt.Recipient,
		attempt.Stage, attempt.Result, attempt.Detail, createdAt)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ListRecent returns the most recent attempts, newest first.
func (r *SQLiteFulfillmentLogRepository) ListRecent(ctx context.Context, limit int) ([]model.FulfillmentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit < 1 || limit > 500 {
		limit = 50
	}

	query := `SELECT id, order_id, provider_id, recipient, stage, result, COALESCE(detail, ''), created_at
		FROM fulfillment_attempts ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.FulfillmentAttempt
	for rows.Next() {
		var a model.FulfillmentAttempt
		if err := rows.Scan(&a.ID, &a.OrderID, &a.ProviderID, &a.Recipient,
			&a.Stage, &a.Result, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// DeleteOlderThan prunes attempts older than the threshold.
func (r *SQLiteFulfillmentLogRepository) DeleteOlderThan(ctx context.Context, threshold time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-threshold)

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM fulfillment_attempts WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[SQLiteFulfillmentLogRepository] Pruned %d attempt records (threshold: %v)", deleted, threshold)
	}
	return deleted, nil
}

// Close closes the database connection.
func (r *SQLiteFulfillmentLogRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteFulfillmentLogRepository implements FulfillmentLogRepository
var _ FulfillmentLogRepository = (*SQLiteFulfillmentLogRepository)(nil)
