package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepository implements ledger.TransactionLedger using PostgreSQL.
// Comments attach to the order's audit trail keyed by the transaction id.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new ledger transaction.
func (r *LedgerRepository) Create(ctx context.Context, txn *ledger.Transaction) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO transactions (id, txn_id, parent_txn_id, order_id, payment_id, txn_type, closed, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		txn.ID, txn.TxnID, txn.ParentTxnID, txn.OrderID, txn.PaymentID, string(txn.Type), txn.Closed, txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

// GetByTxnID retrieves a ledger transaction by gateway transaction id.
func (r *LedgerRepository) GetByTxnID(ctx context.Context, orderID uuid.UUID, txnID string) (*ledger.Transaction, error) {
	txn := &ledger.Transaction{}
	var txnType string
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, txn_id, parent_txn_id, order_id, payment_id, txn_type, closed, created_at, updated_at
		 FROM transactions WHERE order_id = $1 AND txn_id = $2`, orderID, txnID,
	).Scan(&txn.ID, &txn.TxnID, &txn.ParentTxnID, &txn.OrderID, &txn.PaymentID, &txnType, &txn.Closed, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan ledger transaction: %w", err)
	}
	txn.Type = ledger.TxnType(txnType)
	return txn, nil
}

// CloseByTxnID marks a ledger transaction closed. Closing an already closed
// transaction is a no-op.
func (r *LedgerRepository) CloseByTxnID(ctx context.Context, orderID uuid.UUID, txnID string) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE transactions SET closed = TRUE, updated_at = $1 WHERE order_id = $2 AND txn_id = $3`,
		time.Now(), orderID, txnID,
	)
	if err != nil {
		return fmt.Errorf("close ledger transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotFound
	}
	return nil
}

// AddComment attaches a human-readable comment to the order's audit trail,
// keyed by the gateway transaction id.
func (r *LedgerRepository) AddComment(ctx context.Context, orderID uuid.UUID, txnID, message string) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO order_comments (id, order_id, txn_id, message, status, created_at)
		 VALUES ($1, $2, $3, $4, (SELECT status FROM orders WHERE id = $2), $5)`,
		uuid.New(), orderID, txnID, message, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert transaction comment: %w", err)
	}
	return nil
}
