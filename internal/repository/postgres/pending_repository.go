package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/pending"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PendingAuthorizationRepository implements pending.Repository using PostgreSQL.
type PendingAuthorizationRepository struct {
	pool *pgxpool.Pool
}

// NewPendingAuthorizationRepository creates a new PendingAuthorizationRepository.
func NewPendingAuthorizationRepository(pool *pgxpool.Pool) *PendingAuthorizationRepository {
	return &PendingAuthorizationRepository{pool: pool}
}

func (r *PendingAuthorizationRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetForUpdate loads a pending authorization with an exclusive row lock.
// Must be called inside a transaction; the lock is held until that
// transaction commits or rolls back.
func (r *PendingAuthorizationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*pending.Authorization, error) {
	a := &pending.Authorization{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, order_id, payment_id, authorization_id, capture_id, capture, processed, created_at, updated_at
		 FROM pending_authorizations WHERE id = $1
		 FOR UPDATE`, id,
	).Scan(&a.ID, &a.OrderID, &a.PaymentID, &a.AuthorizationID, &a.CaptureID, &a.Capture, &a.Processed, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrPendingAuthNotFound
		}
		return nil, fmt.Errorf("scan pending authorization: %w", err)
	}
	return a, nil
}

// Save upserts a pending authorization.
func (r *PendingAuthorizationRepository) Save(ctx context.Context, a *pending.Authorization) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO pending_authorizations
		 (id, order_id, payment_id, authorization_id, capture_id, capture, processed, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (id) DO UPDATE SET
		   order_id=$2, authorization_id=$4, capture_id=$5, capture=$6, processed=$7, updated_at=$9`,
		a.ID, a.OrderID, a.PaymentID, a.AuthorizationID, a.CaptureID, a.Capture, a.Processed, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save pending authorization: %w", err)
	}
	return nil
}

// Delete removes a pending authorization. Deleting an already deleted record
// is not an error.
func (r *PendingAuthorizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db(ctx).Exec(ctx,
		`DELETE FROM pending_authorizations WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("delete pending authorization: %w", err)
	}
	return nil
}

// ListDue returns ids of linked pending authorizations not touched since
// olderThan, oldest first.
func (r *PendingAuthorizationRepository) ListDue(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id FROM pending_authorizations
		 WHERE order_id IS NOT NULL AND updated_at <= $1
		 ORDER BY updated_at ASC
		 LIMIT $2`, olderThan, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due pending authorizations: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending authorization id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
