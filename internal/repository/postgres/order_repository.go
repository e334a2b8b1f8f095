package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository implements order.Repository using PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o := &order.Order{}
	var (
		status    string
		amountStr string
	)
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, increment_id, store_id, order_reference_id, status, base_grand_total, base_currency, created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.IncrementID, &o.StoreID, &o.OrderReferenceID, &status, &amountStr, &o.BaseGrandTotal.Currency, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	cents, err := numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse base grand total: %w", err)
	}
	o.BaseGrandTotal.ValueCents = cents
	o.Status = order.Status(status)
	return o, nil
}

// Save updates an existing order.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`,
		string(o.Status), o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOrderNotFound
	}
	return nil
}

// AddComment inserts a durable audit comment for an order.
func (r *OrderRepository) AddComment(ctx context.Context, c *order.Comment) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO order_comments (id, order_id, txn_id, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.OrderID, c.TxnID, c.Message, string(c.Status), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order comment: %w", err)
	}
	return nil
}

// GetComments retrieves the comments for an order, oldest first.
func (r *OrderRepository) GetComments(ctx context.Context, orderID uuid.UUID) ([]*order.Comment, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, order_id, txn_id, message, status, created_at
		 FROM order_comments WHERE order_id = $1 ORDER BY created_at ASC`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list order comments: %w", err)
	}
	defer rows.Close()

	var comments []*order.Comment
	for rows.Next() {
		c := &order.Comment{}
		var status string
		if err := rows.Scan(&c.ID, &c.OrderID, &c.TxnID, &c.Message, &status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order comment: %w", err)
		}
		c.Status = order.Status(status)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
