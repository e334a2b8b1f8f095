package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/invoice"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InvoiceRepository implements invoice.Repository using PostgreSQL.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

func (r *InvoiceRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetByTransactionID retrieves the invoice tied to a gateway transaction id.
func (r *InvoiceRepository) GetByTransactionID(ctx context.Context, orderID uuid.UUID, txnID string) (*invoice.Invoice, error) {
	inv := &invoice.Invoice{}
	var (
		state     string
		amountStr string
	)
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, order_id, transaction_id, base_grand_total, currency, state, created_at, updated_at
		 FROM invoices WHERE order_id = $1 AND transaction_id = $2`, orderID, txnID,
	).Scan(&inv.ID, &inv.OrderID, &inv.TransactionID, &amountStr, &inv.BaseGrandTotal.Currency, &state, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	cents, err := numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse invoice grand total: %w", err)
	}
	inv.BaseGrandTotal.ValueCents = cents
	inv.State = invoice.State(state)
	return inv, nil
}

// Save updates an existing invoice.
func (r *InvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE invoices SET transaction_id=$1, state=$2, updated_at=$3 WHERE id=$4`,
		inv.TransactionID, string(inv.State), inv.UpdatedAt, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvoiceNotFound
	}
	return nil
}
