package invoice

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence port for invoices.
type Repository interface {
	GetByTransactionID(ctx context.Context, orderID uuid.UUID, txnID string) (*Invoice, error)
	Save(ctx context.Context, inv *Invoice) error
}
