package ledger

import (
	"context"

	"github.com/google/uuid"
)

// TransactionLedger creates, looks up and closes gateway transactions tied to
// an order/payment pair, and attaches human-readable comments to them.
type TransactionLedger interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByTxnID(ctx context.Context, orderID uuid.UUID, txnID string) (*Transaction, error)
	CloseByTxnID(ctx context.Context, orderID uuid.UUID, txnID string) error
	AddComment(ctx context.Context, orderID uuid.UUID, txnID, message string) error
}
