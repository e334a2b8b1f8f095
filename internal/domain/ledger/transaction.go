package ledger

import (
	"time"

	"github.com/google/uuid"
)

// TxnType represents the kind of gateway operation a ledger transaction records
type TxnType string

const (
	TypeAuthorization TxnType = "authorization"
	TypeCapture       TxnType = "capture"
)

// Transaction is the durable record linking a gateway operation to an
// order/payment pair.
type Transaction struct {
	ID          uuid.UUID
	TxnID       string
	ParentTxnID *string
	OrderID     uuid.UUID
	PaymentID   uuid.UUID
	Type        TxnType
	Closed      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTransaction creates an open ledger transaction for a gateway operation.
func NewTransaction(txnID string, orderID, paymentID uuid.UUID, txnType TxnType) *Transaction {
	now := time.Now()
	return &Transaction{
		ID:        uuid.New(),
		TxnID:     txnID,
		OrderID:   orderID,
		PaymentID: paymentID,
		Type:      txnType,
		Closed:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Close marks the transaction closed. Closing twice is a no-op.
func (t *Transaction) Close() {
	if t.Closed {
		return
	}
	t.Closed = true
	t.UpdatedAt = time.Now()
}
