package payment

import (
	"fmt"
	"time"

	"github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/google/uuid"
)

// Payment represents the payment record attached to an order. The reconciler
// reads its authorized amount and feeds it back to the payment method for
// cron-context authorization calls.
type Payment struct {
	ID                   uuid.UUID
	OrderID              uuid.UUID
	Method               string
	OrderReferenceID     string
	BaseAmountAuthorized Amount
	LastTxnID            *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Amount represents a monetary amount in the smallest currency unit (e.g. cents).
type Amount struct {
	ValueCents int64
	Currency   string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	whole := a.ValueCents / 100
	frac := a.ValueCents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, a.Currency)
}

// Validate checks that the amount is valid.
func (a Amount) Validate() error {
	if a.ValueCents <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if a.Currency == "" {
		return errors.NewValidationError("currency", "cannot be empty")
	}
	// Simple currency validation (3-letter code)
	if len(a.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}

// SetLastTxnID records the most recent gateway transaction id on the payment.
func (p *Payment) SetLastTxnID(txnID string) {
	p.LastTxnID = &txnID
	p.UpdatedAt = time.Now()
}
