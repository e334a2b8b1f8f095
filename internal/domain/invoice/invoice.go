package invoice

import (
	"time"

	"github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/google/uuid"
)

// State represents the invoice state
type State string

const (
	StateOpen     State = "open"
	StatePaid     State = "paid"
	StateCanceled State = "canceled"
)

// Invoice represents the billing document for a capture. It is looked up by
// the gateway transaction id of the capture that pays it.
type Invoice struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	TransactionID  string
	BaseGrandTotal payment.Amount
	State          State
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MarkPaid transitions the invoice to paid. Paying an already paid invoice is
// a no-op so handler re-runs stay safe.
func (i *Invoice) MarkPaid() error {
	if i.State == StatePaid {
		return nil
	}
	if i.State != StateOpen {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot pay invoice in state "+string(i.State),
			errors.ErrInvalidStateTransition,
		)
	}
	i.State = StatePaid
	i.UpdatedAt = time.Now()
	return nil
}

// MarkCanceled transitions the invoice to canceled. Canceling twice is a no-op.
func (i *Invoice) MarkCanceled() error {
	if i.State == StateCanceled {
		return nil
	}
	if i.State != StateOpen {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot cancel invoice in state "+string(i.State),
			errors.ErrInvalidStateTransition,
		)
	}
	i.State = StateCanceled
	i.UpdatedAt = time.Now()
	return nil
}

// SetTransactionID attaches the gateway transaction id that settled this invoice.
func (i *Invoice) SetTransactionID(txnID string) {
	i.TransactionID = txnID
	i.UpdatedAt = time.Now()
}
