package order

import (
	"time"

	"github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/google/uuid"
)

// Status represents the order status in the state machine
type Status string

const (
	StatusPending       Status = "pending"
	StatusProcessing    Status = "processing"
	StatusPaymentReview Status = "payment_review"
	StatusOnHold        Status = "on_hold"
	StatusComplete      Status = "complete"
	StatusCanceled      Status = "canceled"
)

// Order represents a store order whose payment is reconciled against the gateway.
// The reconciler mutates its status and comments; everything else is owned by
// the storefront that created it.
type Order struct {
	ID               uuid.UUID
	IncrementID      string
	StoreID          string
	OrderReferenceID string
	Status           Status
	BaseGrandTotal   payment.Amount
	Payment          *payment.Payment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Comment is a durable audit record attached to an order, optionally tied to a
// ledger transaction.
type Comment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	TxnID     string
	Message   string
	Status    Status
	CreatedAt time.Time
}

// CanTransitionTo checks if the order can transition to the given status.
// Reconciliation statuses are re-enterable so a re-run after a partial
// failure does not trip the state machine.
func (o *Order) CanTransitionTo(newStatus Status) bool {
	if o.Status == newStatus {
		return true
	}

	transitions := map[Status][]Status{
		StatusPending: {
			StatusProcessing,
			StatusPaymentReview,
			StatusOnHold,
			StatusCanceled,
		},
		StatusProcessing: {
			StatusPaymentReview,
			StatusOnHold,
			StatusComplete,
			StatusCanceled,
		},
		StatusPaymentReview: {
			StatusProcessing,
			StatusOnHold,
			StatusCanceled,
		},
		StatusOnHold: {
			StatusProcessing,
			StatusCanceled,
		},
		StatusComplete: {}, // Terminal state
		StatusCanceled: {}, // Terminal state
	}

	allowedTransitions, exists := transitions[o.Status]
	if !exists {
		return false
	}

	for _, allowed := range allowedTransitions {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(o.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	o.Status = newStatus
	o.UpdatedAt = time.Now()
	return nil
}

// MarkProcessing transitions the order to processing status
func (o *Order) MarkProcessing() error {
	return o.TransitionTo(StatusProcessing)
}

// MarkPaymentReview transitions the order to the payment review queue
func (o *Order) MarkPaymentReview() error {
	return o.TransitionTo(StatusPaymentReview)
}

// MarkOnHold transitions the order to on hold status
func (o *Order) MarkOnHold() error {
	return o.TransitionTo(StatusOnHold)
}

// SetPayment binds a payment onto the order in memory.
func (o *Order) SetPayment(p *payment.Payment) {
	o.Payment = p
}

// IsTerminal checks if the order is in a terminal state
func (o *Order) IsTerminal() bool {
	return o.Status == StatusComplete || o.Status == StatusCanceled
}

// NewComment builds an order comment carrying the current order status.
func (o *Order) NewComment(txnID, message string) *Comment {
	return &Comment{
		ID:        uuid.New(),
		OrderID:   o.ID,
		TxnID:     txnID,
		Message:   message,
		Status:    o.Status,
		CreatedAt: time.Now(),
	}
}
