package reconcile

import (
	"context"

	"github.com/cassiomorais/reconciler/internal/domain/order"
	"github.com/cassiomorais/reconciler/internal/domain/outbox"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/cassiomorais/reconciler/internal/events"
	"github.com/cassiomorais/reconciler/internal/gateway"
)

// TransactionManager defines the interface for transaction management.
// This is an application-layer port, not a domain concern.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentMethod is the payment-method capability invoked from unattended
// (cron) context. It returns a gateway.SoftDeclineError on transient declines
// and a gateway.HardDeclineError on permanent ones.
type PaymentMethod interface {
	AuthorizeInCron(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*gateway.AuthorizeResult, error)
}

// EventBus publishes reconciliation outcome events to in-process listeners.
type EventBus interface {
	Dispatch(ctx context.Context, name string, payload events.Payload)
}

// Notifier raises admin-facing notices.
type Notifier interface {
	CaptureDeclined(ctx context.Context, ord *order.Order, txnID string) error
}

// OutboxWriter defines the interface for writing to the transactional outbox.
type OutboxWriter interface {
	Insert(ctx context.Context, entry *outbox.Entry) error
}

// StoreSelector resolves the store/tenant context an order belongs to.
// The returned context carries the tenant scope required by gateway calls.
type StoreSelector interface {
	SelectStore(ctx context.Context, storeID string) (context.Context, error)
}
