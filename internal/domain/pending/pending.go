package pending

import (
	"time"

	"github.com/google/uuid"
)

// Authorization tracks one outstanding authorization or capture request
// against the gateway. Records are created by the storefront when it submits
// the request; the reconciler resolves and eventually deletes them.
//
// Processed=false means the authorization exists at the gateway and its final
// state is still being awaited. Processed=true means the authorization was
// marked created locally and order-level linkage (authorize or capture call)
// still has to be resolved.
type Authorization struct {
	ID              uuid.UUID
	OrderID         *uuid.UUID
	PaymentID       uuid.UUID
	AuthorizationID string
	CaptureID       string
	Capture         bool
	Processed       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOrphan reports whether the record was never linked to an order. Orphan
// records are inert and skipped by the reconciler.
func (a *Authorization) IsOrphan() bool {
	return a.OrderID == nil
}

// MarkProcessed flags the record so the next reconciliation pass re-attempts
// the authorization through the payment method.
func (a *Authorization) MarkProcessed() {
	a.Processed = true
	a.UpdatedAt = time.Now()
}

// TxnID returns the gateway transaction id relevant for the request: the
// capture id for captures, the authorization id otherwise.
func (a *Authorization) TxnID() string {
	if a.Capture {
		return a.CaptureID
	}
	return a.AuthorizationID
}
