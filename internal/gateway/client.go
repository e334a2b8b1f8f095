package gateway

import (
	"context"

	"github.com/cassiomorais/reconciler/internal/domain/payment"
)

// AuthorizationState is the gateway-side state of an authorization object.
type AuthorizationState string

const (
	AuthStatePending  AuthorizationState = "Pending"
	AuthStateOpen     AuthorizationState = "Open"
	AuthStateClosed   AuthorizationState = "Closed"
	AuthStateDeclined AuthorizationState = "Declined"
)

// OrderReferenceState is the gateway-side state of the parent order reference.
type OrderReferenceState string

const (
	OrderStateOpen      OrderReferenceState = "Open"
	OrderStateSuspended OrderReferenceState = "Suspended"
	OrderStateCanceled  OrderReferenceState = "Canceled"
	OrderStateClosed    OrderReferenceState = "Closed"
)

// Reason codes returned by the gateway on declined or closed authorizations.
const (
	ReasonInvalidPaymentMethod = "InvalidPaymentMethod"
	ReasonTransactionTimedOut  = "TransactionTimedOut"
	ReasonProcessingFailure    = "ProcessingFailure"
	ReasonRejected             = "Rejected"
	ReasonExpired              = "Expired"
	ReasonMaxCapturesProcessed = "MaxCapturesProcessed"
)

// AuthorizationDetails is a value snapshot of an authorization fetched from
// the gateway.
type AuthorizationDetails struct {
	AuthorizationID string
	State           AuthorizationState
	ReasonCode      string
	CaptureNow      bool
	CaptureID       string
	Amount          payment.Amount
}

// IsPending reports whether the authorization has not reached a final state yet.
func (d *AuthorizationDetails) IsPending() bool {
	return d.State == AuthStatePending
}

// CaptureOccurred reports whether the details indicate a capture took place.
func (d *AuthorizationDetails) CaptureOccurred() bool {
	return d.CaptureNow || d.CaptureID != ""
}

// OrderDetails is a value snapshot of the order reference status at the gateway.
type OrderDetails struct {
	OrderReferenceID string
	State            OrderReferenceState
}

// IsOpen reports whether the order reference can still carry new authorizations.
func (d *OrderDetails) IsOpen() bool {
	return d.State == OrderStateOpen
}

// GetAuthorizationDetailsRequest identifies the authorization to query.
type GetAuthorizationDetailsRequest struct {
	StoreID         string
	AuthorizationID string
}

// GetOrderReferenceDetailsRequest identifies the order reference to query.
type GetOrderReferenceDetailsRequest struct {
	StoreID          string
	OrderReferenceID string
}

// Client issues authorization-detail and order-detail queries to the payment
// gateway. Implementations own the wire protocol, timeouts and credentials.
type Client interface {
	GetAuthorizationDetails(ctx context.Context, req GetAuthorizationDetailsRequest) (*AuthorizationDetails, error)
	GetOrderReferenceDetails(ctx context.Context, req GetOrderReferenceDetailsRequest) (*OrderDetails, error)
}

// AuthorizeResult is returned by a payment method's cron-context authorize call.
type AuthorizeResult struct {
	TransactionID string
	CaptureID     string
}
