package dto

// AuthorizationSnapshot is a pre-fetched gateway authorization state supplied
// by callers that already queried the gateway.
type AuthorizationSnapshot struct {
	AuthorizationID string  `json:"authorization_id" validate:"required"`
	State           string  `json:"state" validate:"required,oneof=Pending Open Closed Declined"`
	ReasonCode      string  `json:"reason_code,omitempty"`
	CaptureNow      bool    `json:"capture_now,omitempty"`
	CaptureID       string  `json:"capture_id,omitempty"`
	Amount          float64 `json:"amount" validate:"gte=0"`
	Currency        string  `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// OrderReferenceSnapshot is a pre-fetched gateway order reference state.
type OrderReferenceSnapshot struct {
	OrderReferenceID string `json:"order_reference_id" validate:"required"`
	State            string `json:"state" validate:"required,oneof=Open Suspended Canceled Closed"`
}

// ReconcileRequest is the optional HTTP request body for a synchronous
// reconciliation. Snapshots, when present, skip the corresponding gateway
// fetch.
type ReconcileRequest struct {
	AuthorizationDetails *AuthorizationSnapshot  `json:"authorization_details,omitempty"`
	OrderDetails         *OrderReferenceSnapshot `json:"order_details,omitempty"`
}

// IPNRequest is the HTTP request body for a gateway instant payment
// notification.
type IPNRequest struct {
	NotificationType       string `json:"notification_type" validate:"required,oneof=PaymentAuthorize PaymentCapture OrderReferenceNotification"`
	PendingAuthorizationID string `json:"pending_authorization_id" validate:"required,uuid"`
}
