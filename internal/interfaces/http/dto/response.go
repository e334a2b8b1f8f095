package dto

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/cassiomorais/reconciler/internal/domain/pending"
	"github.com/cassiomorais/reconciler/internal/gateway"
)

// PendingAuthorizationResponse is the HTTP response for a pending
// authorization record.
type PendingAuthorizationResponse struct {
	ID              uuid.UUID  `json:"id"`
	OrderID         *uuid.UUID `json:"order_id,omitempty"`
	PaymentID       uuid.UUID  `json:"payment_id"`
	AuthorizationID string     `json:"authorization_id"`
	CaptureID       string     `json:"capture_id,omitempty"`
	Capture         bool       `json:"capture"`
	Processed       bool       `json:"processed"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// FromPendingAuthorization maps a domain record to its response shape.
func FromPendingAuthorization(rec *pending.Authorization) *PendingAuthorizationResponse {
	return &PendingAuthorizationResponse{
		ID:              rec.ID,
		OrderID:         rec.OrderID,
		PaymentID:       rec.PaymentID,
		AuthorizationID: rec.AuthorizationID,
		CaptureID:       rec.CaptureID,
		Capture:         rec.Capture,
		Processed:       rec.Processed,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

// IPNAcceptedResponse acknowledges an enqueued notification.
type IPNAcceptedResponse struct {
	PendingAuthorizationID string `json:"pending_authorization_id"`
	Status                 string `json:"status"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ToAuthorizationDetails maps a snapshot DTO to the gateway value type.
func (s *AuthorizationSnapshot) ToAuthorizationDetails() *gateway.AuthorizationDetails {
	currency := s.Currency
	if currency == "" {
		currency = "USD"
	}
	return &gateway.AuthorizationDetails{
		AuthorizationID: s.AuthorizationID,
		State:           gateway.AuthorizationState(s.State),
		ReasonCode:      s.ReasonCode,
		CaptureNow:      s.CaptureNow,
		CaptureID:       s.CaptureID,
		Amount:          payment.Amount{ValueCents: floatToCents(s.Amount), Currency: currency},
	}
}

// ToOrderDetails maps a snapshot DTO to the gateway value type.
func (s *OrderReferenceSnapshot) ToOrderDetails() *gateway.OrderDetails {
	return &gateway.OrderDetails{
		OrderReferenceID: s.OrderReferenceID,
		State:            gateway.OrderReferenceState(s.State),
	}
}

// floatToCents converts a float64 amount to int64 cents.
func floatToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}
