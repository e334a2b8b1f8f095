package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/cassiomorais/reconciler/internal/domain/invoice"
	"github.com/cassiomorais/reconciler/internal/domain/order"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/cassiomorais/reconciler/internal/domain/pending"
)

func NewTestOrder(storeID string, amountCents int64, currency string) *order.Order {
	now := time.Now()
	return &order.Order{
		ID:               uuid.New(),
		IncrementID:      "10000" + uuid.NewString()[:6],
		StoreID:          storeID,
		OrderReferenceID: "O-" + uuid.NewString()[:8],
		Status:           order.StatusProcessing,
		BaseGrandTotal:   payment.Amount{ValueCents: amountCents, Currency: currency},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func NewTestPayment(orderID uuid.UUID, amountCents int64, currency string) *payment.Payment {
	now := time.Now()
	return &payment.Payment{
		ID:                   uuid.New(),
		OrderID:              orderID,
		Method:               "gateway_pay",
		OrderReferenceID:     "O-" + uuid.NewString()[:8],
		BaseAmountAuthorized: payment.Amount{ValueCents: amountCents, Currency: currency},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func NewTestInvoice(orderID uuid.UUID, txnID string, amountCents int64, currency string) *invoice.Invoice {
	now := time.Now()
	return &invoice.Invoice{
		ID:             uuid.New(),
		OrderID:        orderID,
		TransactionID:  txnID,
		BaseGrandTotal: payment.Amount{ValueCents: amountCents, Currency: currency},
		State:          invoice.StateOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewPendingAuthorization builds an update-path record pointing at an
// existing gateway authorization.
func NewPendingAuthorization(orderID, paymentID uuid.UUID, authorizationID string) *pending.Authorization {
	now := time.Now()
	return &pending.Authorization{
		ID:              uuid.New(),
		OrderID:         &orderID,
		PaymentID:       paymentID,
		AuthorizationID: authorizationID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewProcessedAuthorization builds a new-authorization-path record.
func NewProcessedAuthorization(orderID, paymentID uuid.UUID) *pending.Authorization {
	rec := NewPendingAuthorization(orderID, paymentID, "")
	rec.Processed = true
	return rec
}

func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
