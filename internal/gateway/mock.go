package gateway

import (
	"context"
	"math/rand"
	"time"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
)

// MockClient is a scriptable gateway client for tests and local development.
type MockClient struct {
	authState   AuthorizationState
	orderState  OrderReferenceState
	reasonCode  string
	captureID   string
	captureNow  bool
	amountCents int64
	currency    string
	latency     time.Duration
	failureRate float64 // 0.0 to 1.0
}

type MockClientOption func(*MockClient)

func WithAuthState(state AuthorizationState) MockClientOption {
	return func(c *MockClient) { c.authState = state }
}

func WithOrderState(state OrderReferenceState) MockClientOption {
	return func(c *MockClient) { c.orderState = state }
}

func WithReasonCode(code string) MockClientOption {
	return func(c *MockClient) { c.reasonCode = code }
}

func WithCaptureID(id string) MockClientOption {
	return func(c *MockClient) { c.captureID = id }
}

func WithCaptureNow(captureNow bool) MockClientOption {
	return func(c *MockClient) { c.captureNow = captureNow }
}

func WithAmount(cents int64, currency string) MockClientOption {
	return func(c *MockClient) {
		c.amountCents = cents
		c.currency = currency
	}
}

func WithLatency(d time.Duration) MockClientOption {
	return func(c *MockClient) { c.latency = d }
}

func WithFailureRate(rate float64) MockClientOption {
	return func(c *MockClient) { c.failureRate = rate }
}

func NewMockClient(opts ...MockClientOption) *MockClient {
	c := &MockClient{
		authState:  AuthStateOpen,
		orderState: OrderStateOpen,
		currency:   "USD",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *MockClient) GetAuthorizationDetails(ctx context.Context, req GetAuthorizationDetailsRequest) (*AuthorizationDetails, error) {
	if err := c.simulate(ctx); err != nil {
		return nil, err
	}

	return &AuthorizationDetails{
		AuthorizationID: req.AuthorizationID,
		State:           c.authState,
		ReasonCode:      c.reasonCode,
		CaptureNow:      c.captureNow,
		CaptureID:       c.captureID,
		Amount:          payment.Amount{ValueCents: c.amountCents, Currency: c.currency},
	}, nil
}

func (c *MockClient) GetOrderReferenceDetails(ctx context.Context, req GetOrderReferenceDetailsRequest) (*OrderDetails, error) {
	if err := c.simulate(ctx); err != nil {
		return nil, err
	}

	return &OrderDetails{
		OrderReferenceID: req.OrderReferenceID,
		State:            c.orderState,
	}, nil
}

func (c *MockClient) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizationDetails, error) {
	if err := c.simulate(ctx); err != nil {
		return nil, err
	}

	captureID := c.captureID
	if req.CaptureNow && captureID == "" {
		captureID = "C-" + req.AuthorizationReference
	}

	return &AuthorizationDetails{
		AuthorizationID: "A-" + req.AuthorizationReference,
		State:           c.authState,
		ReasonCode:      c.reasonCode,
		CaptureNow:      req.CaptureNow,
		CaptureID:       captureID,
		Amount:          req.Amount,
	}, nil
}

func (c *MockClient) simulate(ctx context.Context) error {
	if c.latency > 0 {
		select {
		case <-time.After(c.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.failureRate > 0 && rand.Float64() < c.failureRate {
		return domainErrors.ErrGatewayUnavailable
	}
	return nil
}
