package gateway

import (
	"context"
	"time"

	"github.com/cassiomorais/reconciler/pkg/retry"
	"github.com/sony/gobreaker/v2"
)

// ResilientClient decorates a Client with a circuit breaker per call type and
// exponential-backoff retries for transient transport failures. Detail fetches
// are read-only so blind retries are safe.
type ResilientClient struct {
	inner        Client
	retryCfg     retry.Config
	authBreaker  *gobreaker.CircuitBreaker[*AuthorizationDetails]
	orderBreaker *gobreaker.CircuitBreaker[*OrderDetails]
}

// BreakerSettings controls when the gateway circuit opens.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MinRequests uint32
	FailureRate float64
}

// DefaultBreakerSettings mirrors the values used for provider calls elsewhere
// in the platform.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		MinRequests: 10,
		FailureRate: 0.6,
	}
}

// NewResilientClient wraps inner with retry and circuit-breaker behavior.
func NewResilientClient(inner Client, retryCfg retry.Config, settings BreakerSettings) *ResilientClient {
	readyToTrip := func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= settings.MinRequests && failureRatio >= settings.FailureRate
	}

	return &ResilientClient{
		inner:    inner,
		retryCfg: retryCfg,
		authBreaker: gobreaker.NewCircuitBreaker[*AuthorizationDetails](gobreaker.Settings{
			Name:        "gateway-authorization-details",
			MaxRequests: settings.MaxRequests,
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: readyToTrip,
		}),
		orderBreaker: gobreaker.NewCircuitBreaker[*OrderDetails](gobreaker.Settings{
			Name:        "gateway-order-details",
			MaxRequests: settings.MaxRequests,
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: readyToTrip,
		}),
	}
}

func (c *ResilientClient) GetAuthorizationDetails(ctx context.Context, req GetAuthorizationDetailsRequest) (*AuthorizationDetails, error) {
	return c.authBreaker.Execute(func() (*AuthorizationDetails, error) {
		return retry.DoWithResult(ctx, c.retryCfg, func() (*AuthorizationDetails, error) {
			return c.inner.GetAuthorizationDetails(ctx, req)
		})
	})
}

func (c *ResilientClient) GetOrderReferenceDetails(ctx context.Context, req GetOrderReferenceDetailsRequest) (*OrderDetails, error) {
	return c.orderBreaker.Execute(func() (*OrderDetails, error) {
		return retry.DoWithResult(ctx, c.retryCfg, func() (*OrderDetails, error) {
			return c.inner.GetOrderReferenceDetails(ctx, req)
		})
	})
}
