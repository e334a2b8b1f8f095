package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/reconciler/internal/domain/payment"
)

// AuthorizeRequest asks the gateway to create a new authorization on an open
// order reference, optionally capturing it in the same call.
type AuthorizeRequest struct {
	StoreID                string
	OrderReferenceID       string
	AuthorizationReference string
	Amount                 payment.Amount
	CaptureNow             bool
	// TransactionTimeout of zero asks for a synchronous decision; the
	// gateway answers Open/Closed/Declined instead of Pending.
	TransactionTimeout int
}

// Authorizer issues new authorizations against the gateway.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizationDetails, error)
}

// CronMethod re-drives authorizations from unattended context. It requests a
// synchronous decision and maps the returned state through the validator, so
// callers see soft and hard declines as tagged errors.
type CronMethod struct {
	authorizer Authorizer
	validator  *Validator
	logger     zerolog.Logger
}

func NewCronMethod(authorizer Authorizer, validator *Validator, logger zerolog.Logger) *CronMethod {
	return &CronMethod{
		authorizer: authorizer,
		validator:  validator,
		logger:     logger.With().Str("component", "cron_method").Logger(),
	}
}

func (m *CronMethod) AuthorizeInCron(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*AuthorizeResult, error) {
	if err := amount.Validate(); err != nil {
		return nil, fmt.Errorf("authorize amount: %w", err)
	}

	req := AuthorizeRequest{
		OrderReferenceID:       p.OrderReferenceID,
		AuthorizationReference: uuid.NewString(),
		Amount:                 amount,
		CaptureNow:             capture,
		TransactionTimeout:     0,
	}

	details, err := m.authorizer.Authorize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("gateway authorize: %w", err)
	}

	if err := m.validator.Validate(details); err != nil {
		return nil, err
	}

	m.logger.Debug().
		Str("order_reference_id", p.OrderReferenceID).
		Str("authorization_id", details.AuthorizationID).
		Bool("capture", capture).
		Msg("cron authorization accepted")

	return &AuthorizeResult{
		TransactionID: details.AuthorizationID,
		CaptureID:     details.CaptureID,
	}, nil
}
