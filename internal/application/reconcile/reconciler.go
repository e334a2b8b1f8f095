// Package reconcile resolves pending payment authorizations against the
// gateway and transitions the order/payment/invoice state machine to one of
// three outcomes: completed, soft-declined (retained for retry) or
// hard-declined (order held).
package reconcile

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/invoice"
	"github.com/cassiomorais/reconciler/internal/domain/ledger"
	"github.com/cassiomorais/reconciler/internal/domain/order"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/cassiomorais/reconciler/internal/domain/pending"
	"github.com/cassiomorais/reconciler/internal/gateway"
	"github.com/cassiomorais/reconciler/pkg/saga"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event names published after decline outcomes.
const (
	EventSoftDeclineAfter = "pending_authorization.soft_decline_after"
	EventHardDeclineAfter = "pending_authorization.hard_decline_after"
)

// UpdateAuthorizationUseCase drives the reconciliation protocol for one
// pending-authorization record.
type UpdateAuthorizationUseCase struct {
	pendingRepo pending.Repository
	orderRepo   order.Repository
	paymentRepo payment.Repository
	invoiceRepo invoice.Repository
	ledger      ledger.TransactionLedger
	txManager   TransactionManager
	client      gateway.Client
	validator   *gateway.Validator
	method      PaymentMethod
	bus         EventBus
	notifier    Notifier
	outbox      OutboxWriter
	stores      StoreSelector
	logger      zerolog.Logger

	// throwErrors controls whether reconciliation failures re-propagate to
	// the caller after logging and rollback. Batch invocations leave it off
	// so one bad record does not stop the pass; synchronous callers turn it
	// on for failure visibility.
	throwErrors bool
}

// NewUpdateAuthorizationUseCase creates a new UpdateAuthorizationUseCase.
func NewUpdateAuthorizationUseCase(
	pendingRepo pending.Repository,
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	invoiceRepo invoice.Repository,
	txnLedger ledger.TransactionLedger,
	txManager TransactionManager,
	client gateway.Client,
	validator *gateway.Validator,
	method PaymentMethod,
	bus EventBus,
	notifier Notifier,
	outboxWriter OutboxWriter,
	stores StoreSelector,
	logger zerolog.Logger,
) *UpdateAuthorizationUseCase {
	return &UpdateAuthorizationUseCase{
		pendingRepo: pendingRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		ledger:      txnLedger,
		txManager:   txManager,
		client:      client,
		validator:   validator,
		method:      method,
		bus:         bus,
		notifier:    notifier,
		outbox:      outboxWriter,
		stores:      stores,
		logger:      logger,
	}
}

// SetThrowErrors toggles re-propagation of reconciliation failures.
func (uc *UpdateAuthorizationUseCase) SetThrowErrors(throw bool) {
	uc.throwErrors = throw
}

// Option supplies pre-fetched gateway snapshots to Execute, for callers that
// already retrieved them (synchronous confirmation flows).
type Option func(*executeOptions)

type executeOptions struct {
	authDetails  *gateway.AuthorizationDetails
	orderDetails *gateway.OrderDetails
}

// WithAuthorizationDetails supplies a pre-fetched authorization snapshot.
func WithAuthorizationDetails(d *gateway.AuthorizationDetails) Option {
	return func(o *executeOptions) { o.authDetails = d }
}

// WithOrderDetails supplies a pre-fetched order reference snapshot.
func WithOrderDetails(d *gateway.OrderDetails) Option {
	return func(o *executeOptions) { o.orderDetails = d }
}

// Execute reconciles one pending authorization by id.
//
// The pending record is loaded with an exclusive row lock inside a
// transaction, so concurrent invocations for the same id serialize. Only the
// pending record's own lifecycle rides that transaction; order, invoice and
// ledger writes go straight to the pool, which makes reconciliation
// at-least-once rather than atomic. A crash mid-handler leaves the record in
// place and the handlers are safe to re-run.
func (uc *UpdateAuthorizationUseCase) Execute(ctx context.Context, id uuid.UUID, opts ...Option) error {
	var o executeOptions
	for _, opt := range opts {
		opt(&o)
	}

	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		rec, err := uc.pendingRepo.GetForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, domainErrors.ErrPendingAuthNotFound) {
				// Already resolved by an earlier pass. Record absence is terminal.
				return nil
			}
			return fmt.Errorf("load pending authorization: %w", err)
		}

		if rec.IsOrphan() {
			// Never linked to an order; nothing to reconcile.
			return nil
		}

		if rec.Processed {
			return uc.processNewAuthorization(ctx, txCtx, rec, o.orderDetails)
		}
		return uc.processUpdatedAuthorization(ctx, txCtx, rec, o.authDetails)
	})
	if err != nil {
		uc.logger.Error().
			Err(err).
			Str("pending_id", id.String()).
			Msg("Authorization reconciliation failed")
		if uc.throwErrors {
			return err
		}
	}
	return nil
}

// processNewAuthorization finalizes a freshly created authorization: it
// re-drives the authorize (or authorize-and-capture) call through the payment
// method, provided the gateway-side order reference is still open.
func (uc *UpdateAuthorizationUseCase) processNewAuthorization(
	ctx, txCtx context.Context,
	rec *pending.Authorization,
	orderDetails *gateway.OrderDetails,
) error {
	ord, pay, storeCtx, err := uc.loadOrderContext(ctx, rec)
	if err != nil {
		return err
	}

	if orderDetails == nil {
		orderDetails, err = uc.client.GetOrderReferenceDetails(storeCtx, gateway.GetOrderReferenceDetailsRequest{
			StoreID:          ord.StoreID,
			OrderReferenceID: ord.OrderReferenceID,
		})
		if err != nil {
			return fmt.Errorf("get order reference details: %w", err)
		}
	}

	if !orderDetails.IsOpen() {
		// Order reference expired or closed at the gateway; the
		// authorization cannot proceed. Left for manual follow-up.
		uc.logger.Warn().
			Str("pending_id", rec.ID.String()).
			Str("order_reference_state", string(orderDetails.State)).
			Msg("Order reference no longer open, skipping authorization")
		return nil
	}

	var (
		amount payment.Amount
		inv    *invoice.Invoice
	)
	if rec.Capture {
		inv, err = uc.invoiceRepo.GetByTransactionID(ctx, ord.ID, rec.CaptureID)
		if err != nil {
			return fmt.Errorf("load invoice for capture %s: %w", rec.CaptureID, err)
		}
		amount = inv.BaseGrandTotal
	} else {
		amount = pay.BaseAmountAuthorized
	}

	txnType := ledger.TypeAuthorization
	if rec.Capture {
		txnType = ledger.TypeCapture
	}

	var (
		result *gateway.AuthorizeResult
		txn    *ledger.Transaction
	)
	s := saga.New("cron-authorize").
		AddStep(saga.Step{
			Name: "authorize",
			Execute: func(sagaCtx context.Context) error {
				result, err = uc.method.AuthorizeInCron(sagaCtx, pay, amount, rec.Capture)
				return err
			},
		}).
		AddStep(saga.Step{
			Name: "record-transaction",
			Execute: func(sagaCtx context.Context) error {
				txn = ledger.NewTransaction(result.TransactionID, ord.ID, pay.ID, txnType)
				return uc.ledger.Create(sagaCtx, txn)
			},
			Compensate: func(sagaCtx context.Context) error {
				return uc.ledger.CloseByTxnID(sagaCtx, ord.ID, txn.TxnID)
			},
		}).
		AddStep(saga.Step{
			Name: "complete",
			Execute: func(context.Context) error {
				return uc.completePendingAuthorization(ctx, txCtx, ord, pay, rec, rec.Capture, txn)
			},
		})

	failedStep, sagaErr := s.Execute(storeCtx)
	if sagaErr == nil {
		return nil
	}

	// Only errors from the payment method itself are decline outcomes.
	// Ledger or completion failures propagate and roll the record lock back.
	if failedStep != 0 {
		return sagaErr
	}

	// The decline handlers run with capture=false in this path even for
	// capture requests: the capture never got far enough to create anything
	// capture-specific to unwind.
	if gateway.IsSoftDecline(sagaErr) {
		return uc.softDeclinePendingAuthorization(ctx, txCtx, ord, pay, rec, false)
	}
	return uc.hardDeclinePendingAuthorization(ctx, txCtx, ord, pay, rec, false)
}

// processUpdatedAuthorization fetches the current gateway state of an
// existing authorization, validates it and branches on the outcome.
func (uc *UpdateAuthorizationUseCase) processUpdatedAuthorization(
	ctx, txCtx context.Context,
	rec *pending.Authorization,
	details *gateway.AuthorizationDetails,
) error {
	ord, pay, storeCtx, err := uc.loadOrderContext(ctx, rec)
	if err != nil {
		return err
	}

	if details == nil {
		details, err = uc.client.GetAuthorizationDetails(storeCtx, gateway.GetAuthorizationDetailsRequest{
			StoreID:         ord.StoreID,
			AuthorizationID: rec.AuthorizationID,
		})
		if err != nil {
			return fmt.Errorf("get authorization details: %w", err)
		}
	}

	capture := details.CaptureOccurred()

	if err := uc.validator.Validate(details); err != nil {
		switch {
		case gateway.IsSoftDecline(err):
			return uc.softDeclinePendingAuthorization(ctx, txCtx, ord, pay, rec, capture)
		case gateway.IsHardDecline(err):
			return uc.hardDeclinePendingAuthorization(ctx, txCtx, ord, pay, rec, capture)
		default:
			return fmt.Errorf("validate authorization details: %w", err)
		}
	}

	if !details.IsPending() {
		return uc.completePendingAuthorization(ctx, txCtx, ord, pay, rec, capture, nil)
	}

	// Still pending at the gateway; left for the next reconciliation pass.
	return nil
}

// loadOrderContext loads the order and payment the record points at, binds
// the payment onto the order and selects the owning store context.
func (uc *UpdateAuthorizationUseCase) loadOrderContext(
	ctx context.Context,
	rec *pending.Authorization,
) (*order.Order, *payment.Payment, context.Context, error) {
	ord, err := uc.orderRepo.GetByID(ctx, *rec.OrderID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load order: %w", err)
	}
	pay, err := uc.paymentRepo.GetByID(ctx, rec.PaymentID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load payment: %w", err)
	}
	ord.SetPayment(pay)

	storeCtx, err := uc.stores.SelectStore(ctx, ord.StoreID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("select store %s: %w", ord.StoreID, err)
	}
	return ord, pay, storeCtx, nil
}

// resolveTxnID picks the gateway transaction id relevant for the outcome.
func resolveTxnID(rec *pending.Authorization, capture bool) string {
	if capture {
		return rec.CaptureID
	}
	return rec.AuthorizationID
}
