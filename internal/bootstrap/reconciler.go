package bootstrap

import (
	"fmt"

	"github.com/cassiomorais/reconciler/internal/application/reconcile"
	"github.com/cassiomorais/reconciler/internal/events"
	"github.com/cassiomorais/reconciler/internal/gateway"
	"github.com/cassiomorais/reconciler/internal/infrastructure/notifier"
	infraRedis "github.com/cassiomorais/reconciler/internal/infrastructure/redis"
	"github.com/cassiomorais/reconciler/internal/infrastructure/stores"
	"github.com/cassiomorais/reconciler/internal/repository/postgres"
	"github.com/cassiomorais/reconciler/pkg/retry"
)

// Reconciliation bundles the reconcile use case together with the pieces the
// binaries also use on their own.
type Reconciliation struct {
	UseCase        *reconcile.UpdateAuthorizationUseCase
	Bus            *events.Bus
	TxManager      *postgres.TxManager
	OutboxRepo     *postgres.OutboxRepository
	PendingRepo    *postgres.PendingAuthorizationRepository
	StreamProducer *infraRedis.StreamProducer
}

// BuildReconciliation wires the reconcile use case from the shared
// infrastructure held by app.
func (a *App) BuildReconciliation() (*Reconciliation, error) {
	pendingRepo := postgres.NewPendingAuthorizationRepository(a.Pool)
	orderRepo := postgres.NewOrderRepository(a.Pool)
	paymentRepo := postgres.NewPaymentRepository(a.Pool)
	invoiceRepo := postgres.NewInvoiceRepository(a.Pool)
	ledgerRepo := postgres.NewLedgerRepository(a.Pool)
	outboxRepo := postgres.NewOutboxRepository(a.Pool)
	txManager := postgres.NewTxManager(a.Pool)

	gwCfg := a.Config.Gateway

	// The authorizer is deliberately not wrapped in retries: authorize calls
	// are not idempotent at the gateway.
	var (
		baseClient gateway.Client
		authorizer gateway.Authorizer
	)
	if gwCfg.UseMock {
		mock := gateway.NewMockClient()
		baseClient = mock
		authorizer = mock
	} else {
		httpClient, err := gateway.NewHTTPClient(gwCfg.Region, gwCfg.Endpoint, gwCfg.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("build gateway client: %w", err)
		}
		baseClient = httpClient
		authorizer = httpClient
	}

	retryCfg := retry.Config{
		MaxAttempts:  gwCfg.RetryMaxAttempts,
		InitialDelay: gwCfg.RetryInitialDelay,
		MaxDelay:     gwCfg.RetryMaxDelay,
		Multiplier:   2.0,
	}
	breakerSettings := gateway.DefaultBreakerSettings()
	breakerSettings.Timeout = gwCfg.BreakerTimeout
	if gwCfg.BreakerThreshold > 0 {
		breakerSettings.MinRequests = uint32(gwCfg.BreakerThreshold)
	}
	client := gateway.NewResilientClient(baseClient, retryCfg, breakerSettings)

	validator := gateway.NewValidator()
	method := gateway.NewCronMethod(authorizer, validator, a.Logger)

	streamProducer := infraRedis.NewStreamProducer(a.Redis)
	bus := events.NewBus(a.Logger)
	adminNotifier := notifier.NewAdminNotifier(streamProducer, a.Logger)
	storeSelector := stores.NewConfigSelector(a.Config)

	uc := reconcile.NewUpdateAuthorizationUseCase(
		pendingRepo,
		orderRepo,
		paymentRepo,
		invoiceRepo,
		ledgerRepo,
		txManager,
		client,
		validator,
		method,
		bus,
		adminNotifier,
		outboxRepo,
		storeSelector,
		a.Logger,
	)
	uc.SetThrowErrors(a.Config.Reconciler.ThrowErrors)

	return &Reconciliation{
		UseCase:        uc,
		Bus:            bus,
		TxManager:      txManager,
		OutboxRepo:     outboxRepo,
		PendingRepo:    pendingRepo,
		StreamProducer: streamProducer,
	}, nil
}
