package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/reconciler/internal/application/reconcile"
	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/invoice"
	"github.com/cassiomorais/reconciler/internal/domain/ledger"
	"github.com/cassiomorais/reconciler/internal/domain/order"
	"github.com/cassiomorais/reconciler/internal/domain/outbox"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/cassiomorais/reconciler/internal/domain/pending"
	"github.com/cassiomorais/reconciler/internal/gateway"
	"github.com/cassiomorais/reconciler/internal/testutil"
)

type testDeps struct {
	pendingRepo *testutil.MockPendingRepository
	orderRepo   *testutil.MockOrderRepository
	paymentRepo *testutil.MockPaymentRepository
	invoiceRepo *testutil.MockInvoiceRepository
	ledger      *testutil.MockLedger
	txManager   *testutil.MockTxManager
	method      *testutil.MockPaymentMethod
	bus         *testutil.MockEventBus
	notifier    *testutil.MockNotifier
	outbox      *testutil.MockOutboxWriter
	stores      *testutil.MockStoreSelector
}

func newTestUseCase(client gateway.Client) (*reconcile.UpdateAuthorizationUseCase, *testDeps) {
	d := &testDeps{
		pendingRepo: testutil.NewMockPendingRepository(),
		orderRepo:   testutil.NewMockOrderRepository(),
		paymentRepo: testutil.NewMockPaymentRepository(),
		invoiceRepo: testutil.NewMockInvoiceRepository(),
		ledger:      testutil.NewMockLedger(),
		txManager:   &testutil.MockTxManager{},
		method:      &testutil.MockPaymentMethod{},
		bus:         &testutil.MockEventBus{},
		notifier:    &testutil.MockNotifier{},
		outbox:      &testutil.MockOutboxWriter{},
		stores:      &testutil.MockStoreSelector{},
	}
	uc := reconcile.NewUpdateAuthorizationUseCase(
		d.pendingRepo,
		d.orderRepo,
		d.paymentRepo,
		d.invoiceRepo,
		d.ledger,
		d.txManager,
		client,
		gateway.NewValidator(),
		d.method,
		d.bus,
		d.notifier,
		d.outbox,
		d.stores,
		zerolog.Nop(),
	)
	return uc, d
}

// seedOrder installs an order/payment pair in the mocks and returns both.
func seedOrder(d *testDeps) (*order.Order, *payment.Payment) {
	ord := testutil.NewTestOrder("store-1", 2500, "USD")
	pay := testutil.NewTestPayment(ord.ID, 2500, "USD")
	d.orderRepo.Add(ord)
	d.paymentRepo.Add(pay)
	return ord, pay
}

// seedLedgerTxn records the gateway transaction the storefront created when
// it submitted the request, as any update-path record has one.
func seedLedgerTxn(t *testing.T, d *testDeps, txnID string, ord *order.Order, pay *payment.Payment, txnType ledger.TxnType) {
	t.Helper()
	require.NoError(t, d.ledger.Create(context.Background(),
		ledger.NewTransaction(txnID, ord.ID, pay.ID, txnType)))
}

func TestExecute_RecordAbsent(t *testing.T) {
	uc, _ := newTestUseCase(gateway.NewMockClient())
	uc.SetThrowErrors(true)

	err := uc.Execute(context.Background(), uuid.New())
	assert.NoError(t, err)
}

func TestExecute_OrphanRecordIsSkipped(t *testing.T) {
	uc, d := newTestUseCase(gateway.NewMockClient())
	uc.SetThrowErrors(true)

	rec := testutil.NewPendingAuthorization(uuid.New(), uuid.New(), "A-1")
	rec.OrderID = nil
	d.pendingRepo.Add(rec)

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.True(t, d.pendingRepo.Has(rec.ID), "orphan record must be retained")
	assert.Empty(t, d.method.Calls)
	assert.Empty(t, d.bus.Events)
}

func TestExecute_UpdatePath_CompletedAuthorization(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithAuthState(gateway.AuthStateOpen))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	d.pendingRepo.Add(rec)
	seedLedgerTxn(t, d, "A-1", ord, pay, ledger.TypeAuthorization)

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, order.StatusProcessing, ord.Status)
	assert.False(t, d.pendingRepo.Has(rec.ID), "completed record must be deleted")
	require.Len(t, d.ledger.Comments, 1)
	assert.Equal(t, "Authorized amount of 25.00 USD online", d.ledger.Comments[0])
	assert.Empty(t, d.bus.Events)
}

func TestExecute_UpdatePath_StillPending(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithAuthState(gateway.AuthStatePending))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	d.pendingRepo.Add(rec)

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.True(t, d.pendingRepo.Has(rec.ID), "pending record must wait for the next pass")
	assert.False(t, rec.Processed)
	assert.Empty(t, d.ledger.Comments)
}

func TestExecute_UpdatePath_SoftDeclineAuthorization(t *testing.T) {
	client := gateway.NewMockClient(
		gateway.WithAuthState(gateway.AuthStateDeclined),
		gateway.WithReasonCode(gateway.ReasonInvalidPaymentMethod),
	)
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	before := ord.Status
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	d.pendingRepo.Add(rec)
	seedLedgerTxn(t, d, "A-1", ord, pay, ledger.TypeAuthorization)

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.True(t, d.pendingRepo.Has(rec.ID), "soft declined record must be retained")
	assert.True(t, rec.Processed, "retained record must flip to the new-authorization path")
	assert.Equal(t, before, ord.Status, "authorize-only soft decline leaves order status alone")
	assert.Contains(t, d.ledger.Closed, "A-1")

	require.Len(t, d.bus.Events, 1)
	assert.Equal(t, reconcile.EventSoftDeclineAfter, d.bus.Events[0].Name)
	require.Len(t, d.outbox.Entries, 1)
	assert.Equal(t, reconcile.EventSoftDeclineAfter, d.outbox.Entries[0].EventType)
}

func TestExecute_UpdatePath_SoftDeclineCaptureGoesToPaymentReview(t *testing.T) {
	client := gateway.NewMockClient(
		gateway.WithAuthState(gateway.AuthStateDeclined),
		gateway.WithReasonCode(gateway.ReasonTransactionTimedOut),
		gateway.WithCaptureID("C-1"),
	)
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	rec.CaptureID = "C-1"
	d.pendingRepo.Add(rec)
	d.invoiceRepo.Add(testutil.NewTestInvoice(ord.ID, "C-1", 2500, "USD"))
	seedLedgerTxn(t, d, "C-1", ord, pay, ledger.TypeCapture)

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, order.StatusPaymentReview, ord.Status)
	assert.True(t, d.pendingRepo.Has(rec.ID))
	assert.True(t, rec.Processed)
	assert.Contains(t, d.ledger.Closed, "C-1")
}

func TestExecute_UpdatePath_HardDeclineCapture(t *testing.T) {
	client := gateway.NewMockClient(
		gateway.WithAuthState(gateway.AuthStateDeclined),
		gateway.WithReasonCode(gateway.ReasonProcessingFailure),
		gateway.WithCaptureID("C-1"),
	)
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	rec.CaptureID = "C-1"
	d.pendingRepo.Add(rec)
	inv := testutil.NewTestInvoice(ord.ID, "C-1", 2500, "USD")
	d.invoiceRepo.Add(inv)
	seedLedgerTxn(t, d, "C-1", ord, pay, ledger.TypeCapture)

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, order.StatusOnHold, ord.Status)
	assert.Equal(t, invoice.StateCanceled, inv.State)
	assert.False(t, d.pendingRepo.Has(rec.ID), "hard declined record must be deleted")
	assert.Equal(t, []string{"C-1"}, d.notifier.Notices)

	require.Len(t, d.bus.Events, 1)
	assert.Equal(t, reconcile.EventHardDeclineAfter, d.bus.Events[0].Name)
}

func TestExecute_UpdatePath_ClosedWithCaptureCompletes(t *testing.T) {
	client := gateway.NewMockClient(
		gateway.WithAuthState(gateway.AuthStateClosed),
		gateway.WithReasonCode(gateway.ReasonMaxCapturesProcessed),
		gateway.WithCaptureID("C-1"),
	)
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	rec.CaptureID = "C-1"
	d.pendingRepo.Add(rec)
	inv := testutil.NewTestInvoice(ord.ID, "C-1", 2500, "USD")
	d.invoiceRepo.Add(inv)
	seedLedgerTxn(t, d, "C-1", ord, pay, ledger.TypeCapture)

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, invoice.StatePaid, inv.State)
	assert.Contains(t, d.ledger.Closed, "C-1")
	assert.False(t, d.pendingRepo.Has(rec.ID))
	require.Len(t, d.ledger.Comments, 1)
	assert.Equal(t, "Captured amount of 25.00 USD online", d.ledger.Comments[0])
}

func TestExecute_NewAuthPath_Success(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithOrderState(gateway.OrderStateOpen))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewProcessedAuthorization(ord.ID, pay.ID)
	d.pendingRepo.Add(rec)
	d.method.AuthorizeInCronFunc = func(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*gateway.AuthorizeResult, error) {
		return &gateway.AuthorizeResult{TransactionID: "A-new"}, nil
	}

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	require.Len(t, d.method.Calls, 1)
	assert.False(t, d.method.Calls[0].Capture)
	assert.Equal(t, pay.BaseAmountAuthorized, d.method.Calls[0].Amount)

	newTxn, err := d.ledger.GetByTxnID(context.Background(), ord.ID, "A-new")
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeAuthorization, newTxn.Type)

	assert.Equal(t, order.StatusProcessing, ord.Status)
	assert.False(t, d.pendingRepo.Has(rec.ID))
}

func TestExecute_NewAuthPath_OrderReferenceNotOpen(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithOrderState(gateway.OrderStateCanceled))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewProcessedAuthorization(ord.ID, pay.ID)
	d.pendingRepo.Add(rec)

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Empty(t, d.method.Calls, "authorization must not run against a closed order reference")
	assert.True(t, d.pendingRepo.Has(rec.ID))
}

func TestExecute_NewAuthPath_SoftDecline(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithOrderState(gateway.OrderStateOpen))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	before := ord.Status
	rec := testutil.NewProcessedAuthorization(ord.ID, pay.ID)
	rec.Capture = false
	d.pendingRepo.Add(rec)
	d.method.AuthorizeInCronFunc = func(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*gateway.AuthorizeResult, error) {
		return nil, gateway.NewSoftDecline(gateway.ReasonInvalidPaymentMethod, "declined")
	}

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.True(t, d.pendingRepo.Has(rec.ID))
	assert.Equal(t, before, ord.Status, "re-authorize declines never touch the review queue")
	require.Len(t, d.bus.Events, 1)
	assert.Equal(t, reconcile.EventSoftDeclineAfter, d.bus.Events[0].Name)
}

func TestExecute_NewAuthPath_HardDeclineSkipsInvoiceWork(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithOrderState(gateway.OrderStateOpen))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewProcessedAuthorization(ord.ID, pay.ID)
	rec.Capture = true
	rec.CaptureID = "C-1"
	d.pendingRepo.Add(rec)
	d.invoiceRepo.Add(testutil.NewTestInvoice(ord.ID, "C-1", 2500, "USD"))
	d.method.AuthorizeInCronFunc = func(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*gateway.AuthorizeResult, error) {
		return nil, gateway.NewHardDecline(gateway.ReasonRejected, nil)
	}

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	// The capture never got far enough; the decline is handled as an
	// authorize-only decline even for a capture request.
	assert.Equal(t, order.StatusOnHold, ord.Status)
	assert.False(t, d.pendingRepo.Has(rec.ID))
	assert.Empty(t, d.notifier.Notices)

	require.Len(t, d.method.Calls, 1)
	assert.True(t, d.method.Calls[0].Capture, "the authorize call itself still requests capture")
}

func TestExecute_NewAuthPath_DeclineWithoutLedgerTransaction(t *testing.T) {
	// A record declined on its first authorization attempt has no gateway
	// transaction id and no ledger row. The handler must still terminate the
	// record instead of failing on the ledger close and retrying forever.
	client := gateway.NewMockClient(gateway.WithOrderState(gateway.OrderStateOpen))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewProcessedAuthorization(ord.ID, pay.ID)
	d.pendingRepo.Add(rec)
	d.method.AuthorizeInCronFunc = func(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*gateway.AuthorizeResult, error) {
		return nil, gateway.NewHardDecline(gateway.ReasonProcessingFailure, nil)
	}

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.False(t, d.pendingRepo.Has(rec.ID), "hard declined record must be deleted, not retried")
	assert.Equal(t, order.StatusOnHold, ord.Status)
	assert.Empty(t, d.ledger.Closed, "no ledger transaction exists to close")
	require.Len(t, d.ledger.Comments, 1, "the audit comment must be written exactly once")
}

func TestExecute_NewAuthPath_CompletionFailureCompensatesLedger(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithOrderState(gateway.OrderStateOpen))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewProcessedAuthorization(ord.ID, pay.ID)
	d.pendingRepo.Add(rec)
	d.method.AuthorizeInCronFunc = func(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*gateway.AuthorizeResult, error) {
		return &gateway.AuthorizeResult{TransactionID: "A-new"}, nil
	}
	saveErr := errors.New("order save failed")
	d.orderRepo.SaveFunc = func(ctx context.Context, o *order.Order) error {
		return saveErr
	}

	err := uc.Execute(context.Background(), rec.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, saveErr)

	assert.Contains(t, d.ledger.Closed, "A-new", "dangling ledger transaction must be compensated")
}

func TestExecute_DeclineOutboxRidesLockingTransaction(t *testing.T) {
	client := gateway.NewMockClient(
		gateway.WithAuthState(gateway.AuthStateDeclined),
		gateway.WithReasonCode(gateway.ReasonInvalidPaymentMethod),
	)
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	d.pendingRepo.Add(rec)
	seedLedgerTxn(t, d, "A-1", ord, pay, ledger.TypeAuthorization)

	// Tag the transaction context the way the real TxManager carries a
	// pgx.Tx, and check the outbox insert sees the tag.
	type txMarker struct{}
	d.txManager.WithTransactionFunc = func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(context.WithValue(ctx, txMarker{}, true))
	}
	var insertedInTx bool
	d.outbox.InsertFunc = func(ctx context.Context, entry *outbox.Entry) error {
		insertedInTx, _ = ctx.Value(txMarker{}).(bool)
		return nil
	}

	err := uc.Execute(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.True(t, insertedInTx, "outbox entry must be written inside the locking transaction")
}

func TestExecute_ConcurrentSameID_SingleHandlerExecution(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithAuthState(gateway.AuthStateOpen))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	d.pendingRepo.Add(rec)
	seedLedgerTxn(t, d, "A-1", ord, pay, ledger.TypeAuthorization)

	// Stand in for the row lock: transactions on the same record serialize,
	// and no two may overlap.
	var mu sync.Mutex
	var inTx, maxInTx int32
	d.txManager.WithTransactionFunc = func(ctx context.Context, fn func(ctx context.Context) error) error {
		mu.Lock()
		defer mu.Unlock()
		n := atomic.AddInt32(&inTx, 1)
		if n > atomic.LoadInt32(&maxInTx) {
			atomic.StoreInt32(&maxInTx, n)
		}
		defer atomic.AddInt32(&inTx, -1)
		return fn(ctx)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = uc.Execute(context.Background(), rec.ID)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), maxInTx, "transactions for the same record must not overlap")

	// The first invocation completes and deletes the record; the second
	// finds it gone and is a no-op.
	assert.False(t, d.pendingRepo.Has(rec.ID))
	require.Len(t, d.ledger.Comments, 1, "exactly one handler execution")
	assert.Equal(t, order.StatusProcessing, ord.Status)
}

func TestExecute_ThrowErrorsToggle(t *testing.T) {
	uc, d := newTestUseCase(gateway.NewMockClient())

	bootErr := errors.New("db down")
	d.pendingRepo.GetForUpdateFunc = func(ctx context.Context, id uuid.UUID) (*pending.Authorization, error) {
		return nil, bootErr
	}

	// Default: swallowed after logging.
	assert.NoError(t, uc.Execute(context.Background(), uuid.New()))

	uc.SetThrowErrors(true)
	err := uc.Execute(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, bootErr)
}

func TestExecute_GatewayFetchFailureRollsBack(t *testing.T) {
	client := gateway.NewMockClient(gateway.WithFailureRate(1.0))
	uc, d := newTestUseCase(client)
	uc.SetThrowErrors(true)

	ord, pay := seedOrder(d)
	rec := testutil.NewPendingAuthorization(ord.ID, pay.ID, "A-1")
	d.pendingRepo.Add(rec)

	err := uc.Execute(context.Background(), rec.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)

	assert.True(t, d.pendingRepo.Has(rec.ID))
	assert.False(t, rec.Processed)
	assert.Empty(t, d.bus.Events)
}
