// Package testutil provides in-memory mocks and fixtures shared by tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/invoice"
	"github.com/cassiomorais/reconciler/internal/domain/ledger"
	"github.com/cassiomorais/reconciler/internal/domain/order"
	"github.com/cassiomorais/reconciler/internal/domain/outbox"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/cassiomorais/reconciler/internal/domain/pending"
	"github.com/cassiomorais/reconciler/internal/events"
	"github.com/cassiomorais/reconciler/internal/gateway"
)

// --- Pending Authorization Repository Mock ---

// MockPendingRepository is a mock implementation of pending.Repository.
type MockPendingRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*pending.Authorization
	Deleted []uuid.UUID
	Saved   []*pending.Authorization

	GetForUpdateFunc func(ctx context.Context, id uuid.UUID) (*pending.Authorization, error)
	SaveFunc         func(ctx context.Context, a *pending.Authorization) error
	DeleteFunc       func(ctx context.Context, id uuid.UUID) error
	ListDueFunc      func(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error)
}

func NewMockPendingRepository() *MockPendingRepository {
	return &MockPendingRepository{records: make(map[uuid.UUID]*pending.Authorization)}
}

func (m *MockPendingRepository) Add(a *pending.Authorization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[a.ID] = a
}

func (m *MockPendingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*pending.Authorization, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok {
		return nil, domainErrors.ErrPendingAuthNotFound
	}
	return a, nil
}

func (m *MockPendingRepository) Save(ctx context.Context, a *pending.Authorization) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[a.ID] = a
	m.Saved = append(m.Saved, a)
	return nil
}

func (m *MockPendingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockPendingRepository) ListDue(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, olderThan, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, rec := range m.records {
		if rec.OrderID != nil && !rec.UpdatedAt.After(olderThan) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Has reports whether the record is still present.
func (m *MockPendingRepository) Has(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok
}

// --- Order Repository Mock ---

// MockOrderRepository is a mock implementation of order.Repository.
type MockOrderRepository struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*order.Order
	comments map[uuid.UUID][]*order.Comment

	GetByIDFunc     func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	SaveFunc        func(ctx context.Context, o *order.Order) error
	AddCommentFunc  func(ctx context.Context, c *order.Comment) error
	GetCommentsFunc func(ctx context.Context, orderID uuid.UUID) ([]*order.Comment, error)
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[uuid.UUID]*order.Order),
		comments: make(map[uuid.UUID][]*order.Comment),
	}
}

func (m *MockOrderRepository) Add(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *MockOrderRepository) AddComment(ctx context.Context, c *order.Comment) error {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[c.OrderID] = append(m.comments[c.OrderID], c)
	return nil
}

func (m *MockOrderRepository) GetComments(ctx context.Context, orderID uuid.UUID) ([]*order.Comment, error) {
	if m.GetCommentsFunc != nil {
		return m.GetCommentsFunc(ctx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comments[orderID], nil
}

// --- Payment Repository Mock ---

// MockPaymentRepository is a mock implementation of payment.Repository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment

	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	SaveFunc    func(ctx context.Context, p *payment.Payment) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[uuid.UUID]*payment.Payment)}
}

func (m *MockPaymentRepository) Add(p *payment.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

// --- Invoice Repository Mock ---

// MockInvoiceRepository is a mock implementation of invoice.Repository.
type MockInvoiceRepository struct {
	mu       sync.Mutex
	invoices map[string]*invoice.Invoice

	GetByTransactionIDFunc func(ctx context.Context, orderID uuid.UUID, txnID string) (*invoice.Invoice, error)
	SaveFunc               func(ctx context.Context, inv *invoice.Invoice) error
}

func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{invoices: make(map[string]*invoice.Invoice)}
}

func invoiceKey(orderID uuid.UUID, txnID string) string {
	return orderID.String() + "/" + txnID
}

func (m *MockInvoiceRepository) Add(inv *invoice.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[invoiceKey(inv.OrderID, inv.TransactionID)] = inv
}

func (m *MockInvoiceRepository) GetByTransactionID(ctx context.Context, orderID uuid.UUID, txnID string) (*invoice.Invoice, error) {
	if m.GetByTransactionIDFunc != nil {
		return m.GetByTransactionIDFunc(ctx, orderID, txnID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[invoiceKey(orderID, txnID)]
	if !ok {
		return nil, domainErrors.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, inv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[invoiceKey(inv.OrderID, inv.TransactionID)] = inv
	return nil
}

// --- Transaction Ledger Mock ---

// MockLedger is a mock implementation of ledger.TransactionLedger.
type MockLedger struct {
	mu       sync.Mutex
	txns     map[string]*ledger.Transaction
	Closed   []string
	Comments []string

	CreateFunc       func(ctx context.Context, txn *ledger.Transaction) error
	GetByTxnIDFunc   func(ctx context.Context, orderID uuid.UUID, txnID string) (*ledger.Transaction, error)
	CloseByTxnIDFunc func(ctx context.Context, orderID uuid.UUID, txnID string) error
	AddCommentFunc   func(ctx context.Context, orderID uuid.UUID, txnID, message string) error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{txns: make(map[string]*ledger.Transaction)}
}

func ledgerKey(orderID uuid.UUID, txnID string) string {
	return orderID.String() + "/" + txnID
}

func (m *MockLedger) Create(ctx context.Context, txn *ledger.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[ledgerKey(txn.OrderID, txn.TxnID)] = txn
	return nil
}

func (m *MockLedger) GetByTxnID(ctx context.Context, orderID uuid.UUID, txnID string) (*ledger.Transaction, error) {
	if m.GetByTxnIDFunc != nil {
		return m.GetByTxnIDFunc(ctx, orderID, txnID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[ledgerKey(orderID, txnID)]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	return txn, nil
}

// CloseByTxnID mirrors the repository contract: closing a transaction that
// does not exist is an error, not a no-op.
func (m *MockLedger) CloseByTxnID(ctx context.Context, orderID uuid.UUID, txnID string) error {
	if m.CloseByTxnIDFunc != nil {
		return m.CloseByTxnIDFunc(ctx, orderID, txnID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[ledgerKey(orderID, txnID)]
	if !ok {
		return domainErrors.ErrTransactionNotFound
	}
	txn.Close()
	m.Closed = append(m.Closed, txnID)
	return nil
}

func (m *MockLedger) AddComment(ctx context.Context, orderID uuid.UUID, txnID, message string) error {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, orderID, txnID, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Comments = append(m.Comments, message)
	return nil
}

// --- Transaction Manager Mock ---

// MockTxManager runs the function directly without a real transaction.
type MockTxManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *MockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Payment Method Mock ---

// MockPaymentMethod is a scriptable cron-context payment method.
type MockPaymentMethod struct {
	mu    sync.Mutex
	Calls []MethodCall

	AuthorizeInCronFunc func(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*gateway.AuthorizeResult, error)
}

// MethodCall records one AuthorizeInCron invocation.
type MethodCall struct {
	PaymentID uuid.UUID
	Amount    payment.Amount
	Capture   bool
}

func (m *MockPaymentMethod) AuthorizeInCron(ctx context.Context, p *payment.Payment, amount payment.Amount, capture bool) (*gateway.AuthorizeResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MethodCall{PaymentID: p.ID, Amount: amount, Capture: capture})
	m.mu.Unlock()

	if m.AuthorizeInCronFunc != nil {
		return m.AuthorizeInCronFunc(ctx, p, amount, capture)
	}
	return &gateway.AuthorizeResult{TransactionID: "A-mock"}, nil
}

// --- Event Bus Mock ---

// MockEventBus records dispatched events.
type MockEventBus struct {
	mu     sync.Mutex
	Events []DispatchedEvent

	DispatchFunc func(ctx context.Context, name string, payload events.Payload)
}

// DispatchedEvent records one Dispatch invocation.
type DispatchedEvent struct {
	Name    string
	Payload events.Payload
}

func (m *MockEventBus) Dispatch(ctx context.Context, name string, payload events.Payload) {
	if m.DispatchFunc != nil {
		m.DispatchFunc(ctx, name, payload)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, DispatchedEvent{Name: name, Payload: payload})
}

// --- Notifier Mock ---

// MockNotifier records capture-declined notices.
type MockNotifier struct {
	mu      sync.Mutex
	Notices []string

	CaptureDeclinedFunc func(ctx context.Context, ord *order.Order, txnID string) error
}

func (m *MockNotifier) CaptureDeclined(ctx context.Context, ord *order.Order, txnID string) error {
	if m.CaptureDeclinedFunc != nil {
		return m.CaptureDeclinedFunc(ctx, ord, txnID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notices = append(m.Notices, txnID)
	return nil
}

// --- Outbox Writer Mock ---

// MockOutboxWriter records inserted outbox entries.
type MockOutboxWriter struct {
	mu      sync.Mutex
	Entries []*outbox.Entry

	InsertFunc func(ctx context.Context, entry *outbox.Entry) error
}

func (m *MockOutboxWriter) Insert(ctx context.Context, entry *outbox.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

// --- Store Selector Mock ---

// MockStoreSelector passes the context through unchanged.
type MockStoreSelector struct {
	SelectStoreFunc func(ctx context.Context, storeID string) (context.Context, error)
}

func (m *MockStoreSelector) SelectStore(ctx context.Context, storeID string) (context.Context, error) {
	if m.SelectStoreFunc != nil {
		return m.SelectStoreFunc(ctx, storeID)
	}
	return ctx, nil
}
