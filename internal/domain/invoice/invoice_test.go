package invoice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/reconciler/internal/domain/invoice"
)

func TestMarkPaid(t *testing.T) {
	inv := &invoice.Invoice{State: invoice.StateOpen}
	require.NoError(t, inv.MarkPaid())
	assert.Equal(t, invoice.StatePaid, inv.State)

	// Re-running the handler must not fail.
	require.NoError(t, inv.MarkPaid())
	assert.Equal(t, invoice.StatePaid, inv.State)
}

func TestMarkPaid_CanceledInvoice(t *testing.T) {
	inv := &invoice.Invoice{State: invoice.StateCanceled}
	assert.Error(t, inv.MarkPaid())
}

func TestMarkCanceled(t *testing.T) {
	inv := &invoice.Invoice{State: invoice.StateOpen}
	require.NoError(t, inv.MarkCanceled())
	assert.Equal(t, invoice.StateCanceled, inv.State)

	require.NoError(t, inv.MarkCanceled())
}

func TestMarkCanceled_PaidInvoice(t *testing.T) {
	inv := &invoice.Invoice{State: invoice.StatePaid}
	assert.Error(t, inv.MarkCanceled())
}

func TestSetTransactionID(t *testing.T) {
	inv := &invoice.Invoice{State: invoice.StateOpen}
	inv.SetTransactionID("C-1")
	assert.Equal(t, "C-1", inv.TransactionID)
}
