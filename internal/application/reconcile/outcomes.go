package reconcile

import (
	"context"
	"fmt"

	"github.com/cassiomorais/reconciler/internal/domain/ledger"
	"github.com/cassiomorais/reconciler/internal/domain/order"
	"github.com/cassiomorais/reconciler/internal/domain/outbox"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/cassiomorais/reconciler/internal/domain/pending"
	"github.com/cassiomorais/reconciler/internal/events"
)

// softDeclineOrderStatus is the explicit policy for which soft declines move
// the order: capture declines go to the payment review queue, authorize-only
// declines leave the order status untouched.
var softDeclineOrderStatus = map[bool]order.Status{
	true: order.StatusPaymentReview,
}

// completePendingAuthorization finalizes a successful authorization or
// capture: order to processing, invoice paid (captures), audit comment on the
// ledger transaction, pending record deleted.
func (uc *UpdateAuthorizationUseCase) completePendingAuthorization(
	ctx, txCtx context.Context,
	ord *order.Order,
	pay *payment.Payment,
	rec *pending.Authorization,
	capture bool,
	createdTxn *ledger.Transaction,
) error {
	txnID := resolveTxnID(rec, capture)

	if err := ord.MarkProcessing(); err != nil {
		return err
	}

	var message string
	if capture {
		inv, err := uc.invoiceRepo.GetByTransactionID(ctx, ord.ID, txnID)
		if err != nil {
			return fmt.Errorf("load invoice for capture %s: %w", txnID, err)
		}
		if err := inv.MarkPaid(); err != nil {
			return err
		}
		if createdTxn == nil {
			// The ledger transaction pre-existed; close it out explicitly.
			if err := uc.ledger.CloseByTxnID(ctx, ord.ID, txnID); err != nil {
				return fmt.Errorf("close ledger transaction %s: %w", txnID, err)
			}
		} else {
			inv.SetTransactionID(createdTxn.TxnID)
		}
		if err := uc.invoiceRepo.Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		message = fmt.Sprintf("Captured amount of %s online", inv.BaseGrandTotal)
	} else {
		message = fmt.Sprintf("Authorized amount of %s online", pay.BaseAmountAuthorized)
	}

	txn := createdTxn
	if txn == nil {
		var err error
		txn, err = uc.ledger.GetByTxnID(ctx, ord.ID, txnID)
		if err != nil {
			return fmt.Errorf("resolve ledger transaction %s: %w", txnID, err)
		}
	}
	if err := uc.ledger.AddComment(ctx, ord.ID, txn.TxnID, message); err != nil {
		return fmt.Errorf("add order comment: %w", err)
	}

	if err := uc.pendingRepo.Delete(txCtx, rec.ID); err != nil {
		return fmt.Errorf("delete pending authorization: %w", err)
	}
	if err := uc.orderRepo.Save(ctx, ord); err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	uc.logger.Info().
		Str("pending_id", rec.ID.String()).
		Str("order_id", ord.ID.String()).
		Str("txn_id", txnID).
		Bool("capture", capture).
		Msg("Pending authorization completed")
	return nil
}

// softDeclinePendingAuthorization records a transient decline: the pending
// record is retained (marked processed) so the next pass retries.
func (uc *UpdateAuthorizationUseCase) softDeclinePendingAuthorization(
	ctx, txCtx context.Context,
	ord *order.Order,
	pay *payment.Payment,
	rec *pending.Authorization,
	capture bool,
) error {
	txnID := resolveTxnID(rec, capture)

	var message string
	if capture {
		inv, err := uc.invoiceRepo.GetByTransactionID(ctx, ord.ID, txnID)
		if err != nil {
			return fmt.Errorf("load invoice for capture %s: %w", txnID, err)
		}
		message = fmt.Sprintf("Declined amount of %s online", inv.BaseGrandTotal)
	} else {
		message = fmt.Sprintf("Declined amount of %s online", pay.BaseAmountAuthorized)
	}

	if status, ok := softDeclineOrderStatus[capture]; ok {
		if err := ord.TransitionTo(status); err != nil {
			return err
		}
	}

	if err := uc.ledger.AddComment(ctx, ord.ID, txnID, message); err != nil {
		return fmt.Errorf("add order comment: %w", err)
	}
	// A record declined on its first authorization attempt has no gateway
	// transaction yet, so there is nothing to close.
	if txnID != "" {
		if err := uc.ledger.CloseByTxnID(ctx, ord.ID, txnID); err != nil {
			return fmt.Errorf("close ledger transaction %s: %w", txnID, err)
		}
	}

	rec.MarkProcessed()
	if err := uc.pendingRepo.Save(txCtx, rec); err != nil {
		return fmt.Errorf("save pending authorization: %w", err)
	}
	if err := uc.orderRepo.Save(ctx, ord); err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	uc.dispatchDecline(ctx, txCtx, EventSoftDeclineAfter, ord, rec)

	uc.logger.Info().
		Str("pending_id", rec.ID.String()).
		Str("order_id", ord.ID.String()).
		Str("txn_id", txnID).
		Bool("capture", capture).
		Msg("Pending authorization soft declined, retained for retry")
	return nil
}

// hardDeclinePendingAuthorization records a permanent decline: invoice
// canceled (captures), order on hold, pending record deleted.
func (uc *UpdateAuthorizationUseCase) hardDeclinePendingAuthorization(
	ctx, txCtx context.Context,
	ord *order.Order,
	pay *payment.Payment,
	rec *pending.Authorization,
	capture bool,
) error {
	txnID := resolveTxnID(rec, capture)

	var message string
	if capture {
		inv, err := uc.invoiceRepo.GetByTransactionID(ctx, ord.ID, txnID)
		if err != nil {
			return fmt.Errorf("load invoice for capture %s: %w", txnID, err)
		}
		if err := inv.MarkCanceled(); err != nil {
			return err
		}
		if err := uc.invoiceRepo.Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		message = fmt.Sprintf("Declined amount of %s online", inv.BaseGrandTotal)

		if err := uc.notifier.CaptureDeclined(ctx, ord, txnID); err != nil {
			uc.logger.Warn().
				Err(err).
				Str("order_id", ord.ID.String()).
				Msg("Failed to raise capture-declined notice")
		}
	} else {
		message = fmt.Sprintf("Declined amount of %s online", pay.BaseAmountAuthorized)
	}

	if err := ord.MarkOnHold(); err != nil {
		return err
	}

	if err := uc.ledger.AddComment(ctx, ord.ID, txnID, message); err != nil {
		return fmt.Errorf("add order comment: %w", err)
	}
	// As in the soft-decline handler, first-attempt records have no gateway
	// transaction to close.
	if txnID != "" {
		if err := uc.ledger.CloseByTxnID(ctx, ord.ID, txnID); err != nil {
			return fmt.Errorf("close ledger transaction %s: %w", txnID, err)
		}
	}

	if err := uc.pendingRepo.Delete(txCtx, rec.ID); err != nil {
		return fmt.Errorf("delete pending authorization: %w", err)
	}
	if err := uc.orderRepo.Save(ctx, ord); err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	uc.dispatchDecline(ctx, txCtx, EventHardDeclineAfter, ord, rec)

	uc.logger.Info().
		Str("pending_id", rec.ID.String()).
		Str("order_id", ord.ID.String()).
		Str("txn_id", txnID).
		Bool("capture", capture).
		Msg("Pending authorization hard declined, order on hold")
	return nil
}

// dispatchDecline publishes the decline event in-process and writes it to the
// outbox for downstream consumers. The outbox entry rides the locking
// transaction so it commits and rolls back with the pending record.
func (uc *UpdateAuthorizationUseCase) dispatchDecline(
	ctx, txCtx context.Context,
	eventName string,
	ord *order.Order,
	rec *pending.Authorization,
) {
	uc.bus.Dispatch(ctx, eventName, events.Payload{
		Order:                ord,
		PendingAuthorization: rec,
	})

	entry := outbox.NewOrderEntry(ord.ID, eventName, map[string]any{
		"order_id":     ord.ID.String(),
		"increment_id": ord.IncrementID,
		"pending_id":   rec.ID.String(),
		"capture":      rec.Capture,
		"order_status": string(ord.Status),
	})
	if err := uc.outbox.Insert(txCtx, entry); err != nil {
		uc.logger.Error().
			Err(err).
			Str("order_id", ord.ID.String()).
			Str("event", eventName).
			Msg("Failed to write outbox entry")
	}
}
