// Package notifier raises admin-facing notices for reconciliation outcomes.
package notifier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cassiomorais/reconciler/internal/domain/order"
	redisinfra "github.com/cassiomorais/reconciler/internal/infrastructure/redis"
)

const noticeCaptureDeclined = "capture_declined"

// AdminNotifier publishes notices onto the notice stream so back-office
// tooling can surface them. Publishing failures are reported to the caller,
// who decides whether the reconciliation proceeds.
type AdminNotifier struct {
	producer *redisinfra.StreamProducer
	logger   zerolog.Logger
}

func NewAdminNotifier(producer *redisinfra.StreamProducer, logger zerolog.Logger) *AdminNotifier {
	return &AdminNotifier{
		producer: producer,
		logger:   logger.With().Str("component", "notifier").Logger(),
	}
}

func (n *AdminNotifier) CaptureDeclined(ctx context.Context, ord *order.Order, txnID string) error {
	data := map[string]any{
		"order_id":       ord.ID.String(),
		"increment_id":   ord.IncrementID,
		"transaction_id": txnID,
		"message":        fmt.Sprintf("Capture declined by the payment gateway for order %s", ord.IncrementID),
	}

	if err := n.producer.PublishNotice(ctx, noticeCaptureDeclined, data); err != nil {
		return fmt.Errorf("failed to raise capture declined notice: %w", err)
	}

	n.logger.Info().
		Str("order_id", ord.ID.String()).
		Str("transaction_id", txnID).
		Msg("capture declined notice raised")

	return nil
}

// LogNotifier writes notices to the structured log only. Used when no
// notice stream is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) CaptureDeclined(_ context.Context, ord *order.Order, txnID string) error {
	n.logger.Warn().
		Str("order_id", ord.ID.String()).
		Str("increment_id", ord.IncrementID).
		Str("transaction_id", txnID).
		Msg("capture declined by the payment gateway")
	return nil
}
