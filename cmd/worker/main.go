package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cassiomorais/reconciler/internal/bootstrap"
	infraRedis "github.com/cassiomorais/reconciler/internal/infrastructure/redis"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "reconciler-worker", "reconciler_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	rec, err := app.BuildReconciliation()
	if err != nil {
		app.Logger.Error().Err(err).Msg("Failed to build reconciliation wiring")
		os.Exit(1)
	}

	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.PendingStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.PendingStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Dur("poll_interval", app.Config.Reconciler.PollInterval).
		Msg("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Poller: periodically sweeps due pending authorizations.
	g.Go(func() error {
		return runPoller(gCtx, app, rec)
	})

	// 2. Stream consumer: push-style triggering from notification intake.
	g.Go(func() error {
		return runStreamConsumer(gCtx, app, rec, consumer)
	})

	// 3. Outbox processor: publishes decline events to the event stream.
	g.Go(func() error {
		return runOutboxProcessor(gCtx, app.Logger, rec, workerCfg.OutboxPollInterval)
	})

	// 4. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

// runPoller lists due pending authorizations on an interval and reconciles
// each one. A distributed lock per record keeps multiple worker instances
// from contending on the same row lock.
func runPoller(ctx context.Context, app *bootstrap.App, rec *bootstrap.Reconciliation) error {
	cfg := app.Config.Reconciler
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		olderThan := time.Now().Add(-cfg.MinAge)
		ids, err := rec.PendingRepo.ListDue(ctx, olderThan, cfg.BatchSize)
		if err != nil {
			app.Logger.Error().Err(err).Msg("Failed to list due pending authorizations")
			continue
		}

		app.Metrics.PendingAuthorizations.Set(float64(len(ids)))

		for _, id := range ids {
			reconcileOne(ctx, app, rec, id, "poller")
		}
	}
}

// runStreamConsumer reads pending-authorization ids pushed by the API's
// notification intake and reconciles them immediately.
func runStreamConsumer(
	ctx context.Context,
	app *bootstrap.App,
	rec *bootstrap.Reconciliation,
	consumer *infraRedis.StreamConsumer,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			app.Logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				idStr, _ := msg.Values["pending_id"].(string)
				id, err := uuid.Parse(idStr)
				if err != nil {
					app.Logger.Error().Str("raw", idStr).Msg("Invalid pending authorization id in stream message")
					consumer.Ack(ctx, msg.ID)
					continue
				}

				reconcileOne(ctx, app, rec, id, "stream")
				app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.PendingStream, "success").Inc()
				consumer.Ack(ctx, msg.ID)
			}
		}
	}
}

// reconcileOne runs one reconciliation under a distributed lock.
func reconcileOne(ctx context.Context, app *bootstrap.App, rec *bootstrap.Reconciliation, id uuid.UUID, path string) {
	lock := infraRedis.NewDistributedLock(app.Redis, "pending:"+id.String(), app.Config.Reconciler.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil || !acquired {
		app.Logger.Warn().Str("pending_id", id.String()).Msg("Could not acquire lock, skipping")
		return
	}
	defer lock.Release(ctx)

	start := time.Now()
	if err := rec.UseCase.Execute(ctx, id); err != nil {
		app.Logger.Error().Err(err).Str("pending_id", id.String()).Msg("Reconciliation failed")
		app.Metrics.ReconcileErrors.WithLabelValues("execute").Inc()
		return
	}
	app.Metrics.ReconciliationsTotal.WithLabelValues(path, "done").Inc()
	app.Metrics.ReconcileDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
}

// runOutboxProcessor polls the outbox table and publishes pending entries to
// the event stream.
func runOutboxProcessor(
	ctx context.Context,
	logger zerolog.Logger,
	rec *bootstrap.Reconciliation,
	pollInterval time.Duration,
) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := rec.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
			entries, err := rec.OutboxRepo.GetPending(txCtx, 10)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := rec.StreamProducer.PublishOutcomeEvent(
					ctx, entry.AggregateID.String(), entry.EventType, entry.Payload,
				); err != nil {
					logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to publish outbox event")
					rec.OutboxRepo.MarkFailed(txCtx, entry.ID)
					continue
				}
				rec.OutboxRepo.MarkPublished(txCtx, entry.ID)
			}
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("Outbox processor error")
		}
	}
}
