package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/reconciler/internal/bootstrap"
	appHTTP "github.com/cassiomorais/reconciler/internal/interfaces/http"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "reconciler-api", "reconciler")
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

	// Synchronous callers want to see failures, not swallowed logs.
	rec.UseCase.SetThrowErrors(true)

	router := appHTTP.NewRouter(appHTTP.RouterDeps{
		Pool:           app.Pool,
		RedisClient:    app.Redis,
		Reconciler:     rec.UseCase,
		Enqueuer:       rec.StreamProducer,
		Metrics:        app.Metrics,
		Logger:         app.Logger,
		CORSConfig:     app.Config.Server.CORS,
		RequestsPerMin: app.Config.Server.RequestsPerMin,
	})

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
