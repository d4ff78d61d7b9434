package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// startHTTPServer serves router until ctx is canceled, a SIGINT/SIGTERM
// arrives or the listener fails, then shuts down gracefully.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.serve(ctx, server, server.ListenAndServe)
}

// serve runs listen in the background and shuts server down once ctx is done.
// Split out so tests can drive it with an httptest listener.
func (app *application) serve(ctx context.Context, server *http.Server, listen func() error) error {
	listenErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "addr", server.Addr)
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	var serveErr error
	select {
	case err := <-listenErr:
		if err != nil {
			app.logger.Error("Server failed", "error", err)
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("Shutting down server...")
	}

	timeout := time.Duration(app.config.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		serveErr = errors.Join(serveErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	app.cleanup()
	app.logger.Info("Server shutdown completed")
	return serveErr
}
