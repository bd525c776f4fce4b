// Package api serves the management HTTP surface over which an operator
// initializes the server, and creates/lists/deletes tokens, plugins, and
// credentials.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stacklok/acp/pkg/logger"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Serve starts the management HTTP server on address and blocks until ctx
// is canceled, at which point it shuts down gracefully.
func Serve(ctx context.Context, address string, deps Deps) error {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Timeout(middlewareTimeout),
	)
	r.Mount("/", Router(deps))
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              address,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Infof("starting management server on %s", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panicf("management server stopped with error: %v", err)
		}
	}()

	<-ctx.Done()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("management server shutdown failed: %w", err)
	}

	logger.Infof("management server stopped")
	return nil
}
