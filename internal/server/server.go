// Package server provides the HTTP skeleton shared by every service
// binary: router assembly, JSON responses, health checks, and a listener
// with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// BindError reports a failure to bind the listen address. The CLI maps it
// to exit code 2.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// IsBindError reports whether err is a listener bind failure.
func IsBindError(err error) bool {
	var bindErr *BindError
	return errors.As(err, &bindErr)
}

// Run binds the address and serves handler until ctx is cancelled, then
// shuts down gracefully. In-flight requests get shutdownGrace to finish.
func Run(ctx context.Context, logger zerolog.Logger, bind string, handler http.Handler) error {
	const shutdownGrace = 10 * time.Second

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return &BindError{Addr: bind, Err: err}
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("listening")

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
