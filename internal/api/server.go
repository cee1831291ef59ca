// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/okonrad/cinegraph/internal/config"
	"github.com/okonrad/cinegraph/internal/logging"
)

// Server runs the HTTP listener as a supervised service: Serve blocks
// until the context is canceled, then drains in-flight requests.
type Server struct {
	httpServer      *http.Server
	addr            string
	shutdownTimeout time.Duration
}

// NewServer creates the HTTP server around the given handler.
func NewServer(handler http.Handler, cfg config.ServerConfig) *Server {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * timeout,
		},
		addr:            addr,
		shutdownTimeout: 30 * time.Second,
	}
}

// Serve implements suture.Service. It returns the context's error after
// a graceful shutdown, or the listener's error if serving fails.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.addr).Msg("http server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("http server shutdown incomplete")
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// String implements fmt.Stringer for supervision logs.
func (s *Server) String() string {
	return "http-server"
}
