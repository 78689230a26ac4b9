// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

// Package server exposes the account directory over an HTTP API.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/realmdir/realmdir/internal/observability"
)

// Options configure the HTTP server.
type Options struct {
	// Addr is the listen address in "host:port" format.
	Addr string

	// AdminUser and AdminPassword gate the API behind basic auth. An
	// empty AdminUser disables the gate.
	AdminUser     string
	AdminPassword string
}

// Server serves the directory API.
type Server struct {
	opts       Options
	handler    *Handler
	logger     *slog.Logger
	metrics    *observability.Metrics
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// New creates an HTTP server around the given handler.
func New(opts Options, handler *Handler, logger *slog.Logger) (*Server, error) {
	if handler == nil {
		return nil, oops.Errorf("handler is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Server{
		opts:    opts,
		handler: handler,
		logger:  logger,
		metrics: handler.metrics,
	}, nil
}

// Routes assembles the route table with the middleware chain applied. The
// chain wraps the router itself so the CORS preflight answer and the auth
// gate apply to every request, matched or not.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Handle("/accounts", s.instrument("/v1/accounts", s.handler.listAccounts)).Methods(http.MethodGet)
	v1.Handle("/accounts", s.instrument("/v1/accounts", s.handler.createAccount)).Methods(http.MethodPost)
	v1.Handle("/accounts/check-username", s.instrument("/v1/accounts/check-username", s.handler.checkUsername)).Methods(http.MethodGet)
	v1.Handle("/accounts/password", s.instrument("/v1/accounts/password", s.handler.setPassword)).Methods(http.MethodPost)
	v1.Handle("/accounts/{id}", s.instrument("/v1/accounts/{id}", s.handler.getAccount)).Methods(http.MethodGet)
	v1.Handle("/accounts/{id}", s.instrument("/v1/accounts/{id}", s.handler.deleteAccount)).Methods(http.MethodDelete)
	v1.Handle("/accounts/{id}/grants", s.instrument("/v1/accounts/{id}/grants", s.handler.accountGrants)).Methods(http.MethodGet)
	v1.Handle("/accounts/{id}/realm-characters", s.instrument("/v1/accounts/{id}/realm-characters", s.handler.realmCharacters)).Methods(http.MethodGet)

	var h http.Handler = r
	h = BasicAuth(s.opts.AdminUser, s.opts.AdminPassword)(h)
	h = CORS(h)
	h = Logging(s.logger)(h)
	h = Recovery(s.logger)(h)
	h = RequestID(h)
	return h
}

// instrument records request latency under the route template, not the
// expanded path, keeping label cardinality bounded.
func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next(w, r)
			return
		}
		start := time.Now()
		next(w, r)
		s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Start begins serving the API. It returns an error channel that receives
// any failure from the HTTP server after startup; the channel is closed on
// graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.opts.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("http server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("http server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown http server").Wrap(err)
		}
	}

	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the address the server is listening on, or "" if stopped.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
