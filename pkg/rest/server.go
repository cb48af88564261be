/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/zjucst/food-gateway/pkg/config"
	"github.com/zjucst/food-gateway/pkg/ledger"
	"github.com/zjucst/food-gateway/pkg/metrics"
)

// NewRouter returns the gateway HTTP handler: the route table, the metrics
// endpoint, request logging and CORS.
func NewRouter(opts *config.Options, client ledger.Client, m *metrics.Provider) http.Handler {
	router := mux.NewRouter()
	router.Use(logRequests)

	NewHandler(client, m, opts.Server.MaxBodyBytes).Register(router)

	if opts.Metrics.Enabled {
		router.Handle(opts.Metrics.Path, m.Handler()).Methods(http.MethodGet)
	}

	return cors.New(cors.Options{
		AllowedOrigins: opts.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{ErrorHeader},
	}).Handler(router)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Infof("%s %s %d %s", r.Method, r.URL.RequestURI(), rec.status, time.Since(start))
	})
}

// Server is the gateway HTTP server
type Server struct {
	httpServer *http.Server
}

// NewServer returns a server for handler configured from opts
func NewServer(opts config.Server, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Address,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
	}
}

// ListenAndServe listens on the configured address until Shutdown is called
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.httpServer.Addr)
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown is called
func (s *Server) Serve(l net.Listener) error {
	logger.Infof("Starting REST gateway on %s", l.Addr())
	if err := s.httpServer.Serve(l); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "REST gateway stopped")
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight requests to finish
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Stopping REST gateway")
	return s.httpServer.Shutdown(ctx)
}
