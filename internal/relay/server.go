// Package relay implements the local timestamp relay: a producer pushes the
// player's current absolute timestamp, a consumer polls the latest value, and
// a one-shot redirect instruction can travel back to the producer inside the
// next push acknowledgment.
package relay

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Journal receives a copy of every accepted push. Implementations must not
// block the request path for long.
type Journal interface {
	Append(v any) error
}

// Broadcaster fans an event payload out to connected live-event clients.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// NewRouter builds the relay's HTTP handler. events may be nil to disable
// the /events endpoint.
func NewRouter(server *Server, events http.HandlerFunc, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(requestLogger(logger))

	r.Get("/ping", server.handlePing)
	r.Post("/update", server.handleUpdate)
	r.Post("/redirect", server.handleRedirect)
	r.Handle("/metrics", promhttp.Handler())
	if events != nil {
		r.Get("/events", events)
	}

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(notFoundHandler)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
			)
		})
	}
}

// Service owns the relay's TCP binding. Start reports a bind conflict to the
// caller instead of retrying; after a failed Start the service is not
// running. Rebinding to a different port requires Shutdown then a new
// Service.
type Service struct {
	addr    string
	handler http.Handler
	logger  *zap.Logger
	srv     *http.Server
}

func NewService(addr string, handler http.Handler, logger *zap.Logger) *Service {
	return &Service{addr: addr, handler: handler, logger: logger}
}

// Start binds the port and begins serving in the background. The returned
// error is nil only if the listener was acquired.
func (s *Service) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}

	s.srv = &http.Server{Handler: s.handler}

	go func() {
		s.logger.Info("relay listening", zap.String("addr", ln.Addr().String()))
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("relay server error", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown drains in-flight requests and releases the binding.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
