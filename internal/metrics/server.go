package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// StatusReporter exposes a JSON-serializable snapshot of the monitor state.
type StatusReporter interface {
	Status() any
}

type Server struct {
	srv *http.Server
}

func NewServer(addr string, status StatusReporter) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(status),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func NewRouter(status StatusReporter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"status not available"}`))
			return
		}
		if err := json.NewEncoder(w).Encode(status.Status()); err != nil {
			log.Warnf("failed to encode status: %v", err)
		}
	})
	return r
}

func (s *Server) Start() {
	Register()
	go func() {
		log.Infof("Metrics server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server stopped: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
