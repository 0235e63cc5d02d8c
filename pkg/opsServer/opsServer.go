package opsServer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	StatusOk       = "ok"
	StatusDegraded = "degraded"

	defaultCheckTimeout    = 2 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// HealthCheck reports nil when the dependency it probes is reachable.
type HealthCheck func(ctx context.Context) error

type OpsServerConfig struct {
	Port         int
	CheckTimeout time.Duration
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type OpsServer struct {
	config   *OpsServerConfig
	gatherer prometheus.Gatherer
	checks   map[string]HealthCheck
	router   *mux.Router
	logger   *zap.Logger
}

func NewOpsServer(cfg *OpsServerConfig, gatherer prometheus.Gatherer, checks map[string]HealthCheck, logger *zap.Logger) *OpsServer {
	if cfg.CheckTimeout == 0 {
		cfg.CheckTimeout = defaultCheckTimeout
	}
	if checks == nil {
		checks = map[string]HealthCheck{}
	}

	s := &OpsServer{
		config:   cfg,
		gatherer: gatherer,
		checks:   checks,
		logger:   logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router = router

	return s
}

func (s *OpsServer) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *OpsServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Sugar().Warnw("Ops server shutdown error", zap.Error(err))
		}
	}()

	s.logger.Sugar().Infow("Ops server started", zap.Int("port", s.config.Port))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}

func (s *OpsServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.CheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: StatusOk}
	if len(names) > 0 {
		resp.Checks = make(map[string]string, len(names))
	}
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			resp.Status = StatusDegraded
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = StatusOk
	}

	status := http.StatusOK
	if resp.Status != StatusOk {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Sugar().Warnw("Failed to write health response", zap.Error(err))
	}
}
