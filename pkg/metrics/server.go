// Package metrics exposes Prometheus metrics for the rfmap daemon
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rfmap/rfmap/pkg/logx"
)

// Server provides Prometheus metrics for rfmapd
type Server struct {
	logger *logx.Logger
	server *http.Server

	observationsTotal *prometheus.CounterVec
	fixesTotal        prometheus.Counter
	fixesRejected     *prometheus.CounterVec
	blacklistedTotal  *prometheus.CounterVec
	cacheResident     prometheus.Gauge
	cacheEvictions    prometheus.Counter
	cacheFlushes      prometheus.Counter
	cacheFlushErrors  prometheus.Counter
	synthesisOutcomes *prometheus.CounterVec
	synthesisAccuracy prometheus.Gauge
	synthesisSources  prometheus.Gauge
}

// NewServer creates a new metrics server
func NewServer(logger *logx.Logger) *Server {
	s := &Server{logger: logger}
	s.registerMetrics()
	return s
}

// registerMetrics registers all Prometheus metrics
func (s *Server) registerMetrics() {
	s.observationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfmap_observations_total",
			Help: "Total emitter observations processed",
		},
		[]string{"type"},
	)

	s.fixesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfmap_fixes_total",
			Help: "Total trusted position fixes applied",
		},
	)

	s.fixesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfmap_fixes_rejected_total",
			Help: "Trusted fixes rejected before coverage mapping",
		},
		[]string{"reason"},
	)

	s.blacklistedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfmap_blacklisted_total",
			Help: "Emitters blacklisted, by reason",
		},
		[]string{"reason"},
	)

	s.cacheResident = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rfmap_cache_resident_records",
			Help: "Emitter records currently resident in the cache",
		},
	)

	s.cacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfmap_cache_evictions_total",
			Help: "Records evicted from the cache after going idle",
		},
	)

	s.cacheFlushes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfmap_cache_flushes_total",
			Help: "Successful batched persistence flushes",
		},
	)

	s.cacheFlushErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfmap_cache_flush_errors_total",
			Help: "Failed persistence flushes (retried next sync)",
		},
	)

	s.synthesisOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfmap_synthesis_outcomes_total",
			Help: "Position synthesis passes, by outcome",
		},
		[]string{"outcome"},
	)

	s.synthesisAccuracy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rfmap_synthesis_accuracy_meters",
			Help: "Accuracy of the most recent fused location",
		},
	)

	s.synthesisSources = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rfmap_synthesis_sources",
			Help: "Emitters fused into the most recent location",
		},
	)

	prometheus.MustRegister(
		s.observationsTotal,
		s.fixesTotal,
		s.fixesRejected,
		s.blacklistedTotal,
		s.cacheResident,
		s.cacheEvictions,
		s.cacheFlushes,
		s.cacheFlushErrors,
		s.synthesisOutcomes,
		s.synthesisAccuracy,
		s.synthesisSources,
	)
}

// Start starts the metrics HTTP listener
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.healthHandler)

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	s.logger.Info("Starting metrics server", "addr", addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info("Stopping metrics server")

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// healthHandler provides a simple health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%q}`, time.Now().Format(time.RFC3339))
}

// RecordObservation counts one processed observation
func (s *Server) RecordObservation(emitterType string) {
	s.observationsTotal.With(prometheus.Labels{"type": emitterType}).Inc()
}

// RecordFix counts one applied trusted fix
func (s *Server) RecordFix() {
	s.fixesTotal.Inc()
}

// RecordFixRejected counts a rejected trusted fix
func (s *Server) RecordFixRejected(reason string) {
	s.fixesRejected.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordBlacklisted counts a blacklisted emitter
func (s *Server) RecordBlacklisted(reason string) {
	s.blacklistedTotal.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordCacheState updates the resident-record gauge
func (s *Server) RecordCacheState(resident int) {
	s.cacheResident.Set(float64(resident))
}

// RecordEvictions counts idle evictions
func (s *Server) RecordEvictions(count int) {
	s.cacheEvictions.Add(float64(count))
}

// RecordFlush counts a flush attempt outcome
func (s *Server) RecordFlush(err error) {
	if err != nil {
		s.cacheFlushErrors.Inc()
		return
	}
	s.cacheFlushes.Inc()
}

// RecordSynthesis records a synthesis pass outcome
func (s *Server) RecordSynthesis(accuracy float64, sources int, fused bool) {
	if !fused {
		s.synthesisOutcomes.With(prometheus.Labels{"outcome": "no_result"}).Inc()
		return
	}
	s.synthesisOutcomes.With(prometheus.Labels{"outcome": "fused"}).Inc()
	s.synthesisAccuracy.Set(accuracy)
	s.synthesisSources.Set(float64(sources))
}
