package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	applog "budgetx/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks storage and the model gateways, and reports the
// in-process state of the cache and the rate limiter alongside.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, httpStatus := "ready", http.StatusOK
	checks := make(map[string]any)

	if s.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.storage.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				applog.FieldError, err, applog.FieldComponent, applog.ComponentStorage)
			checks["storage"] = "storage unreachable"
			status, httpStatus = "unavailable", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "not_configured"
	}

	if s.receipts == nil || s.advisor == nil {
		checks["model"] = "model not configured"
		status, httpStatus = "unavailable", http.StatusServiceUnavailable
	} else {
		checks["model"] = "ok"
	}

	checks["cache"] = s.budget.CacheStats()
	checks["rate_limiter"] = map[string]int{"active_clients": s.limiter.ActiveClients()}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	cacheStats := s.budget.CacheStats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	metric(w, "budget_entries", "gauge", "Entries currently stored", len(s.budget.Entries()))
	metric(w, "budget_revision", "gauge", "Store revision reached by mutations", s.budget.Revision())
	metric(w, "summary_cache_hits_total", "counter", "Summary cache hits", cacheStats.Hits)
	metric(w, "summary_cache_misses_total", "counter", "Summary cache misses", cacheStats.Misses)
	metric(w, "summary_cache_entries", "gauge", "Summaries currently cached", cacheStats.Size)
	metric(w, "rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter", s.limiter.Rejected())
	metric(w, "active_rate_limit_clients", "gauge", "Clients tracked by the rate limiter", s.limiter.ActiveClients())
	metric(w, "suspicious_requests_total", "counter", "Requests flagged by the detector", s.detector.SuspiciousRequests())
	metric(w, "uptime_seconds", "gauge", "Seconds since the server was created", int64(time.Since(s.startedAt).Seconds()))
}

func metric(w http.ResponseWriter, name, kind, help string, value any) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
}
