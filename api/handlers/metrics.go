package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/talowa/referral-api/api"
)

// Metrics handles metrics requests
type Metrics struct{}

// GetDashboardHandler returns the summary and the per-route aggregates in
// one payload
func (m Metrics) GetDashboardHandler(w http.ResponseWriter, r *http.Request) {
	collector := api.GetMetrics()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"summary": collector.GetSummary(),
		"routes":  collector.GetRouteMetrics(),
	})
}

// GetSummaryHandler returns overall request metrics for the service
func (m Metrics) GetSummaryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(api.GetMetrics().GetSummary())
}

// GetRouteMetricsHandler returns per-route aggregates with durations in
// milliseconds for readability
func (m Metrics) GetRouteMetricsHandler(w http.ResponseWriter, r *http.Request) {
	routes := api.GetMetrics().GetRouteMetrics()

	formatted := make(map[string]interface{}, len(routes))
	for key, rm := range routes {
		formatted[key] = map[string]interface{}{
			"method":      rm.Method,
			"path":        rm.Path,
			"count":       rm.Count,
			"errorCount":  rm.ErrorCount,
			"avgTimeMs":   rm.AvgTime.Milliseconds(),
			"minTimeMs":   rm.MinTime.Milliseconds(),
			"maxTimeMs":   rm.MaxTime.Milliseconds(),
			"p95TimeMs":   rm.P95Time.Milliseconds(),
			"lastRequest": rm.LastRequest,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"routes": formatted})
}
