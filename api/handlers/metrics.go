package handlers

import (
	"net/http"

	"github.com/miraclemessages/mm-case-api/api"
)

// Metrics exposes the request metrics collected by the request logger
type Metrics struct {
	Collector *api.MetricsCollector
}

// formatRouteMetrics converts duration fields to milliseconds for JSON serialization
func formatRouteMetrics(routes []api.RouteMetrics) []map[string]interface{} {
	result := make([]map[string]interface{}, len(routes))
	for i, route := range routes {
		result[i] = map[string]interface{}{
			"method":      route.Method,
			"path":        route.Path,
			"count":       route.Count,
			"errorCount":  route.ErrorCount,
			"avgTime":     route.AvgTime.Milliseconds(),
			"minTime":     route.MinTime.Milliseconds(),
			"maxTime":     route.MaxTime.Milliseconds(),
			"lastRequest": route.LastRequest,
		}
	}
	return result
}

// MetricsHandler returns the request summary and per-route metrics
func (m Metrics) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if m.Collector == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"routes": []interface{}{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": m.Collector.Summary(),
		"routes":  formatRouteMetrics(m.Collector.Routes()),
	})
}
