package api

import (
	"sort"
	"sync"
	"time"
)

// RouteMetrics aggregates requests for one route template
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector collects and aggregates request metrics in memory
type MetricsCollector struct {
	mu            sync.RWMutex
	routes        map[string]*RouteMetrics
	windowStart   time.Time
	totalRequests int64
	totalErrors   int64
}

// NewMetricsCollector returns an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		routes:      make(map[string]*RouteMetrics),
		windowStart: time.Now(),
	}
}

// Record adds one finished request
func (mc *MetricsCollector) Record(method, path string, status int, d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := method + " " + path
	rm, ok := mc.routes[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Path: path, MinTime: d}
		mc.routes[key] = rm
	}
	rm.Count++
	rm.TotalTime += d
	rm.AvgTime = rm.TotalTime / time.Duration(rm.Count)
	if d < rm.MinTime {
		rm.MinTime = d
	}
	if d > rm.MaxTime {
		rm.MaxTime = d
	}
	rm.LastRequest = time.Now()

	mc.totalRequests++
	if status >= 400 {
		rm.ErrorCount++
		mc.totalErrors++
	}
}

// Routes returns a copy of every route's metrics, slowest average first
func (mc *MetricsCollector) Routes() []RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	out := make([]RouteMetrics, 0, len(mc.routes))
	for _, rm := range mc.routes {
		out = append(out, *rm)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgTime != out[j].AvgTime {
			return out[i].AvgTime > out[j].AvgTime
		}
		return out[i].Method+out[i].Path < out[j].Method+out[j].Path
	})
	return out
}

// Summary returns request totals since the collector was created
func (mc *MetricsCollector) Summary() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	errorRate := 0.0
	if mc.totalRequests > 0 {
		errorRate = float64(mc.totalErrors) / float64(mc.totalRequests)
	}
	return map[string]interface{}{
		"totalRequests": mc.totalRequests,
		"totalErrors":   mc.totalErrors,
		"errorRate":     errorRate,
		"routes":        len(mc.routes),
		"windowStart":   mc.windowStart,
	}
}
