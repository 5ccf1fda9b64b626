// Package api exposes the simulator over HTTP: REST endpoints for runs,
// routes, settings and history, a websocket endpoint for telemetry, and a
// couple of debug chart pages.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/routecast/navrig/internal/db"
	"github.com/routecast/navrig/internal/hub"
	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/observability"
	"github.com/routecast/navrig/internal/route"
	"github.com/routecast/navrig/internal/settings"
	"github.com/routecast/navrig/internal/sim"
)

// ANSI escape codes for request log coloring
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server wires the simulation manager and its stores into HTTP handlers.
type Server struct {
	manager  *sim.Manager
	routes   *RouteHolder
	settings *settings.Store
	db       *db.DB
	hub      *hub.Hub
	metrics  *observability.Collector
	planner  *motion.Generator
	planDtS  float64
}

// NewServer builds a Server. planner and planDtS drive the plan preview;
// metrics may be nil.
func NewServer(manager *sim.Manager, routes *RouteHolder, store *settings.Store, database *db.DB, h *hub.Hub, metrics *observability.Collector, planner *motion.Generator, planDtS float64) *Server {
	return &Server{
		manager:  manager,
		routes:   routes,
		settings: store,
		db:       database,
		hub:      h,
		metrics:  metrics,
		planner:  planner,
		planDtS:  planDtS,
	}
}

// ServeMux returns the route table for the API surface.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sim/run", s.handleSimRun)
	mux.HandleFunc("/api/sim/stop", s.handleSimStop)
	mux.HandleFunc("/api/sim/status", s.handleSimStatus)
	mux.HandleFunc("/api/sim/plan", s.handleSimPlan)
	mux.HandleFunc("/api/route", s.handleRoute)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/ws/sim", s.handleWebSocket)
	mux.HandleFunc("/debug/plan-chart", s.handlePlanChart)
	mux.HandleFunc("/debug/route-plot", s.handleRoutePlot)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		monitoring.Logf("Failed to write response: %v", err)
	}
}

// writeRunError maps domain errors onto status codes: invalid input is a
// 400, a busy manager a 409, anything else a 500.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	var verr *route.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSONError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, sim.ErrAlreadyRunning):
		s.writeJSONError(w, http.StatusConflict, "Simulation already running")
	default:
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
