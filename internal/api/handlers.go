package api

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/routecast/navrig/internal/db"
	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/route"
	"github.com/routecast/navrig/internal/settings"
	"github.com/routecast/navrig/internal/sim"
)

// simRunRequest is the POST /api/sim/run payload. The pointer fields are
// tri-state: absent means "use the configured default".
type simRunRequest struct {
	StartSegmentIdx int     `json:"startSegmentIdx"`
	EndSegmentIdx   *int    `json:"endSegmentIdx"`
	Mode            string  `json:"mode"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
	DryRun          *bool   `json:"dryRun"`
	EnableSignal    *bool   `json:"enableSignal"`
	EnableActuator  *bool   `json:"enableActuator"`
}

func (s *Server) handleSimRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req := simRunRequest{Mode: string(sim.ModeDemo), SpeedMultiplier: 1.0}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	mode, err := sim.ParseMode(req.Mode)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	activeRoute := s.routes.Active()
	if activeRoute == nil {
		monitoring.Logf("Attempted to run simulation without active route")
		s.writeJSONError(w, http.StatusNotFound, "No active route. Please set a route first.")
		return
	}

	end := -1
	if req.EndSegmentIdx != nil {
		end = *req.EndSegmentIdx
	}
	rng, err := (route.SegmentRange{Start: req.StartSegmentIdx, End: end}).Normalize(len(activeRoute.Segments))
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	info, err := s.manager.Run(r.Context(), sim.RunParams{
		Route:           activeRoute,
		Range:           rng,
		Mode:            mode,
		SpeedMultiplier: req.SpeedMultiplier,
		DryRun:          req.DryRun,
		EnableSignal:    req.EnableSignal,
		EnableActuator:  req.EnableActuator,
	})
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	monitoring.Logf("Simulation Started [%s]: %s | Segments %d-%d (%d) | %d clients",
		info.Label, activeRoute.ID, rng.Start, rng.End, rng.End-rng.Start+1, s.manager.ClientCount())

	resp := map[string]interface{}{
		"status":          "started",
		"state":           string(s.manager.State()),
		"routeId":         activeRoute.ID,
		"startSegmentIdx": rng.Start,
		"endSegmentIdx":   rng.End,
		"mode":            string(mode),
		"speedMultiplier": info.SpeedMultiplier,
	}
	if info.RunID != "" {
		resp["runId"] = info.RunID
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleSimStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.manager.Stop(r.Context()); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to stop simulation: %v", err))
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"status": "stopped",
		"state":  string(s.manager.State()),
	})
}

func (s *Server) handleSimStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	activeRoute := s.routes.Active()
	var routeID interface{}
	if activeRoute != nil {
		routeID = activeRoute.ID
	}
	s.writeJSON(w, map[string]interface{}{
		"state":          string(s.manager.State()),
		"isRunning":      s.manager.IsRunning(),
		"hasActiveRoute": activeRoute != nil,
		"routeId":        routeID,
		"clientCount":    s.manager.ClientCount(),
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		s.updateActiveRoute(w, r)
	case http.MethodGet:
		s.getActiveRoute(w, r)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) updateActiveRoute(w http.ResponseWriter, r *http.Request) {
	var rt route.Route
	if err := json.NewDecoder(r.Body).Decode(&rt); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid route payload: %v", err))
		return
	}
	if err := rt.Validate(); err != nil {
		s.writeRunError(w, err)
		return
	}

	s.routes.Set(&rt)
	monitoring.Logf("Route Sync: %s | %d waypoints, %d segments", rt.ID, len(rt.Waypoints), len(rt.Segments))
	for idx, seg := range rt.Segments {
		monitoring.Logf("  Seg %d: %d -> %d | %s", idx, seg.From, seg.To, seg.Profile.Kind())
	}
	s.writeJSON(w, map[string]interface{}{"status": "updated", "routeId": rt.ID})
}

func (s *Server) getActiveRoute(w http.ResponseWriter, r *http.Request) {
	activeRoute := s.routes.Active()
	if activeRoute == nil {
		s.writeJSONError(w, http.StatusNotFound, "No active route")
		return
	}
	s.writeJSON(w, activeRoute)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, s.settings.Current())
	case http.MethodPut:
		s.updateSettings(w, r)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// updateSettings replaces the whole settings document. Fields missing from
// the payload revert to their defaults.
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	doc, err := settings.ParseDocument(raw)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	updated, err := s.settings.Update(doc)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	monitoring.Logf("Settings updated")
	s.writeJSON(w, updated)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.db.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.writeJSON(w, runs)
}

func (s *Server) handleSimPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	activeRoute := s.routes.Active()
	if activeRoute == nil {
		s.writeJSONError(w, http.StatusNotFound, "No active route. Please set a route first.")
		return
	}

	rng := route.FullRange()
	if v := r.URL.Query().Get("startSegmentIdx"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'startSegmentIdx' parameter")
			return
		}
		rng.Start = parsed
	}
	if v := r.URL.Query().Get("endSegmentIdx"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'endSegmentIdx' parameter")
			return
		}
		rng.End = parsed
	}

	maxPoints := 2000
	if mp := r.URL.Query().Get("maxPoints"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 0 && v <= 50000 {
			maxPoints = v
		}
	}

	plan, err := s.planner.Generate(activeRoute, rng, s.planDtS)
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	// Downsample by stride to stay within maxPoints.
	stride := 1
	if len(plan.Points) > maxPoints {
		stride = int(math.Ceil(float64(len(plan.Points)) / float64(maxPoints)))
	}
	points := make([]motion.Point, 0, len(plan.Points)/stride+1)
	for i := 0; i < len(plan.Points); i += stride {
		points = append(points, plan.Points[i])
	}

	s.writeJSON(w, map[string]interface{}{
		"routeId":     activeRoute.ID,
		"dtS":         s.planDtS,
		"stats":       plan.Summarize(),
		"totalPoints": len(plan.Points),
		"stride":      stride,
		"points":      points,
	})
}
