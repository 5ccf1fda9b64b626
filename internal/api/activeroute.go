package api

import (
	"sync"

	"github.com/routecast/navrig/internal/route"
)

// RouteHolder keeps the active route. The planning UI pushes one before a
// run; it lives in memory only and is gone after a restart.
type RouteHolder struct {
	mu     sync.Mutex
	active *route.Route
}

// NewRouteHolder returns an empty holder.
func NewRouteHolder() *RouteHolder {
	return &RouteHolder{}
}

// Set replaces the active route.
func (h *RouteHolder) Set(r *route.Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = r
}

// Active returns the active route, or nil when none has been set.
func (h *RouteHolder) Active() *route.Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}
