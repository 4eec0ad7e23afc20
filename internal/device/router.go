package device

import (
	"fmt"
	"sort"
)

// Route binds an item code to the device that realizes it.
type Route struct {
	Device Synchronizer
	// File is the job file on the device (printer G-code).
	File string
	// Policy overrides the manufacture recording policy. Empty means the
	// deployment default.
	Policy string
	Wait   WaitOptions
}

// Router resolves item codes to routes.
type Router struct {
	routes   map[string]Route
	fallback *Route
}

// NewRouter creates a router. fallback may be nil.
func NewRouter(routes map[string]Route, fallback *Route) *Router {
	r := &Router{routes: make(map[string]Route, len(routes)), fallback: fallback}
	for code, route := range routes {
		r.routes[code] = route
	}
	return r
}

// Resolve returns the route for itemCode, the fallback when none matches,
// or ErrNoRoute.
func (r *Router) Resolve(itemCode string) (Route, error) {
	if route, ok := r.routes[itemCode]; ok {
		return route, nil
	}
	if r.fallback != nil {
		return *r.fallback, nil
	}
	return Route{}, fmt.Errorf("%w %q", ErrNoRoute, itemCode)
}

// Devices returns every distinct synchronizer referenced by the router,
// ordered by name.
func (r *Router) Devices() []Synchronizer {
	seen := map[string]Synchronizer{}
	for _, route := range r.routes {
		if route.Device != nil {
			seen[route.Device.Name()] = route.Device
		}
	}
	if r.fallback != nil && r.fallback.Device != nil {
		seen[r.fallback.Device.Name()] = r.fallback.Device
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Synchronizer, 0, len(names))
	for _, name := range names {
		out = append(out, seen[name])
	}
	return out
}
