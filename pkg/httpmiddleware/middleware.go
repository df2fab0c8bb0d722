// Package httpmiddleware implements the HTTP middleware chain of the
// storefront API.
package httpmiddleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware is the outermost.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RouteFinder resolves the route pattern that serves r.
type RouteFinder func(r *http.Request) (pattern string, ok bool)

// MakeRouteFinder resolves patterns against routes without dispatching the
// request, so middleware outside the router can label requests by route.
func MakeRouteFinder(routes chi.Routes) RouteFinder {
	return func(r *http.Request) (string, bool) {
		pattern := routes.Find(chi.NewRouteContext(), r.Method, r.URL.Path)
		return pattern, pattern != ""
	}
}

const unknownRoute = "unknown"

func routeName(find RouteFinder, r *http.Request) string {
	if find == nil {
		return unknownRoute
	}
	if pattern, ok := find(r); ok {
		return pattern
	}
	return unknownRoute
}

// writeError responds with the API error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "error",
		"error":  msg,
	})
}
