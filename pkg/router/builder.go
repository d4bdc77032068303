package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteSpec describes a single HTTP operation. Every route carries an
// operation id and a summary so that registration failures point at the
// operation, and the request log can be grouped per operation.
type RouteSpec struct {
	OperationID string
	Summary     string
	Description string
	Group       string
	Handler     http.HandlerFunc
}

// RouteBuilder wraps a chi router with validated route registration.
type RouteBuilder struct {
	l      *slog.Logger
	router chi.Router
	prefix string

	// Operation ids must be unique across the whole tree; shared between
	// nested builders.
	registered map[string]struct{}
}

// NewRouteBuilder creates a RouteBuilder backed by a fresh chi router.
func NewRouteBuilder(l *slog.Logger) *RouteBuilder {
	return &RouteBuilder{
		l:          l.With(slog.String("component", "router")),
		router:     chi.NewRouter(),
		registered: map[string]struct{}{},
	}
}

// Router returns the underlying chi router.
func (rb *RouteBuilder) Router() chi.Router {
	return rb.router
}

// Use appends middleware to the current routing group.
func (rb *RouteBuilder) Use(middlewares ...func(http.Handler) http.Handler) {
	rb.router.Use(middlewares...)
}

// Route mounts a sub-router under pattern and lets fn register routes on it.
func (rb *RouteBuilder) Route(pattern string, fn func(rb *RouteBuilder)) {
	rb.router.Route(pattern, func(r chi.Router) {
		fn(&RouteBuilder{
			l:          rb.l,
			router:     r,
			prefix:     rb.prefix + pattern,
			registered: rb.registered,
		})
	})
}

// Group creates an inline group that shares the current pattern but gets its
// own middleware stack.
func (rb *RouteBuilder) Group(fn func(rb *RouteBuilder)) {
	rb.router.Group(func(r chi.Router) {
		fn(&RouteBuilder{
			l:          rb.l,
			router:     r,
			prefix:     rb.prefix,
			registered: rb.registered,
		})
	})
}

// MustGet registers a GET route and panics if the spec is invalid.
func (rb *RouteBuilder) MustGet(path string, spec RouteSpec) {
	rb.mustRegister(http.MethodGet, path, spec)
}

// MustPost registers a POST route and panics if the spec is invalid.
func (rb *RouteBuilder) MustPost(path string, spec RouteSpec) {
	rb.mustRegister(http.MethodPost, path, spec)
}

// MustPut registers a PUT route and panics if the spec is invalid.
func (rb *RouteBuilder) MustPut(path string, spec RouteSpec) {
	rb.mustRegister(http.MethodPut, path, spec)
}

// MustDelete registers a DELETE route and panics if the spec is invalid.
func (rb *RouteBuilder) MustDelete(path string, spec RouteSpec) {
	rb.mustRegister(http.MethodDelete, path, spec)
}

// MustHandle registers a route for any method (used for upgrades like
// websockets that start as GET but bypass the normal response flow).
func (rb *RouteBuilder) MustHandle(path string, spec RouteSpec) {
	if err := rb.register("", path, spec); err != nil {
		panic(err)
	}
}

func (rb *RouteBuilder) mustRegister(method, path string, spec RouteSpec) {
	if err := rb.register(method, path, spec); err != nil {
		panic(err)
	}
}

func (rb *RouteBuilder) register(method, path string, spec RouteSpec) error {
	fullPath := rb.prefix + path

	if err := validateRouteSpec(spec); err != nil {
		return fmt.Errorf("invalid route spec for %s %s: %w", method, fullPath, err)
	}

	if _, exists := rb.registered[spec.OperationID]; exists {
		return fmt.Errorf("duplicate operation id %q for %s %s", spec.OperationID, method, fullPath)
	}

	rb.registered[spec.OperationID] = struct{}{}

	if method == "" {
		rb.router.Handle(path, spec.Handler)
	} else {
		rb.router.Method(method, path, spec.Handler)
	}

	rb.l.Debug("route registered",
		slog.String("operation_id", spec.OperationID),
		slog.String("method", method),
		slog.String("path", fullPath),
	)

	return nil
}
