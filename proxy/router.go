package proxy

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// ErrorHandler defines the function interface the router uses to handle any
// error that occurs while processing routes.
type ErrorHandler func(context.Context, events.APIGatewayV2HTTPRequest, error) (events.APIGatewayProxyResponse, error)

// CatchAllHandler defines the function interface the router uses to handle any
// request that doesn't match a route.
type CatchAllHandler func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error)

// MethodNotAllowedHandler handles a request whose path matches at least one
// route but whose method matches none. allowed lists the methods registered
// for the path, in registration order.
type MethodNotAllowedHandler func(ctx context.Context, request events.APIGatewayV2HTTPRequest, allowed []HttpMethod) (events.APIGatewayProxyResponse, error)

// Router will route an incoming events.APIGatewayV2HTTPRequest the appropriate
// route based upon the router configuration and then return the
// events.APIGatewayProxyResponse.
//
// Routes are tried in the order they were added and the first one matching
// both method and path is followed. A request matching no route goes to the
// NotAllowed handler when some route accepts its path, and to the CatchAll
// handler otherwise. Without either handler an error is returned.
//
// If the CatchError handler is set any route that returns an error will first
// be passed into the hander for additional processing.
//
// Example:
//
//	router := &proxy.Router{}
//	router.GET("/api/todos", listTodos)
//	router.DELETE("/api/todos/(?P<id>[^/]+)", deleteTodo)
//
//	if !router.Valid() {
//		return router.BuildErrors()
//	}
//
//	lambda.Start(router.Route)
type Router struct {
	Routes     []*Route
	CatchAll   CatchAllHandler
	CatchError ErrorHandler
	NotAllowed MethodNotAllowedHandler

	errors []error
}

// Valid returns true if the routers' routes have all been built successfully.
// Otherwise false.
func (router *Router) Valid() bool {
	return len(router.errors) == 0
}

// AddRoute appends route to the list of routes used for request matching.
func (router *Router) AddRoute(route *Route) {
	router.Routes = append(router.Routes, route)
}

// AddBuildError appends an error to the list of router errors.
func (router *Router) AddBuildError(err error) {
	router.errors = append(router.errors, err)
}

// BuildErrors returns a single error listing every error found during router
// construction, or nil when there is none.
func (router *Router) BuildErrors() error {
	if router.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(router.errors))
	for _, err := range router.errors {
		msgs = append(msgs, err.Error())
	}

	return errors.Errorf("failed building router: %s", strings.Join(msgs, "; "))
}

// AddRouteIfNoError appends the provided route if no error is present.
// Otherwise it adds the error to the build errors.
func (router *Router) AddRouteIfNoError(route *Route, err error) {
	if err != nil {
		router.AddBuildError(err)
		return
	}

	router.AddRoute(route)
}

// Handle adds a route for method and the pattern match.
func (router *Router) Handle(method HttpMethod, match string, handler RouteHandler) {
	router.AddRouteIfNoError(NewRoute(method, match, handler))
}

// GET adds a GET route.
func (router *Router) GET(match string, handler RouteHandler) {
	router.Handle(GET, match, handler)
}

// POST adds a POST route.
func (router *Router) POST(match string, handler RouteHandler) {
	router.Handle(POST, match, handler)
}

// PUT adds a PUT route.
func (router *Router) PUT(match string, handler RouteHandler) {
	router.Handle(PUT, match, handler)
}

// PATCH adds a PATCH route.
func (router *Router) PATCH(match string, handler RouteHandler) {
	router.Handle(PATCH, match, handler)
}

// DELETE adds a DELETE route.
func (router *Router) DELETE(match string, handler RouteHandler) {
	router.Handle(DELETE, match, handler)
}

// AddCatchAllHandler attaches a catchall handler to the router.
func (router *Router) AddCatchAllHandler(handler CatchAllHandler) {
	router.CatchAll = handler
}

// AddErrorHandler attaches a error handler to the router.
func (router *Router) AddErrorHandler(handler ErrorHandler) {
	router.CatchError = handler
}

// AddMethodNotAllowedHandler attaches the handler for known paths requested
// with an unregistered method.
func (router *Router) AddMethodNotAllowedHandler(handler MethodNotAllowedHandler) {
	router.NotAllowed = handler
}

// Allowed returns the methods registered for path, without duplicates.
func (router *Router) Allowed(path string) []HttpMethod {
	var allowed []HttpMethod
	seen := make(map[HttpMethod]bool)

	for _, route := range router.Routes {
		if seen[route.Method] || route.MatchPath(path) == nil {
			continue
		}
		seen[route.Method] = true
		allowed = append(allowed, route.Method)
	}

	return allowed
}

func (router *Router) routeInternal(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error) {
	for _, route := range router.Routes {
		matched, groups := route.IsMatch(request)

		if !matched {
			continue
		}

		return route.Follow(ctx, request, groups)
	}

	if router.NotAllowed != nil {
		if allowed := router.Allowed(request.RawPath); len(allowed) > 0 {
			return router.NotAllowed(ctx, request, allowed)
		}
	}

	if router.CatchAll != nil {
		return router.CatchAll(ctx, request)
	}

	return events.APIGatewayProxyResponse{}, fmt.Errorf("'%s %s' not found", request.RequestContext.HTTP.Method, request.RawPath)
}

// Route dispatches request to the first matching route, falling back to the
// NotAllowed and CatchAll handlers. When CatchError is set, any error from
// the above is handed to it and its result returned instead.
func (router *Router) Route(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error) {
	response, err := router.routeInternal(ctx, request)

	if err != nil && router.CatchError != nil {
		return router.CatchError(ctx, request, err)
	}

	return response, err
}
