// Package lambda dispatches gateway requests to handlers independently of the
// transport that delivered them (API Gateway or the local gin server).
package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/auth"
	"athletehub-api/internal/metrics"
	"athletehub-api/internal/ratelimit"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CORS headers attached to every response
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type,Authorization",
}

// Route binds a method and path pattern to a handler. Pattern segments in
// braces ("/challenges/{id}") capture path parameters.
type Route struct {
	Method  string
	Pattern string
	Handler HandlerFunc

	// Public routes skip principal extraction
	Public bool
	// Role, when set, is required of the principal
	Role string
	// Action completes the forbidden message, e.g. "create challenges"
	Action string
}

type compiledRoute struct {
	Route
	segments []string
}

// ErrorBody is the JSON body of every failure response
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Router matches requests to routes and shapes the response envelope
type Router struct {
	routes  []compiledRoute
	logger  *logrus.Logger
	limiter ratelimit.Limiter
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithRateLimiter enables per-principal (or per-IP) rate limiting
func WithRateLimiter(limiter ratelimit.Limiter) RouterOption {
	return func(r *Router) { r.limiter = limiter }
}

// NewRouter creates an empty router
func NewRouter(logger *logrus.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Router{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle registers a route
func (r *Router) Handle(route Route) {
	r.routes = append(r.routes, compiledRoute{
		Route:    route,
		segments: splitPath(route.Pattern),
	})
}

// Routes returns the registered routes in registration order
func (r *Router) Routes() []Route {
	routes := make([]Route, len(r.routes))
	for i, cr := range r.routes {
		routes[i] = cr.Route
	}
	return routes
}

// Dispatch runs one request to completion. It always returns exactly one
// response, including when the handler panics.
func (r *Router) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	start := time.Now()
	if req.RequestID == "" {
		req.RequestID = req.Header("X-Request-ID")
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	routeLabel := "unmatched"
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(logrus.Fields{
				"request_id": req.RequestID,
				"panic":      rec,
				"stack":      string(debug.Stack()),
			}).Error("Handler panicked")
			resp = ErrorResponse(fmt.Errorf("internal error: %v", rec))
		}
		r.finish(req, resp, routeLabel, start)
	}()

	if req.Method == http.MethodOptions {
		routeLabel = "preflight"
		return NoContent()
	}

	route, params, allowed := r.match(req.Method, req.Path)
	if route == nil {
		if len(allowed) > 0 {
			resp = respondError(http.StatusMethodNotAllowed, "Method not allowed",
				fmt.Sprintf("%s is not supported on %s", req.Method, req.Path))
			resp.Headers = map[string]string{"Allow": strings.Join(allowed, ",")}
			return resp
		}
		return respondError(http.StatusNotFound, "Not found", fmt.Sprintf("no route for %s %s", req.Method, req.Path))
	}
	routeLabel = route.Pattern
	req.PathParams = params

	if !route.Public {
		principal, err := auth.ExtractPrincipal(req.Claims)
		if err != nil {
			return ErrorResponse(err)
		}
		req.Principal = principal
		if route.Role != "" {
			if err := auth.RequireRole(principal, route.Role, route.Action); err != nil {
				return ErrorResponse(err)
			}
		}
	}

	if r.limiter != nil {
		if limited := r.checkRateLimit(ctx, req); limited != nil {
			return limited
		}
	}

	handlerResp, err := route.Handler(ctx, req)
	if err != nil {
		return ErrorResponse(err)
	}
	if handlerResp == nil {
		return NoContent()
	}
	return handlerResp
}

// Reject answers a request that could not be converted for dispatch
func (r *Router) Reject(req *Request, err error) *Response {
	resp := ErrorResponse(err)
	r.finish(req, resp, "unmatched", time.Now())
	return resp
}

func (r *Router) checkRateLimit(ctx context.Context, req *Request) *Response {
	key := "ip:" + req.SourceIP
	if req.Principal != nil {
		key = "user:" + req.Principal.UserID
	}

	decision := r.limiter.Allow(ctx, key)
	if decision.Allowed {
		return nil
	}

	metrics.RateLimited.Inc()
	resp := ErrorResponse(apperrors.RateLimited("rate limit exceeded, retry later"))
	retryAfter := int(time.Until(decision.ResetAt).Seconds()) + 1
	resp.Headers = map[string]string{"Retry-After": strconv.Itoa(retryAfter)}
	return resp
}

// finish attaches the envelope headers, then records metrics and the access log
func (r *Router) finish(req *Request, resp *Response, routeLabel string, start time.Time) {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	for k, v := range corsHeaders {
		resp.Headers[k] = v
	}
	resp.Headers["Content-Type"] = "application/json"
	resp.Headers["X-Request-ID"] = req.RequestID

	latency := time.Since(start)
	metrics.Requests.WithLabelValues(routeLabel, req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.RequestDuration.WithLabelValues(routeLabel).Observe(latency.Seconds())

	fields := logrus.Fields{
		"request_id": req.RequestID,
		"method":     req.Method,
		"path":       req.Path,
		"route":      routeLabel,
		"status":     resp.StatusCode,
		"latency_ms": latency.Milliseconds(),
		"source_ip":  req.SourceIP,
	}
	if req.Principal != nil {
		fields["user_id"] = req.Principal.UserID
	}

	entry := r.logger.WithFields(fields)
	switch {
	case resp.StatusCode >= 500:
		entry.WithField("response", string(resp.Body)).Error("Request failed")
	case resp.StatusCode >= 400:
		entry.Warn("Request rejected")
	default:
		entry.Info("Request completed")
	}
}

// match returns the route for method and path. When the path exists under
// other methods only, allowed lists them.
func (r *Router) match(method, path string) (*compiledRoute, map[string]string, []string) {
	segments := splitPath(path)
	var allowed []string
	for i := range r.routes {
		cr := &r.routes[i]
		params, ok := matchSegments(cr.segments, segments)
		if !ok {
			continue
		}
		if cr.Method == method {
			return cr, params, nil
		}
		allowed = append(allowed, cr.Method)
	}
	sort.Strings(allowed)
	return nil, nil, allowed
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range pattern {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if path[i] == "" {
				return nil, false
			}
			params[seg[1:len(seg)-1]] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// ErrorResponse renders err using its taxonomy status. Errors outside the
// taxonomy become 500 with the error text.
func ErrorResponse(err error) *Response {
	return respondError(apperrors.StatusCode(err), apperrors.Title(err), err.Error())
}

func respondError(status int, title, message string) *Response {
	body, _ := json.Marshal(ErrorBody{Error: title, Message: message})
	return &Response{StatusCode: status, Body: body}
}
