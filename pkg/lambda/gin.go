package lambda

import (
	"io"
	"net/http"
	"strings"

	"athletehub-api/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// Keys under which gin middleware hands request state to the dispatcher
const (
	ClaimsContextKey    = "gateway_claims"
	RequestIDContextKey = "request_id"
)

// MaxBodyBytes bounds request bodies read by the gin adapter
const MaxBodyBytes = 6 << 20

// GinHandler serves the router from gin, for local development
func GinHandler(router *Router, basePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := FromGinContext(c, basePath)

		var resp *Response
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
		switch {
		case err != nil:
			resp = router.Reject(req, apperrors.Malformed("failed to read request body", err))
		case len(body) > MaxBodyBytes:
			resp = router.Reject(req, apperrors.InvalidArgumentf("request body exceeds %d bytes", MaxBodyBytes))
		default:
			req.Body = body
			resp = router.Dispatch(c.Request.Context(), req)
		}

		WriteGinResponse(c, resp)
	}
}

// FromGinContext converts the gin request, without its body
func FromGinContext(c *gin.Context, basePath string) *Request {
	headers := make(map[string]string, len(c.Request.Header))
	for k, values := range c.Request.Header {
		headers[k] = strings.Join(values, ",")
	}

	query := make(map[string]string)
	for k, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[k] = values[0]
		}
	}

	req := &Request{
		Method:      c.Request.Method,
		Path:        stripBasePath(c.Request.URL.Path, basePath),
		Headers:     headers,
		QueryParams: query,
		SourceIP:    c.ClientIP(),
	}
	if claims, ok := c.Get(ClaimsContextKey); ok {
		if bag, ok := claims.(map[string]any); ok {
			req.Claims = bag
		}
	}
	if id, ok := c.Get(RequestIDContextKey); ok {
		if s, ok := id.(string); ok {
			req.RequestID = s
		}
	}
	return req
}

// WriteGinResponse writes the envelope to the gin response
func WriteGinResponse(c *gin.Context, resp *Response) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		c.Status(resp.StatusCode)
		return
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], resp.Body)
}
