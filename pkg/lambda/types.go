package lambda

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"athletehub-api/internal/auth"
)

// Request represents a generic HTTP request for serverless functions
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Headers     map[string]string `json:"headers"`
	QueryParams map[string]string `json:"query_params"`
	Body        []byte            `json:"body"`
	PathParams  map[string]string `json:"path_params"`

	// Claims is the verified claim bag from the authorizer or bearer token
	Claims    map[string]any  `json:"-"`
	Principal *auth.Principal `json:"-"`
	SourceIP  string          `json:"source_ip"`
	RequestID string          `json:"request_id"`
}

// Header returns the first header value matching name case-insensitively
func (r *Request) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Query returns a query string parameter
func (r *Request) Query(name string) string {
	return r.QueryParams[name]
}

// Param returns a path parameter
func (r *Request) Param(name string) string {
	return r.PathParams[name]
}

// Response represents a generic HTTP response for serverless functions
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
}

// HandlerFunc is a framework-agnostic handler interface
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// JSON builds a response with v encoded as the body
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: status, Body: body}, nil
}

// OK builds a 200 response
func OK(v any) (*Response, error) {
	return JSON(http.StatusOK, v)
}

// Created builds a 201 response
func Created(v any) (*Response, error) {
	return JSON(http.StatusCreated, v)
}

// NoContent builds a 204 response
func NoContent() *Response {
	return &Response{StatusCode: http.StatusNoContent}
}
