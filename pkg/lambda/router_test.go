package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/ratelimit"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func athleteClaims() map[string]any {
	return map[string]any{"sub": "u1", "cognito:groups": []any{"athletes"}}
}

type countingHandler struct {
	calls int
	resp  func(req *Request) (*Response, error)
}

func (h *countingHandler) handle(ctx context.Context, req *Request) (*Response, error) {
	h.calls++
	if h.resp != nil {
		return h.resp(req)
	}
	return OK(map[string]string{"id": req.Param("id")})
}

func newTestRouter(h *countingHandler, opts ...RouterOption) *Router {
	r := NewRouter(testLogger(), opts...)
	r.Handle(Route{Method: http.MethodGet, Pattern: "/health", Public: true, Handler: h.handle})
	r.Handle(Route{Method: http.MethodGet, Pattern: "/challenges/{id}", Handler: h.handle})
	r.Handle(Route{Method: http.MethodPut, Pattern: "/challenges/{id}", Role: "coach", Action: "update challenges", Handler: h.handle})
	r.Handle(Route{Method: http.MethodPost, Pattern: "/challenges/{id}/submissions", Role: "athlete", Action: "submit to challenges", Handler: h.handle})
	return r
}

func assertEnvelope(t *testing.T, resp *Response) {
	t.Helper()
	for k, v := range corsHeaders {
		if resp.Headers[k] != v {
			t.Errorf("header %s = %q, want %q", k, resp.Headers[k], v)
		}
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", resp.Headers["Content-Type"])
	}
	if resp.Headers["X-Request-ID"] == "" {
		t.Errorf("missing X-Request-ID")
	}
}

func decodeError(t *testing.T, resp *Response) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, resp.Body)
	}
	if body.Error == "" || body.Message == "" {
		t.Errorf("error body missing fields: %+v", body)
	}
	return body
}

func TestDispatch_Success(t *testing.T) {
	h := &countingHandler{}
	router := newTestRouter(h)

	resp := router.Dispatch(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "/challenges/c1",
		Claims: athleteClaims(),
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, resp.Body)
	}
	assertEnvelope(t, resp)
	if string(resp.Body) != `{"id":"c1"}` {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestDispatch_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		req        *Request
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing claims",
			req:        &Request{Method: http.MethodGet, Path: "/challenges/c1"},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unauthorized",
		},
		{
			name:       "blank subject",
			req:        &Request{Method: http.MethodGet, Path: "/challenges/c1", Claims: map[string]any{"sub": "  "}},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unauthorized",
		},
		{
			name:       "wrong role",
			req:        &Request{Method: http.MethodPut, Path: "/challenges/c1", Claims: athleteClaims()},
			wantStatus: http.StatusForbidden,
			wantError:  "Forbidden",
		},
		{
			name:       "unknown route",
			req:        &Request{Method: http.MethodGet, Path: "/nope", Claims: athleteClaims()},
			wantStatus: http.StatusNotFound,
			wantError:  "Not found",
		},
		{
			name:       "wrong method",
			req:        &Request{Method: http.MethodDelete, Path: "/health"},
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "Method not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &countingHandler{}
			resp := newTestRouter(h).Dispatch(context.Background(), tt.req)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			assertEnvelope(t, resp)
			if body := decodeError(t, resp); body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if h.calls != 0 {
				t.Errorf("handler ran %d times on a rejected request", h.calls)
			}
		})
	}
}

func TestDispatch_ForbiddenMessage(t *testing.T) {
	resp := newTestRouter(&countingHandler{}).Dispatch(context.Background(), &Request{
		Method: http.MethodPut, Path: "/challenges/c1", Claims: athleteClaims(),
	})
	if body := decodeError(t, resp); body.Message != "only coaches can update challenges" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestDispatch_MethodNotAllowedListsMethods(t *testing.T) {
	resp := newTestRouter(&countingHandler{}).Dispatch(context.Background(), &Request{
		Method: http.MethodPost, Path: "/challenges/c1", Claims: athleteClaims(),
	})
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Headers["Allow"] != "GET,PUT" {
		t.Errorf("Allow = %q", resp.Headers["Allow"])
	}
}

func TestDispatch_Preflight(t *testing.T) {
	h := &countingHandler{}
	resp := newTestRouter(h).Dispatch(context.Background(), &Request{Method: http.MethodOptions, Path: "/challenges/c1"})

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	assertEnvelope(t, resp)
	if h.calls != 0 {
		t.Errorf("preflight should not reach the handler")
	}
}

func TestDispatch_HandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", apperrors.NotFound("challenge", "c1"), http.StatusNotFound, "challenge c1 not found"},
		{"invalid argument", apperrors.InvalidArgument("title is required"), http.StatusBadRequest, "title is required"},
		{"malformed", apperrors.Malformed("body is not valid JSON", nil), http.StatusBadRequest, "body is not valid JSON"},
		{"upstream", apperrors.Upstream("query", errors.New("connection refused")), http.StatusInternalServerError, "query: connection refused"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &countingHandler{resp: func(*Request) (*Response, error) { return nil, tt.err }}
			resp := newTestRouter(h).Dispatch(context.Background(), &Request{
				Method: http.MethodGet, Path: "/challenges/c1", Claims: athleteClaims(),
			})

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			assertEnvelope(t, resp)
			if body := decodeError(t, resp); body.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMsg)
			}
		})
	}
}

func TestDispatch_RecoversPanics(t *testing.T) {
	h := &countingHandler{resp: func(*Request) (*Response, error) { panic("nil map") }}
	resp := newTestRouter(h).Dispatch(context.Background(), &Request{
		Method: http.MethodGet, Path: "/challenges/c1", Claims: athleteClaims(),
	})

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	assertEnvelope(t, resp)
	decodeError(t, resp)
}

func TestDispatch_RequestID(t *testing.T) {
	router := newTestRouter(&countingHandler{})

	resp := router.Dispatch(context.Background(), &Request{
		Method: http.MethodGet, Path: "/health", Headers: map[string]string{"x-request-id": "req-123"},
	})
	if resp.Headers["X-Request-ID"] != "req-123" {
		t.Errorf("X-Request-ID = %q, want caller id", resp.Headers["X-Request-ID"])
	}
}

func TestDispatch_PrincipalAndParams(t *testing.T) {
	var seen *Request
	h := &countingHandler{resp: func(req *Request) (*Response, error) {
		seen = req
		return Created(map[string]bool{"ok": true})
	}}

	resp := newTestRouter(h).Dispatch(context.Background(), &Request{
		Method: http.MethodPost, Path: "/challenges/c9/submissions/", Claims: athleteClaims(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body %s", resp.StatusCode, resp.Body)
	}
	if seen.Principal == nil || seen.Principal.UserID != "u1" {
		t.Errorf("principal not attached: %+v", seen.Principal)
	}
	if seen.Param("id") != "c9" {
		t.Errorf("id param = %q", seen.Param("id"))
	}
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) ratelimit.Decision {
	f.keys = append(f.keys, key)
	return ratelimit.Decision{Allowed: f.allow, ResetAt: time.Now().Add(30 * time.Second)}
}

func TestDispatch_RateLimit(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	h := &countingHandler{}
	router := newTestRouter(h, WithRateLimiter(limiter))

	resp := router.Dispatch(context.Background(), &Request{
		Method: http.MethodGet, Path: "/challenges/c1", Claims: athleteClaims(), SourceIP: "10.0.0.1",
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	assertEnvelope(t, resp)
	if resp.Headers["Retry-After"] == "" {
		t.Errorf("missing Retry-After")
	}
	if h.calls != 0 {
		t.Errorf("limited request reached the handler")
	}

	router.Dispatch(context.Background(), &Request{Method: http.MethodGet, Path: "/health", SourceIP: "10.0.0.1"})
	if len(limiter.keys) != 2 || limiter.keys[0] != "user:u1" || limiter.keys[1] != "ip:10.0.0.1" {
		t.Errorf("limiter keys = %v", limiter.keys)
	}
}
