package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"athletehub-api/internal/auth"
	"athletehub-api/pkg/lambda"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	engine.Any("/probe", func(c *gin.Context) {
		claims, _ := c.Get(lambda.ClaimsContextKey)
		c.JSON(http.StatusOK, gin.H{
			"requestId": c.GetString(lambda.RequestIDContextKey),
			"claims":    claims,
		})
	})
	return engine
}

type probeBody struct {
	RequestID string         `json:"requestId"`
	Claims    map[string]any `json:"claims"`
}

func probe(t *testing.T, engine *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, probeBody) {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var body probeBody
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
	}
	return w, body
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID(), StructuredLogger(testLogger()))

	w, body := probe(t, engine, httptest.NewRequest(http.MethodGet, "/probe", nil))
	if body.RequestID == "" || w.Header().Get("X-Request-ID") != body.RequestID {
		t.Errorf("RequestID() failed: header %q, context %q", w.Header().Get("X-Request-ID"), body.RequestID)
	}

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Request-ID", "req-42")
	_, body = probe(t, engine, req)
	if body.RequestID != "req-42" {
		t.Errorf("RequestID() should keep the caller's id, got %q", body.RequestID)
	}
}

func TestBearerClaims(t *testing.T) {
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: "local-secret", TokenDuration: time.Hour})
	other := auth.NewTokenService(auth.TokenConfig{Secret: "other-secret"})
	engine := newEngine(BearerClaims(tokens, testLogger()))

	valid, err := tokens.GenerateToken("user-1", "a@example.com", []string{"coaches"}, "")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	forged, err := other.GenerateToken("user-1", "", nil, "")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		wantSub string
	}{
		{"valid token", "Bearer " + valid, "user-1"},
		{"lowercase scheme", "bearer " + valid, "user-1"},
		{"no header", "", ""},
		{"wrong scheme", "Basic " + valid, ""},
		{"wrong signature", "Bearer " + forged, ""},
		{"garbage", "Bearer not-a-token", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w, body := probe(t, engine, req)
			if w.Code != http.StatusOK {
				t.Fatalf("BearerClaims() should never reject, got %d", w.Code)
			}
			sub, _ := body.Claims[auth.ClaimSubject].(string)
			if sub != tt.wantSub {
				t.Errorf("BearerClaims() sub = %q, want %q", sub, tt.wantSub)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	engine := newEngine(RequestID(), RateLimiter(0.001, 2, testLogger()))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if w, _ := probe(t, engine, req); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w, _ := probe(t, engine, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	var envelope lambda.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil || envelope.Error == "" {
		t.Errorf("RateLimiter() body = %s", w.Body.String())
	}
	if w.Header().Get("Retry-After") == "" {
		t.Errorf("RateLimiter() missing Retry-After")
	}

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	if w, _ := probe(t, engine, req); w.Code != http.StatusOK {
		t.Errorf("other clients should not share the bucket, got %d", w.Code)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	engine := newEngine(RequestSizeLimit(8))

	req := httptest.NewRequest(http.MethodPost, "/probe", strings.NewReader(`{"too":"large"}`))
	w, _ := probe(t, engine, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/probe", strings.NewReader(`{}`))
	if w, _ := probe(t, engine, req); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	engine := newEngine(SecurityHeaders())
	w, _ := probe(t, engine, httptest.NewRequest(http.MethodGet, "/probe", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("SecurityHeaders() missing %s", h)
		}
	}
}
