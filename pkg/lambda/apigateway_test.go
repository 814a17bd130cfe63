package lambda

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func proxyEvent(method, path, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID: "aws-req-1",
			Identity:  events.APIGatewayRequestIdentity{SourceIP: "203.0.113.9"},
			Authorizer: map[string]interface{}{
				"claims": map[string]interface{}{
					"sub":            "u1",
					"cognito:groups": "[athletes]",
				},
			},
		},
	}
}

func TestFromProxyRequest(t *testing.T) {
	event := proxyEvent(http.MethodPost, "/prod/follows", `{"followingId":"u2"}`)
	event.QueryStringParameters = map[string]string{"q": "ana"}

	req, err := FromProxyRequest(event, "/prod")
	if err != nil {
		t.Fatalf("FromProxyRequest() failed: %v", err)
	}
	if req.Path != "/follows" {
		t.Errorf("Path = %q", req.Path)
	}
	if req.Claims["sub"] != "u1" {
		t.Errorf("claims not extracted: %v", req.Claims)
	}
	if req.SourceIP != "203.0.113.9" || req.RequestID != "aws-req-1" {
		t.Errorf("SourceIP = %q, RequestID = %q", req.SourceIP, req.RequestID)
	}
	if req.Query("q") != "ana" || req.Header("content-type") != "application/json" {
		t.Errorf("query or headers not copied")
	}
	if string(req.Body) != `{"followingId":"u2"}` {
		t.Errorf("Body = %s", req.Body)
	}
}

func TestFromProxyRequest_Base64(t *testing.T) {
	event := proxyEvent(http.MethodPost, "/webhooks/stripe", base64.StdEncoding.EncodeToString([]byte(`{"id":"evt"}`)))
	event.IsBase64Encoded = true

	req, err := FromProxyRequest(event, "")
	if err != nil {
		t.Fatalf("FromProxyRequest() failed: %v", err)
	}
	if string(req.Body) != `{"id":"evt"}` {
		t.Errorf("Body = %s", req.Body)
	}

	event.Body = "%%%"
	if _, err := FromProxyRequest(event, ""); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestStripBasePath(t *testing.T) {
	tests := []struct {
		path, base, want string
	}{
		{"/prod/challenges/c1", "/prod", "/challenges/c1"},
		{"/prod", "prod", "/"},
		{"/production/x", "/prod", "/production/x"},
		{"/challenges", "", "/challenges"},
		{"/challenges", "/", "/challenges"},
	}
	for _, tt := range tests {
		if got := stripBasePath(tt.path, tt.base); got != tt.want {
			t.Errorf("stripBasePath(%q, %q) = %q, want %q", tt.path, tt.base, got, tt.want)
		}
	}
}

func TestProxyHandler(t *testing.T) {
	h := &countingHandler{}
	handler := NewProxyHandler(newTestRouter(h), "/prod")

	resp, err := handler(context.Background(), proxyEvent(http.MethodGet, "/prod/challenges/c1", ""))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != `{"id":"c1"}` {
		t.Errorf("response = %d %s", resp.StatusCode, resp.Body)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Errorf("missing CORS header")
	}

	bad := proxyEvent(http.MethodPost, "/prod/challenges/c1/submissions", "%%%")
	bad.IsBase64Encoded = true
	resp, err = handler(context.Background(), bad)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest || resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Errorf("undecodable body should yield 400 with CORS, got %d", resp.StatusCode)
	}
}
