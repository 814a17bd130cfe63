package lambda

import (
	"context"
	"encoding/base64"
	"strings"

	"athletehub-api/internal/apperrors"

	"github.com/aws/aws-lambda-go/events"
)

// ProxyHandler is the Lambda entry signature for API Gateway proxy events
type ProxyHandler func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewProxyHandler adapts a router to API Gateway. basePath is stripped from
// incoming paths (custom domain mappings include it).
func NewProxyHandler(router *Router, basePath string) ProxyHandler {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := FromProxyRequest(event, basePath)
		if err != nil {
			rejected := &Request{Method: event.HTTPMethod, Path: event.Path, RequestID: event.RequestContext.RequestID}
			return ToProxyResponse(router.Reject(rejected, err)), nil
		}
		return ToProxyResponse(router.Dispatch(ctx, req)), nil
	}
}

// FromProxyRequest converts an API Gateway proxy event
func FromProxyRequest(event events.APIGatewayProxyRequest, basePath string) (*Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded && event.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, apperrors.Malformed("request body is not valid base64", err)
		}
		body = decoded
	}

	headers := make(map[string]string, len(event.Headers)+len(event.MultiValueHeaders))
	for k, values := range event.MultiValueHeaders {
		if len(values) > 0 {
			headers[k] = values[0]
		}
	}
	for k, v := range event.Headers {
		headers[k] = v
	}

	query := make(map[string]string, len(event.QueryStringParameters))
	for k, values := range event.MultiValueQueryStringParameters {
		if len(values) > 0 {
			query[k] = values[0]
		}
	}
	for k, v := range event.QueryStringParameters {
		query[k] = v
	}

	req := &Request{
		Method:      strings.ToUpper(event.HTTPMethod),
		Path:        stripBasePath(event.Path, basePath),
		Headers:     headers,
		QueryParams: query,
		Body:        body,
		Claims:      authorizerClaims(event.RequestContext.Authorizer),
		SourceIP:    event.RequestContext.Identity.SourceIP,
	}
	req.RequestID = req.Header("X-Request-ID")
	if req.RequestID == "" {
		req.RequestID = event.RequestContext.RequestID
	}
	return req, nil
}

// ToProxyResponse converts a gateway response for API Gateway
func ToProxyResponse(resp *Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}

// authorizerClaims reads the Cognito user pool authorizer claims. Lambda
// authorizers put their context at the top level instead.
func authorizerClaims(authorizer map[string]interface{}) map[string]any {
	if authorizer == nil {
		return nil
	}
	if claims, ok := authorizer["claims"].(map[string]interface{}); ok {
		return claims
	}
	if _, ok := authorizer["sub"]; ok {
		return authorizer
	}
	return nil
}

func stripBasePath(path, basePath string) string {
	basePath = "/" + strings.Trim(basePath, "/")
	if basePath != "/" && (path == basePath || strings.HasPrefix(path, basePath+"/")) {
		path = strings.TrimPrefix(path, basePath)
	}
	if path == "" {
		return "/"
	}
	return path
}
