// Package middleware holds the gin middleware used by the local development
// server. In Lambda mode the API Gateway authorizer and the dispatcher cover
// the same concerns.
package middleware

import (
	"fmt"
	"net/http"

	"athletehub-api/pkg/lambda"

	"github.com/gin-gonic/gin"
)

// abortWithError writes the gateway error envelope and stops the chain
func abortWithError(c *gin.Context, status int, title, message string) {
	if id := c.GetString(lambda.RequestIDContextKey); id != "" {
		c.Header("X-Request-ID", id)
	}
	c.AbortWithStatusJSON(status, lambda.ErrorBody{Error: title, Message: message})
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Header("Server", "")
		c.Next()
	}
}

// RequestSizeLimit rejects bodies larger than maxSize
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			abortWithError(c, http.StatusRequestEntityTooLarge, "Request too large",
				fmt.Sprintf("request body exceeds %d bytes", maxSize))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
