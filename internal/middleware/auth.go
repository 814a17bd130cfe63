package middleware

import (
	"athletehub-api/internal/auth"
	"athletehub-api/pkg/lambda"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BearerClaims stands in for the Cognito authorizer locally. A valid bearer
// token becomes the claim bag the dispatcher reads; a missing or invalid one
// leaves the bag empty so protected routes answer 401 from the dispatcher.
func BearerClaims(tokens *auth.TokenService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := auth.BearerToken(header)
		if !ok {
			logger.WithField("path", c.Request.URL.Path).Debug("Malformed authorization header")
			c.Next()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"error": err.Error(),
				"path":  c.Request.URL.Path,
			}).Warn("Token validation failed")
			c.Next()
			return
		}

		c.Set(lambda.ClaimsContextKey, claims.Bag())
		logger.WithFields(logrus.Fields{
			"user_id": claims.Subject,
			"path":    c.Request.URL.Path,
		}).Debug("User authenticated successfully")

		c.Next()
	}
}

// subjectOf returns the authenticated subject, if any
func subjectOf(c *gin.Context) string {
	value, ok := c.Get(lambda.ClaimsContextKey)
	if !ok {
		return ""
	}
	bag, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	sub, _ := bag[auth.ClaimSubject].(string)
	return sub
}
