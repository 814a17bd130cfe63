package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims issued for local development. They mirror the
// Cognito ID token keys so both modes share one extractor.
type Claims struct {
	Email      string   `json:"email,omitempty"`
	Groups     []string `json:"cognito:groups,omitempty"`
	CustomRole string   `json:"custom:role,omitempty"`
	jwt.RegisteredClaims
}

// Bag converts the claims into the map shape the authorizer produces
func (c *Claims) Bag() map[string]any {
	bag := map[string]any{ClaimSubject: c.Subject}
	if c.Email != "" {
		bag[ClaimEmail] = c.Email
	}
	if len(c.Groups) > 0 {
		groups := make([]any, len(c.Groups))
		for i, g := range c.Groups {
			groups[i] = g
		}
		bag[ClaimGroups] = groups
	}
	if c.CustomRole != "" {
		bag[ClaimCustomRole] = c.CustomRole
	}
	return bag
}

// TokenConfig holds token signing configuration
type TokenConfig struct {
	Secret        string
	TokenDuration time.Duration
	Issuer        string
}

// TokenService issues and validates HS256 bearer tokens
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a new token service
func NewTokenService(config TokenConfig) *TokenService {
	if config.TokenDuration == 0 {
		config.TokenDuration = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "athletehub-api"
	}
	return &TokenService{config: config}
}

// GenerateToken generates a signed token for a user
func (s *TokenService) GenerateToken(userID, email string, groups []string, customRole string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:      email,
		Groups:     groups,
		CustomRole: customRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a token and returns its claims
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
