package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/response"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
)

// Context keys for operator information
const (
	ContextKeyOperatorID = "operator_id"
	ContextKeyRole       = "role"
)

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	// Secret key for validating HMAC-signed tokens
	Secret string
	// Issuer, when set, must match the iss claim
	Issuer string
	// SkipPaths is a list of paths that should skip JWT validation
	SkipPaths []string
}

// OperatorClaims are the claims carried by gate staff tokens.
// The operator id travels in sub; older tokens use operator_id.
type OperatorClaims struct {
	OperatorID string `json:"operator_id,omitempty"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

func (c *OperatorClaims) operatorID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.OperatorID
}

// JWTMiddleware validates the bearer token and injects operator identity
func JWTMiddleware(config *JWTConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			code := "INVALID_TOKEN"
			if errors.Is(err, ErrMissingAuthHeader) {
				code = "MISSING_TOKEN"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(code, err.Error()))
			return
		}

		claims := &OperatorClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(config.Secret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("TOKEN_EXPIRED", "Access token has expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid access token"))
			return
		}
		if !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid access token"))
			return
		}

		operatorID := claims.operatorID()
		if operatorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Missing operator id in token"))
			return
		}

		c.Set(ContextKeyOperatorID, operatorID)
		c.Set(ContextKeyRole, strings.ToLower(claims.Role))

		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// RequireRole creates a middleware that checks if the operator has one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("Operator not authenticated"))
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden("Insufficient permissions"))
	}
}

// GetOperatorID extracts operator ID from gin context
func GetOperatorID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyOperatorID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// GetRole extracts role from gin context
func GetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyRole)
	if !exists {
		return "", false
	}
	r, ok := v.(string)
	return r, ok
}
