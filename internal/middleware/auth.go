package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/dwell-backend-go/pkg/response"
)

// SubjectKey is the gin context key holding the authenticated token subject
const SubjectKey = "subject"

// Claims carried by API tokens
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for subject valid for ttl
func IssueToken(secret, issuer, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims := &Claims{
		Scope: "api",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies signature, expiry and issuer
func ParseToken(secret, issuer, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Auth requires a valid bearer token. An empty secret disables the check.
func Auth(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing Authorization header")
			return
		}

		scheme, tokenStr, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
			response.Unauthorized(c, "invalid Authorization format")
			return
		}

		claims, err := ParseToken(secret, issuer, strings.TrimSpace(tokenStr))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}
