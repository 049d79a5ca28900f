// Package jwttoken issues and validates the HS256 bearer tokens accepted by
// the admin API as an alternative to the static admin token.
package jwttoken

import (
	"errors"
	"slices"
	"strings"
	"time"

	dErrors "tokenscope/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ScopeACLAdmin grants full access to the token administration API.
const ScopeACLAdmin = "acl:admin"

// Claims represents the JWT claims of an admin bearer token. Scope is a
// space-delimited list, as in OAuth 2.0.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Scopes returns the individual scopes carried by the token.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes(), scope)
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey string, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateAdminToken signs a token for subject carrying the given scopes.
func (s *JWTService) GenerateAdminToken(subject string, scopes []string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	return newToken.SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}

	return claims, nil
}
