package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims extends standard JWT claims with the roles the API layer
// needs to rebuild a Principal.
type TokenClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// TokenManager issues and validates principal tokens for the HTTP surface.
type TokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret []byte, issuer string) *TokenManager {
	return &TokenManager{secret: secret, issuer: issuer}
}

// Generate creates a signed JWT for a Principal.
func (tm *TokenManager) Generate(p Principal, duration time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.GetID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			Issuer:    tm.issuer,
		},
		Roles: p.GetRoles(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate parses a token string and rebuilds the Principal it names.
func (tm *TokenManager) Validate(tokenString string) (Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tm.issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return &BasePrincipal{ID: claims.Subject, Roles: claims.Roles}, nil
}
