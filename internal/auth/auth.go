// Package auth verifies bearer credentials and resolves them to a user id.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	bearerPrefix = "Bearer "
	tokenIssuer  = "assets-service"
)

var (
	// ErrMissingCredential is returned when the header is absent or is not a
	// bearer credential.
	ErrMissingCredential = errors.New("missing bearer credential")
	// ErrInvalidCredential is returned when the token fails verification or
	// has expired.
	ErrInvalidCredential = errors.New("invalid bearer credential")
)

// Gate turns an Authorization header into a user id.
type Gate struct {
	secret []byte
}

func NewGate(secret string) *Gate {
	return &Gate{secret: []byte(secret)}
}

// Authenticate extracts the bearer token from header and verifies it.
func (g *Gate) Authenticate(header string) (string, error) {
	token, err := BearerToken(header)
	if err != nil {
		return "", err
	}
	return g.AuthenticateToken(token)
}

// AuthenticateToken verifies a raw token string and returns its subject.
func (g *Gate) AuthenticateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingCredential
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidCredential)
	}

	return claims.Subject, nil
}

// BearerToken pulls the token out of an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMissingCredential
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// CreateToken signs an HS256 token for userID that expires after ttl.
func CreateToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
