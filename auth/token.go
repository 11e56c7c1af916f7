package auth

import (
	"fmt"
	"slices"
	"stream-lab/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "stream-lab"

// StreamClaims is the payload of a stream token.
// An empty Resources list grants every resource.
type StreamClaims struct {
	Resources []string `json:"resources,omitempty"`
	jwt.RegisteredClaims
}

func (c StreamClaims) Allows(resource string) bool {
	return len(c.Resources) == 0 || slices.Contains(c.Resources, resource)
}

// GenerateToken signs a token for subject with HS256.
func GenerateToken(secret []byte, subject string, resources []string,
	authTokenDuration time.Duration) (string, error) {
	now := time.Now()
	claims := &StreamClaims{
		Resources: resources,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(authTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken checks signature, expiration and issuer.
// Every failure wraps errors.ErrUnauthorized.
func ValidateToken(secret []byte, tokenString string) (*StreamClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StreamClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrUnauthorized, err)
	}

	if claims, ok := token.Claims.(*StreamClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("%w: %w", errors.ErrUnauthorized, jwt.ErrSignatureInvalid)
}
