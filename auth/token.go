package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "chat-relay"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Gate verifies bearer credentials and issues new ones.
// It holds no mutable state and is safe for concurrent use.
type Gate struct {
	secret        []byte
	tokenDuration time.Duration
	now           func() time.Time
}

func NewGate(secret string, tokenDuration time.Duration) *Gate {
	return &Gate{secret: []byte(secret), tokenDuration: tokenDuration, now: time.Now}
}

// GenerateToken creates a signed JWT for a specific user.
func (g *Gate) GenerateToken(userID domain.UserID) (string, error) {
	now := g.now()
	claims := &CustomClaims{
		UserID: string(userID),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(g.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	// HS256 (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// Authenticate checks the signature and expiry of a credential and returns its identity.
// The credential may carry the "Bearer " prefix.
func (g *Gate) Authenticate(credential string) (domain.UserID, error) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(credential), "Bearer "))
	if tokenString == "" {
		return "", fmt.Errorf("%w: missing token", errors.ErrUnauthenticated)
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("%w: invalid claims", errors.ErrUnauthenticated)
	}
	return domain.UserID(claims.UserID), nil
}
