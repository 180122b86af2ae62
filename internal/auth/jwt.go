package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lalith-99/questboard/internal/models"
)

const issuer = "questboard"

// Claims is the payload inside every JWT token.
//
// Signup and login put these fields into a token. On every later request
// the middleware reads them back, which is how the server knows who is
// calling, and whether they hire or look for work, without hitting the
// database.
//
// Embedding jwt.RegisteredClaims gives us the standard fields (exp, iat,
// iss, sub) that jwt tooling already understands. Our own fields sit on
// top of them.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	Email  string      `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a given user.
//
// Parameters:
//   - userID, role, email: who this token represents.
//   - secret: the HMAC key to sign with (from config.JWTSecret).
//   - ttl: how long until the token expires (config.TokenTTL).
//
// Returns the signed token string (e.g., "eyJhbGciOi...").
//
// HS256 keeps things to one shared secret. That is enough while a single
// service both issues and verifies tokens. If other services ever need to
// verify without being able to issue, switch to RS256 so only this one
// holds the private key.
func GenerateToken(userID string, role models.Role, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates a JWT string and extracts the claims.
//
// It verifies:
//  1. The signature matches our secret.
//  2. The token hasn't expired.
//  3. The signing method is HMAC, so a token signed with "none" or RSA is
//     rejected before its signature is even looked at.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("token is missing user or role")
	}

	return claims, nil
}

// Identity returns the caller identity the claims describe.
//
// Handlers and services work with Identity rather than Claims so they
// never depend on the token format.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role, Email: c.Email}
}
