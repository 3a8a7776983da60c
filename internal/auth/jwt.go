// Package auth issues and verifies the bearer session tokens used by the
// API. Tokens are self-contained HS256 JWTs: validity is purely signature
// plus expiry, so a token cannot be revoked before it expires. Rotating the
// signing secret invalidates every outstanding token.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiry is how long issued tokens remain valid. There is no refresh
// mechanism; clients re-authenticate after expiry.
const DefaultExpiry = 12 * time.Hour

// Claims carries the identity embedded in a session token. OrgName is set
// only for organization accounts.
type Claims struct {
	UserID      int64  `json:"id"`
	Email       string `json:"email"`
	AccountType string `json:"type"`
	OrgName     string `json:"orgName,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// JWTManager signs and verifies session tokens against a process-wide secret.
type JWTManager struct {
	secret []byte
	expiry time.Duration
	issuer string
}

func NewJWTManager(secret string, expiry time.Duration, issuer string) *JWTManager {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &JWTManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Generate issues a signed token embedding the given identity with an
// absolute expiry of the manager's configured duration from now.
func (m *JWTManager) Generate(claims Claims) (string, error) {
	if claims.UserID == 0 || claims.Email == "" {
		return "", ErrInvalidToken
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.Email,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(m.secret)
}

// Validate verifies signature and expiry and returns the embedded claims.
// Expired tokens fail with ErrExpiredToken; anything else malformed (wrong
// structure, wrong signature, wrong algorithm) fails with ErrInvalidToken.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenFromHeader extracts the token from an Authorization header value.
// Anything that is not exactly "Bearer <token>" is rejected.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
