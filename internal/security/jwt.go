package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a token that failed verification or expired.
var ErrInvalidToken = errors.New("security: invalid token")

// Claims is the JWT payload issued to authenticated users.
type Claims struct {
	UserID uint64 `json:"uid"`  // Authenticated user.
	Role   string `json:"role"` // Role at issue time.
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

// NewTokenIssuer constructs a TokenIssuer from the shared secret and expiry.
func NewTokenIssuer(secret string, expiry time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("security: empty jwt secret")
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("security: non-positive jwt expiry")
	}
	return &TokenIssuer{secret: []byte(secret), expiry: expiry}, nil
}

// Issue signs a token for the user.
func (i *TokenIssuer) Issue(userID uint64, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString(i.secret)
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func (i *TokenIssuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, errParse := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if errParse != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
