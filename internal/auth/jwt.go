package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("empty signing secret")
)

type TokenMaker struct {
	secret []byte
	issuer string
}

func NewTokenMaker(secret, issuer string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: issuer,
	}
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// New signs an HS256 token for subject carrying role.
func (t *TokenMaker) New(subject, role string, ttl time.Duration) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrEmptySecret
	}

	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return c, nil
}
