package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
)

// TokenIssuer signs and verifies HS256 session tokens carrying the uid
// in "sub" and the admin flag in "isAdmin".
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) Issue(uid string, isAdmin bool) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":     uid,
		"isAdmin": isAdmin,
		"iat":     now.Unix(),
		"exp":     now.Add(i.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *TokenIssuer) Verify(tokenString string) (*domain.Caller, error) {
	if tokenString == "" {
		return nil, domain.ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, domain.ErrInvalidToken
	}

	isAdmin, _ := claims["isAdmin"].(bool)
	return &domain.Caller{UID: sub, IsAdmin: isAdmin}, nil
}
