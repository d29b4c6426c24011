package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/model"
)

// minimum-length policy for new passwords
const MinPasswordLen = 8

func HashPassword(pw string) (string, error) {
	if len(pw) < MinPasswordLen {
		return "", apperr.ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

type Claims struct {
	UserID string     `json:"uid"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// MakeToken issues a signed stateless session token embedding the user
// id, role and expiry.
func MakeToken(uid string, role model.Role, secret string, ttl time.Duration) (string, error) {
	c := Claims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ParseToken verifies signature and expiry without any store round-trip.
// Expired tokens are reported distinctly from malformed or forged ones.
func ParseToken(raw, secret string) (*model.Identity, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.ErrExpiredToken, err)
		}
		return nil, apperr.Wrap(apperr.ErrInvalidToken, err)
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.UserID == "" || !c.Role.Valid() {
		return nil, apperr.ErrInvalidToken
	}
	return &model.Identity{UserID: c.UserID, Role: c.Role}, nil
}
