package utils // package utils provides helpers for token creation, hashing and OTPs

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A bearer token is only honoured on routes that accept
// its purpose.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
	PurposeOTP     = "otp"
)

// Claims is the JWT payload for every token the portal issues.
type Claims struct {
	UserID  uint64 `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// SignedToken is a serialized JWT together with its expiry.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// ErrWrongSigningMethod is returned by ParseToken for non-HMAC tokens.
var ErrWrongSigningMethod = errors.New("unexpected signing method")

// NewToken builds and signs an HS256 JWT for userID with the given purpose
// and lifetime.
func NewToken(secret string, userID uint64, isAdmin bool, purpose string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies signature and expiry and returns the claims. Errors
// wrap the jwt sentinel errors (jwt.ErrTokenExpired and friends) so callers
// can classify them with errors.Is.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrWrongSigningMethod
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// Signature returns the third dot-separated segment of a JWT, or "" when
// raw is not shaped like one.
func Signature(raw string) string {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}

// SameSignature compares the signature segments of two JWTs in constant time.
func SameSignature(a, b string) bool {
	sa, sb := Signature(a), Signature(b)
	if sa == "" || sb == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sa), []byte(sb)) == 1
}
