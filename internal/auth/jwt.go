package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the API's bearer token the console looks at.
// The signature is verified by the API, not here.
type Claims struct {
	jwt.RegisteredClaims
}

// InspectToken decodes a bearer token without verifying it. Tokens that are
// not JWTs (opaque API tokens) return ok=false and no error.
func InspectToken(tokenStr string) (claims *Claims, ok bool) {
	claims = &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// Expired reports whether tokenStr is a JWT whose exp claim is at or before
// now. Opaque tokens never expire client-side.
func Expired(tokenStr string, now time.Time) bool {
	claims, ok := InspectToken(tokenStr)
	if !ok || claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// Subject returns the token's sub claim, if any.
func Subject(tokenStr string) string {
	claims, ok := InspectToken(tokenStr)
	if !ok {
		return ""
	}
	return claims.Subject
}

func describe(tokenStr string) string {
	claims, ok := InspectToken(tokenStr)
	if !ok {
		return "opaque"
	}
	if claims.ExpiresAt == nil {
		return "jwt"
	}
	return fmt.Sprintf("jwt exp=%s", claims.ExpiresAt.Time.Format(time.RFC3339))
}
