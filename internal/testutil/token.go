package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = []byte("test-secret")

// MakeJWT signs an HS256 token carrying sub, username and exp. A zero exp
// omits the claim.
func MakeJWT(t testing.TB, sub, username string, exp time.Time) string {
	t.Helper()
	token, err := signJWT(sub, username, exp)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return token
}

func signJWT(sub, username string, exp time.Time) (string, error) {
	claims := jwt.MapClaims{"sub": sub, "username": username}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}
