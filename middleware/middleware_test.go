package middleware

import (
	"testing"
	"time"

	"mediloon/globals"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := Claims{
		Username: "tester",
		UserID:   userID,
		Role:     []string{"customer"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Subject:   userID,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestValidateJWT(t *testing.T) {
	globals.JwtSecret = []byte("test-secret")
	token := signToken(t, "u1")

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("bare token rejected: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("claims.UserID = %q, want u1", claims.UserID)
	}

	// Query-parameter tokens sometimes arrive with the header prefix.
	if _, err := ValidateJWT("Bearer " + token); err != nil {
		t.Fatalf("prefixed token rejected: %v", err)
	}

	if _, err := ValidateJWT(""); err == nil {
		t.Fatal("empty token accepted")
	}
	if _, err := ValidateJWT("not.a.token"); err == nil {
		t.Fatal("garbage token accepted")
	}

	globals.JwtSecret = []byte("other-secret")
	if _, err := ValidateJWT(token); err != nil {
		return
	}
	t.Fatal("token signed with a different secret accepted")
}
