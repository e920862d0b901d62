package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mint(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": float64(42),
		"iss": "Gaadi",
		"aud": "Gaadi",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
}

func TestValidateAccessToken(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "Gaadi", "Gaadi")

	parsed, err := a.ValidateAccessToken(mint(t, "test-secret", validClaims()))
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if !parsed.Valid {
		t.Error("token should be valid")
	}
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "Gaadi", "Gaadi")

	if _, err := a.ValidateAccessToken(mint(t, "other-secret", validClaims())); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "Gaadi", "Gaadi")

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()

	if _, err := a.ValidateAccessToken(mint(t, "test-secret", claims)); err == nil {
		t.Error("expired token must not validate")
	}
}

func TestValidateAccessTokenWrongIssuer(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "Gaadi", "Gaadi")

	claims := validClaims()
	claims["iss"] = "someone-else"

	if _, err := a.ValidateAccessToken(mint(t, "test-secret", claims)); err == nil {
		t.Error("token from another issuer must not validate")
	}
}

func TestValidateAccessTokenMissingExpiry(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "Gaadi", "Gaadi")

	claims := validClaims()
	delete(claims, "exp")

	if _, err := a.ValidateAccessToken(mint(t, "test-secret", claims)); err == nil {
		t.Error("token without expiry must not validate")
	}
}
