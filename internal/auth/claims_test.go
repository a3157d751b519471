package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing-0123"

func TestGenerateAndParseAccessToken(t *testing.T) {
	signer := NewSigner(testSecret, "bosves-api", time.Hour)

	token, err := signer.GenerateAccessToken("weighbridge-2", RoleOperator)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q is not a compact JWT", token)
	}

	claims, err := signer.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	p := claims.Principal()
	if p.Subject != "weighbridge-2" {
		t.Errorf("Subject = %q, want %q", p.Subject, "weighbridge-2")
	}
	if p.Role != RoleOperator {
		t.Errorf("Role = %q, want %q", p.Role, RoleOperator)
	}
	if p.TokenID == "" {
		t.Error("JTI should not be empty")
	}
	if claims.Issuer != "bosves-api" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("lifetime = %v, want 1h", got)
	}
}

func TestGenerateAccessToken_Rejects(t *testing.T) {
	signer := NewSigner(testSecret, "", time.Hour)

	if _, err := signer.GenerateAccessToken("", RoleReader); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("empty subject error = %v", err)
	}
	if _, err := signer.GenerateAccessToken("x", Role("admin")); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("unknown role error = %v", err)
	}
}

func TestNewSigner_DefaultTTL(t *testing.T) {
	if got := NewSigner(testSecret, "", 0).TTL(); got != defaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", got, defaultTokenTTL)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := NewSigner(testSecret, "", time.Hour).GenerateAccessToken("a", RoleReader)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	_, err = NewSigner("another-secret-key-for-jwt-signing!!", "", time.Hour).ParseToken(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	signer := NewSigner(testSecret, "", time.Hour)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := signer.GenerateAccessToken("a", RoleReader)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	signer.now = time.Now
	_, err = signer.ParseToken(token)
	if !errors.Is(err, ErrTokenInvalid) || !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("ParseToken() error = %v, want expired ErrTokenInvalid", err)
	}
}

func TestParseToken_WrongIssuer(t *testing.T) {
	token, err := NewSigner(testSecret, "someone-else", time.Hour).GenerateAccessToken("a", RoleReader)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := NewSigner(testSecret, "bosves-api", time.Hour).ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	signer := NewSigner(testSecret, "", time.Hour)

	for _, token := range []string{"", "not-a-valid-jwt", "a.b.c"} {
		if _, err := signer.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("ParseToken(%q) error = %v, want ErrTokenInvalid", token, err)
		}
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleOperator,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := NewSigner(testSecret, "", time.Hour).ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken(HS512) error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_UnknownRole(t *testing.T) {
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: Role("admin"),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	_, err = NewSigner(testSecret, "", time.Hour).ParseToken(token)
	if err == nil || !strings.Contains(err.Error(), "unknown role") {
		t.Errorf("ParseToken() error = %v, want unknown role", err)
	}
}
