package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}
	return s
}

func TestDiscoverOrder(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "token")
	if err := Save(file, "from-file"); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	t.Setenv(EnvToken, "from-env")

	tok, err := Discover("from-flag", file)
	if err != nil || tok.Source != SourceFlag || tok.Raw != "from-flag" {
		t.Errorf("flag: %+v %v", tok, err)
	}

	tok, err = Discover("", file)
	if err != nil || tok.Source != SourceEnv || tok.Raw != "from-env" {
		t.Errorf("env: %+v %v", tok, err)
	}

	t.Setenv(EnvToken, "")
	tok, err = Discover("", file)
	if err != nil || tok.Source != SourceFile || tok.Raw != "from-file" {
		t.Errorf("file: %+v %v", tok, err)
	}
}

func TestDiscoverNoToken(t *testing.T) {
	t.Setenv(EnvToken, "")
	_, err := Discover("", filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestInspectClaims(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	raw := signed(t, jwt.MapClaims{
		"sub":   "uid-1",
		"name":  "Ada",
		"email": "ada@example.com",
		"exp":   exp.Unix(),
	})

	tok, err := Discover(raw, "")
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if tok.Claims.Subject != "uid-1" || tok.Who() != "Ada" {
		t.Errorf("unexpected claims: %+v", tok.Claims)
	}
	if !tok.Claims.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, expected %v", tok.Claims.ExpiresAt, exp)
	}
	if !tok.Expired(time.Now()) {
		t.Error("token should be expired")
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	if _, err := Inspect("opaque-token"); !errors.Is(err, ErrNotJWT) {
		t.Errorf("expected ErrNotJWT, got %v", err)
	}

	tok, err := Discover("opaque-token", "")
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if tok.Expired(time.Now()) || tok.Who() != "anonymous" {
		t.Errorf("opaque token should have no claims: %+v", tok)
	}
}
