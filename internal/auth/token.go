// Package auth finds the player's bearer token and inspects its claims.
//
// Tokens are issued by the progress backend; the client never verifies
// signatures, it only reads claims to report who is signed in and to warn
// about expired tokens before any network call.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EnvToken is the environment variable holding the token.
const EnvToken = "CODEQUEST_TOKEN"

var (
	// ErrNoToken is returned when no source provides a token.
	ErrNoToken = errors.New("auth: no token")
	// ErrNotJWT is returned by Inspect for opaque tokens.
	ErrNotJWT = errors.New("auth: token is not a JWT")
)

// Source names where a token was found.
type Source string

const (
	SourceFlag Source = "flag"
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// Claims are the fields the client cares about.
type Claims struct {
	Subject   string
	Name      string
	Email     string
	ExpiresAt time.Time
}

// Token is a discovered bearer token.
type Token struct {
	Raw    string
	Source Source
	// Claims is zero for opaque tokens.
	Claims Claims
}

// Expired reports whether the token carries an expiry before now.
func (t Token) Expired(now time.Time) bool {
	return !t.Claims.ExpiresAt.IsZero() && now.After(t.Claims.ExpiresAt)
}

// Who returns a display name for the token owner.
func (t Token) Who() string {
	switch {
	case t.Claims.Name != "":
		return t.Claims.Name
	case t.Claims.Email != "":
		return t.Claims.Email
	case t.Claims.Subject != "":
		return t.Claims.Subject
	default:
		return "anonymous"
	}
}

// DefaultTokenFile returns ~/.codequest/token.
func DefaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".codequest", "token")
	}
	return filepath.Join(home, ".codequest", "token")
}

// Discover looks for a token in flag, then $CODEQUEST_TOKEN, then
// tokenFile (DefaultTokenFile when empty).
func Discover(flag, tokenFile string) (Token, error) {
	if tokenFile == "" {
		tokenFile = DefaultTokenFile()
	}

	var t Token
	switch {
	case strings.TrimSpace(flag) != "":
		t = Token{Raw: strings.TrimSpace(flag), Source: SourceFlag}
	case strings.TrimSpace(os.Getenv(EnvToken)) != "":
		t = Token{Raw: strings.TrimSpace(os.Getenv(EnvToken)), Source: SourceEnv}
	default:
		data, err := os.ReadFile(tokenFile)
		if errors.Is(err, os.ErrNotExist) {
			return Token{}, ErrNoToken
		}
		if err != nil {
			return Token{}, fmt.Errorf("auth: cannot read token file: %w", err)
		}
		raw := strings.TrimSpace(string(data))
		if raw == "" {
			return Token{}, ErrNoToken
		}
		t = Token{Raw: raw, Source: SourceFile}
	}

	if claims, err := Inspect(t.Raw); err == nil {
		t.Claims = claims
	}
	return t, nil
}

// Inspect decodes JWT claims without verifying the signature.
func Inspect(raw string) (Claims, error) {
	if strings.Count(raw, ".") != 2 {
		return Claims{}, ErrNotJWT
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	c.Name, _ = mc["name"].(string)
	c.Email, _ = mc["email"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Save writes the token to path with owner-only permissions.
func Save(path, raw string) error {
	if path == "" {
		path = DefaultTokenFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("auth: cannot create token dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(raw)+"\n"), 0o600); err != nil {
		return fmt.Errorf("auth: cannot write token: %w", err)
	}
	return nil
}
