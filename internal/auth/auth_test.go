package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()

	valid := Static(&oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(time.Hour)})
	tok, err := valid.Token(ctx)
	if err != nil || tok.AccessToken != "abc" {
		t.Fatalf("Token() = %v, %v", tok, err)
	}

	expired := Static(&oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(-time.Hour)})
	if _, err := expired.Token(ctx); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expired token should be missing, got %v", err)
	}
}

func TestNewWithoutConfigIsNone(t *testing.T) {
	p, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Token(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestNewFromTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	body := `{"access_token":"tok","token_type":"Bearer","expiry":"` + time.Now().Add(time.Hour).Format(time.RFC3339) + `"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := New(context.Background(), Config{OAuthTokenFile: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tok, err := p.Token(context.Background())
	if err != nil || tok.AccessToken != "tok" {
		t.Fatalf("Token() = %v, %v", tok, err)
	}
}

func TestNewReportsUnreadableFile(t *testing.T) {
	_, err := New(context.Background(), Config{OAuthTokenFile: filepath.Join(t.TempDir(), "missing.json")})
	if err == nil {
		t.Fatal("expected error for missing token file")
	}
}

func TestSwitchable(t *testing.T) {
	s := NewSwitchable(nil)
	if _, err := s.Token(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Fatal("nil provider should behave as None")
	}
	s.Set(Static(&oauth2.Token{AccessToken: "x"}))
	if tok, err := TokenSource(context.Background(), s).Token(); err != nil || tok.AccessToken != "x" {
		t.Fatalf("Token() = %v, %v", tok, err)
	}
}
