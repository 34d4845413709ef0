// Package auth supplies the bearer credential used for spreadsheet calls.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// ErrMissingCredential means there is no usable token: none configured,
// expired without a way to refresh, or the refresh itself failed.
var ErrMissingCredential = errors.New("missing or expired credential")

// Provider hands out a valid token or ErrMissingCredential.
type Provider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Config names where credentials come from. Inline JSON wins over files.
type Config struct {
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type sourceProvider struct {
	ts oauth2.TokenSource
}

func (p *sourceProvider) Token(context.Context) (*oauth2.Token, error) {
	tok, err := p.ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	if !tok.Valid() {
		return nil, ErrMissingCredential
	}
	return tok, nil
}

// FromTokenSource adapts any oauth2.TokenSource.
func FromTokenSource(ts oauth2.TokenSource) Provider {
	return &sourceProvider{ts: oauth2.ReuseTokenSource(nil, ts)}
}

// Static serves tok until it expires; it never refreshes.
func Static(tok *oauth2.Token) Provider {
	return &sourceProvider{ts: oauth2.StaticTokenSource(tok)}
}

type none struct{}

func (none) Token(context.Context) (*oauth2.Token, error) { return nil, ErrMissingCredential }

// None is a provider without any credential.
func None() Provider { return none{} }

// New picks a provider from cfg: service account first, then a user token
// (refreshing when the OAuth client is known). With nothing configured it
// returns None, so remote calls are skipped rather than attempted.
func New(ctx context.Context, cfg Config) (Provider, error) {
	sa, err := readSecret(cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("service account: %w", err)
	}
	if sa != nil {
		jwt, err := google.JWTConfigFromJSON(sa, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("parse service account: %w", err)
		}
		return FromTokenSource(jwt.TokenSource(ctx)), nil
	}

	rawTok, err := readSecret(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	if rawTok == nil {
		return None(), nil
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(rawTok, tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	client, err := readSecret(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	if client == nil {
		return Static(tok), nil
	}
	oc, err := google.ConfigFromJSON(client, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	return FromTokenSource(oc.TokenSource(ctx, tok)), nil
}

func readSecret(inline, file string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if file = strings.TrimSpace(file); file == "" {
		return nil, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return b, nil
}

// TokenSource exposes p to clients that want an oauth2.TokenSource.
func TokenSource(ctx context.Context, p Provider) oauth2.TokenSource {
	return &providerSource{ctx: ctx, p: p}
}

type providerSource struct {
	ctx context.Context
	p   Provider
}

func (s *providerSource) Token() (*oauth2.Token, error) {
	return s.p.Token(s.ctx)
}

// Switchable lets a long-running process swap credentials, for example after
// a new token file was written by oauth-init.
type Switchable struct {
	mu sync.RWMutex
	p  Provider
}

func NewSwitchable(p Provider) *Switchable {
	if p == nil {
		p = None()
	}
	return &Switchable{p: p}
}

func (s *Switchable) Set(p Provider) {
	if p == nil {
		p = None()
	}
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *Switchable) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	p := s.p
	s.mu.RUnlock()
	return p.Token(ctx)
}
