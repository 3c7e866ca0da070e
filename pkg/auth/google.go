package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	toolerrors "github.com/theapemachine/toolbench/pkg/errors"
)

// Scope sets for the Google tool families. These mirror what each tool
// server actually touches, so a token minted for one family cannot be
// silently reused for another.
var (
	GmailScopes = []string{
		"https://www.googleapis.com/auth/gmail.readonly",
		"https://www.googleapis.com/auth/gmail.compose",
		"https://www.googleapis.com/auth/gmail.metadata",
		"https://www.googleapis.com/auth/gmail.modify",
	}

	CalendarScopes = []string{
		"https://www.googleapis.com/auth/calendar",
		"https://www.googleapis.com/auth/calendar.events",
	}

	DriveScopes = []string{
		"https://www.googleapis.com/auth/drive",
		"https://www.googleapis.com/auth/drive.file",
		"https://www.googleapis.com/auth/documents",
		"https://www.googleapis.com/auth/spreadsheets",
		"https://www.googleapis.com/auth/presentations",
	}
)

// Status describes the current token state without touching the network.
type Status struct {
	Authenticated   bool      `json:"authenticated"`
	Expired         bool      `json:"expired"`
	HasRefreshToken bool      `json:"has_refresh_token"`
	Expiry          time.Time `json:"expiry,omitzero"`
	Message         string    `json:"message"`
}

// Authenticator manages the OAuth installed-app credential pair for one
// Google tool family: credentials.json (client secret) and token.json
// (user token). Refresh is delegated entirely to the oauth2 TokenSource;
// refreshed tokens are persisted back to tokenPath.
type Authenticator struct {
	config    *oauth2.Config
	tokenPath string
}

// NewAuthenticator reads the client secret file and prepares an
// authenticator for the given scopes.
func NewAuthenticator(credentialsPath, tokenPath string, scopes ...string) (*Authenticator, error) {
	raw, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", toolerrors.ErrMissingCredentials, credentialsPath, err)
	}

	config, err := google.ConfigFromJSON(raw, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}

	// Installed-app flow: the local listener in RunLocalFlow receives the
	// redirect.
	config.RedirectURL = "http://localhost:8080/"

	return &Authenticator{
		config:    config,
		tokenPath: tokenPath,
	}, nil
}

// Token returns a valid token, refreshing and re-persisting it when the
// stored one has expired and a refresh token is available.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.loadToken()
	if err != nil {
		return nil, err
	}

	if tok.Valid() {
		return tok, nil
	}

	if tok.RefreshToken == "" {
		return nil, toolerrors.ErrTokenExpired
	}

	log.Info("refreshing expired google token", "token_path", a.tokenPath)

	fresh, err := a.config.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	if err := a.saveToken(fresh); err != nil {
		log.Error("failed to persist refreshed token", "error", err)
	}

	return fresh, nil
}

// Client returns an HTTP client that injects and auto-refreshes the token.
// Refreshed tokens are written back to disk so the next process start does
// not repeat the refresh.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}

	src := &savingTokenSource{
		auth: a,
		src:  a.config.TokenSource(ctx, tok),
		last: tok,
	}

	return oauth2.NewClient(ctx, src), nil
}

// Status reports the token state for the authenticate_* tools. It never
// performs network calls.
func (a *Authenticator) Status() Status {
	tok, err := a.loadToken()
	if err != nil {
		return Status{Message: "no stored token, authentication required"}
	}

	st := Status{
		Authenticated:   tok.Valid(),
		Expired:         !tok.Valid(),
		HasRefreshToken: tok.RefreshToken != "",
		Expiry:          tok.Expiry,
	}

	switch {
	case st.Authenticated:
		st.Message = "token valid"
	case st.HasRefreshToken:
		st.Message = "token expired, will refresh on next use"
	default:
		st.Message = "token expired and no refresh token, re-authentication required"
	}

	return st
}

// AuthURL returns the consent URL for the installed-app flow. Offline
// access with forced consent ensures Google hands back a refresh token.
func (a *Authenticator) AuthURL(state string) string {
	return a.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a token and persists it. The
// code may be a bare code or the full redirect URL pasted from a browser.
func (a *Authenticator) Exchange(ctx context.Context, code string) error {
	if parsed, err := url.Parse(code); err == nil && parsed.Query().Get("code") != "" {
		code = parsed.Query().Get("code")
	}

	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	return a.saveToken(tok)
}

// RunLocalFlow drives the full interactive flow: it starts a loopback
// listener on the redirect port, prints the consent URL, waits for the
// redirect, and persists the resulting token.
func (a *Authenticator) RunLocalFlow(ctx context.Context) error {
	listener, err := net.Listen("tcp", "localhost:8080")
	if err != nil {
		return fmt.Errorf("failed to bind redirect listener: %w", err)
	}
	defer listener.Close()

	state := fmt.Sprintf("toolbench-%d", time.Now().UnixNano())
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				errCh <- fmt.Errorf("oauth state mismatch")
				return
			}
			fmt.Fprintln(w, "Authentication complete. You can close this window.")
			codeCh <- r.URL.Query().Get("code")
		}),
	}
	go srv.Serve(listener)
	defer srv.Close()

	fmt.Printf("\nVisit the following URL to authorize access:\n\n  %s\n\n", a.AuthURL(state))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	case code := <-codeCh:
		return a.Exchange(ctx, code)
	}
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	raw, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", toolerrors.ErrNotAuthenticated, err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(raw, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", a.tokenPath, err)
	}

	return tok, nil
}

func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	raw, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(a.tokenPath, raw, 0600)
}

// savingTokenSource persists tokens whenever the wrapped source rotates
// the access token. The HTTP client built on it is shared by every tool
// handler on a server, so the compare-and-persist step must be serialized.
type savingTokenSource struct {
	auth *Authenticator
	src  oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if err := s.auth.saveToken(tok); err != nil {
			log.Error("failed to persist rotated token", "error", err)
		}
	}

	return tok, nil
}
